package report

import "github.com/StepLg/cljob/job"

// Statuses tallies the three outcome buckets JobStatuses exposes.
type Statuses struct {
	OK        int
	RetCode   int
	Exception int
}

// JobStatuses tallies every consumed job into exactly one of ok, retcode,
// or exception, in that priority order (exception beats non-zero retcode
// beats ok).
type JobStatuses struct {
	stat Statuses
}

func NewJobStatuses() *JobStatuses { return &JobStatuses{} }

func (s *JobStatuses) Consume(j *job.Job) {
	switch {
	case j.Exception != nil:
		s.stat.Exception++
	case !j.RetCodeSet || j.RetCode != 0:
		s.stat.RetCode++
	default:
		s.stat.OK++
	}
}

// Statuses returns the final tallies. Safe to call at any point, though it
// is only meaningful after the stream has drained.
func (s *JobStatuses) Statuses() Statuses { return s.stat }
