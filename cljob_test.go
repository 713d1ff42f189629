package cljob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/StepLg/cljob/job"
	"github.com/StepLg/cljob/report"
	"github.com/StepLg/cljob/supervisor"
)

type immediateHandle struct{}

func (immediateHandle) Pid() int                       { return 1 }
func (immediateHandle) TryWait() (int, bool)           { return 0, true }
func (immediateHandle) Signal(job.Signal) error        { return nil }
func (immediateHandle) Drain() (string, string, error) { return "", "", nil }

type immediateStarter struct{}

func (immediateStarter) Start(j *job.Job) error {
	j.SetHandle(immediateHandle{})
	return nil
}

type noopFinalizer struct{}

func (noopFinalizer) Finalize(*job.Job) {}

// recordingAggregator records Consume/Flush calls, tagged with a name, into
// a shared log so tests can assert cross-aggregator ordering.
type recordingAggregator struct {
	name string
	log  *[]string
}

func (r recordingAggregator) Consume(j *job.Job) {
	*r.log = append(*r.log, r.name+":consume:"+j.Host)
}

func (r recordingAggregator) Flush() {
	*r.log = append(*r.log, r.name+":flush")
}

type panickyAggregator struct{}

func (panickyAggregator) Consume(*job.Job) { panic("boom") }
func (panickyAggregator) Flush()           { panic("boom") }

func TestRunDeliversToEveryAggregatorInOrderThenFlushes(t *testing.T) {
	jobs := []*job.Job{job.NewShell("h1", "true", ""), job.NewShell("h2", "true", "")}
	var log []string
	aggregators := []report.Aggregator{
		recordingAggregator{name: "a", log: &log},
		recordingAggregator{name: "b", log: &log},
	}

	Run(context.Background(), jobs, immediateStarter{}, noopFinalizer{}, supervisor.Config{}, aggregators)

	require.Len(t, log, 6)
	// Flush calls happen only after every job has been consumed by every
	// aggregator.
	for _, entry := range log[:4] {
		require.NotContains(t, []string{"a:flush", "b:flush"}, entry, "flush happened before all jobs were consumed: %v", log)
	}
	require.Equal(t, []string{"a:flush", "b:flush"}, log[4:])
}

func TestRunRecoversFromAggregatorPanic(t *testing.T) {
	jobs := []*job.Job{job.NewShell("h1", "true", "")}
	var log []string
	aggregators := []report.Aggregator{
		panickyAggregator{},
		recordingAggregator{name: "survivor", log: &log},
	}

	Run(context.Background(), jobs, immediateStarter{}, noopFinalizer{}, supervisor.Config{}, aggregators)

	require.Equal(t, []string{"survivor:consume:h1", "survivor:flush"}, log,
		"a panicking aggregator must not block its peers")
}

func TestFailed(t *testing.T) {
	cases := []struct {
		name string
		s    report.Statuses
		want bool
	}{
		{"all ok", report.Statuses{OK: 3}, false},
		{"has retcode failure", report.Statuses{OK: 1, RetCode: 1}, true},
		{"has exception", report.Statuses{OK: 1, Exception: 1}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Failed(c.s))
		})
	}
}
