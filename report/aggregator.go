// Package report implements the result-aggregation pipeline: a chain of
// stateful consumers of the completed-job stream, each producing a
// summarized artifact at end-of-stream.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/StepLg/cljob/job"
)

// Aggregator is called once per emitted job. It must tolerate jobs in any
// completion category and is free to ignore categories it does not care
// about.
type Aggregator interface {
	Consume(j *job.Job)
}

// Flusher is an optional extension an Aggregator may implement to produce a
// summary once the stream has drained. Not every aggregator needs one
// (PrintOutput et al. emit incrementally in Consume).
type Flusher interface {
	Flush()
}

// JobLabelFunc renders a short human identifier for a job, used in every
// summary listing.
type JobLabelFunc func(j *job.Job) string

// DefaultJobLabel is job.Job.String, matching the source's default
// job_to_str.
func DefaultJobLabel(j *job.Job) string { return j.String() }

// Options is the common configuration shared by every aggregator that
// produces a listing: where to write, how to label a job, and how many
// identifiers to enumerate before truncating.
type Options struct {
	Sink          io.Writer
	JobLabel      JobLabelFunc
	MaxJobsToList int
}

func (o Options) sink() io.Writer {
	if o.Sink != nil {
		return o.Sink
	}
	return os.Stdout
}

func (o Options) jobLabel() JobLabelFunc {
	if o.JobLabel != nil {
		return o.JobLabel
	}
	return DefaultJobLabel
}

// hostsSuffix renders the ": a b (and N more)" suffix for a merged report
// header: negative lists every label, zero lists none (colon only),
// positive lists the first N sorted labels plus an overflow count, or every
// label with no overflow count when there are at most N of them.
// Labels are always sorted first, regardless of truncation.
func hostsSuffix(labels []string, max int) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)

	switch {
	case max < 0:
		return ": " + strings.Join(sorted, " ")
	case max == 0:
		return ":"
	case max >= len(sorted):
		return ": " + strings.Join(sorted, " ")
	default:
		overflow := len(sorted) - max
		return fmt.Sprintf(": %s (and %d more)", strings.Join(sorted[:max], " "), overflow)
	}
}

// labelsOf renders one label per job, with duplicates kept (used by
// MergeExceptions, which lists one entry per job object).
func labelsOf(jobs []*job.Job, label JobLabelFunc) []string {
	labels := make([]string, 0, len(jobs))
	for _, j := range jobs {
		labels = append(labels, label(j))
	}
	return labels
}

// labelSetOf renders the distinct labels across jobs (used by MergeOutput
// and MergeErrors, which list a set of hosts, not one entry per job).
func labelSetOf(jobs []*job.Job, label JobLabelFunc) []string {
	seen := make(map[string]struct{}, len(jobs))
	labels := make([]string, 0, len(jobs))
	for _, j := range jobs {
		l := label(j)
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		labels = append(labels, l)
	}
	return labels
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n\t")
}
