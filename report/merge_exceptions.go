package report

import (
	"fmt"

	"github.com/StepLg/cljob/job"
)

type exceptionGroup struct {
	err   error
	trace string
	jobs  []*job.Job
}

// MergeExceptions groups jobs that failed to start (or whose signal
// escalation itself failed) by their exception fingerprint, printing one
// summarized block per distinct fingerprint at Flush.
type MergeExceptions struct {
	Options

	order  []string
	groups map[string]*exceptionGroup
}

func NewMergeExceptions(opts Options) *MergeExceptions {
	return &MergeExceptions{Options: opts, groups: map[string]*exceptionGroup{}}
}

func (m *MergeExceptions) Consume(j *job.Job) {
	if j.Exception == nil {
		return
	}
	key := exceptionFingerprint(j.Exception, j.Trace)
	g, ok := m.groups[key]
	if !ok {
		if m.groups == nil {
			m.groups = map[string]*exceptionGroup{}
		}
		g = &exceptionGroup{err: j.Exception, trace: j.Trace}
		m.groups[key] = g
		m.order = append(m.order, key)
	}
	g.jobs = append(g.jobs, j)
}

func (m *MergeExceptions) Flush() {
	w := m.sink()
	label := m.jobLabel()
	for _, key := range m.order {
		g := m.groups[key]
		labels := labelsOf(g.jobs, label)
		fmt.Fprintf(w, "Exception '%s' in %d jobs%s.\n", exceptionHeaderMessage(g.err), len(g.jobs), hostsSuffix(labels, m.MaxJobsToList))
		fmt.Fprint(w, exceptionDescription(g.err))
		if g.trace != "" {
			fmt.Fprintln(w, "Traceback:")
			fmt.Fprintln(w, g.trace)
		}
		fmt.Fprintln(w)
	}
}
