package report

import (
	"fmt"

	"github.com/StepLg/cljob/job"
)

// PrintExceptions formats each job's exception immediately in Consume,
// using the same per-job layout MergeExceptions uses per group.
type PrintExceptions struct {
	Options
}

func NewPrintExceptions(opts Options) *PrintExceptions {
	return &PrintExceptions{Options: opts}
}

func (p *PrintExceptions) Consume(j *job.Job) {
	if j.Exception == nil {
		return
	}
	w := p.sink()
	fmt.Fprintf(w, "Exception '%s' in job %s.\n", exceptionHeaderMessage(j.Exception), p.jobLabel()(j))
	fmt.Fprint(w, exceptionDescription(j.Exception))
	if j.Trace != "" {
		fmt.Fprintln(w, "Traceback:")
		fmt.Fprintln(w, j.Trace)
	}
	fmt.Fprintln(w)
}
