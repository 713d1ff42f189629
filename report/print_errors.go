package report

import (
	"fmt"

	"github.com/StepLg/cljob/job"
)

// PrintErrors formats each failing job immediately in Consume.
type PrintErrors struct {
	Options
}

func NewPrintErrors(opts Options) *PrintErrors {
	return &PrintErrors{Options: opts}
}

func (p *PrintErrors) Consume(j *job.Job) {
	if j.Exception != nil {
		return
	}
	if j.RetCodeSet && j.RetCode == 0 {
		return
	}
	w := p.sink()
	label := p.jobLabel()(j)
	if !j.RetCodeSet {
		fmt.Fprintf(w, "Failed by timeout in job %s.\n", label)
		return
	}
	fmt.Fprintf(w, "Fail with code %d in %s job.\n", j.RetCode, label)
	fmt.Fprintf(w, "Stderr: %s\n", indent(j.Stderr))
	if j.Stdout != "" {
		fmt.Fprintf(w, "Stdout: %s\n", indent(j.Stdout))
	}
	fmt.Fprintln(w)
}
