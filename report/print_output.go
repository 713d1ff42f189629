package report

import (
	"fmt"

	"github.com/StepLg/cljob/job"
)

// PrintOutput formats each successful job's output immediately in Consume.
type PrintOutput struct {
	Options
}

func NewPrintOutput(opts Options) *PrintOutput {
	return &PrintOutput{Options: opts}
}

func (p *PrintOutput) Consume(j *job.Job) {
	if j.Exception != nil || !j.RetCodeSet || j.RetCode != 0 {
		return
	}
	w := p.sink()
	fmt.Fprintf(w, "Output from %s:\n%s\n\n", p.jobLabel()(j), outputBlock(j.Stdout, j.Stderr))
}
