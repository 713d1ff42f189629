package report

import "github.com/StepLg/cljob/job"

// Bar is the rendering collaborator ProgressBar drives. Concrete rendering
// is out of scope for this package: callers plug in whatever terminal
// progress-bar library they like.
type Bar interface {
	Start()
	Update(n int)
	Finish()
}

// ProgressBar increments a counter per consumed job, starting the bar at
// construction and finishing it at Flush.
type ProgressBar struct {
	bar  Bar
	next int
}

// NewProgressBar starts bar immediately, matching the source's
// __init__-time pbar.start().
func NewProgressBar(bar Bar) *ProgressBar {
	bar.Start()
	return &ProgressBar{bar: bar, next: 1}
}

func (p *ProgressBar) Consume(*job.Job) {
	p.bar.Update(p.next)
	p.next++
}

func (p *ProgressBar) Flush() {
	p.bar.Finish()
}
