// Package supervisor drives a finite backlog of jobs through a fixed-size
// in-flight set, polling children non-blockingly, enforcing a wall-clock
// budget for the whole batch, and terminating stragglers via a two-step
// signal escalation.
package supervisor

import (
	"context"
	"log"
	"time"

	"github.com/StepLg/cljob/job"
)

// maxInFlightCeiling caps simultaneous children regardless of caller
// configuration, to avoid exhausting OS descriptor limits on the
// captured-pipe drain path.
const maxInFlightCeiling = 510

// Config holds the batch-wide knobs for a Supervisor run.
type Config struct {
	// Timeout is the wall-clock budget for the entire batch. Zero means
	// unbounded.
	Timeout time.Duration
	// PollInterval is the sleep between polling sweeps. Zero defaults to
	// 100ms.
	PollInterval time.Duration
	// MaxInFlight caps simultaneously running children. Zero means
	// len(jobs), still capped at 510.
	MaxInFlight int
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return 100 * time.Millisecond
	}
	return c.PollInterval
}

func (c Config) maxInFlight(numJobs int) int {
	max := c.MaxInFlight
	if max <= 0 {
		max = numJobs
	}
	if max > maxInFlightCeiling {
		max = maxInFlightCeiling
	}
	return max
}

// Run drives jobs through start/finalize and returns a channel of completed
// jobs, emitted lazily in the order they are detected complete (not
// submission order). The channel is closed once every job has been emitted
// or the batch timed out with nothing left running.
//
// ctx cancellation is honored the same way a batch timeout is: every
// running job is terminated and emitted with TimedOut set.
func Run(ctx context.Context, jobs []*job.Job, starter job.Starter, finalizer job.Finalizer, cfg Config) <-chan *job.Job {
	out := make(chan *job.Job)
	go func() {
		defer close(out)
		runLoop(ctx, jobs, starter, finalizer, cfg, out)
	}()
	return out
}

func runLoop(ctx context.Context, jobs []*job.Job, starter job.Starter, finalizer job.Finalizer, cfg Config, out chan<- *job.Job) {
	// pending is a LIFO backlog, matching the source's stack-based admission.
	pending := append([]*job.Job(nil), jobs...)
	running := make([]*job.Job, 0, len(jobs))

	maxInFlight := cfg.maxInFlight(len(jobs))
	pollInterval := cfg.pollInterval()

	admit := func(slots int) {
		for slots > 0 && len(pending) > 0 {
			j := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			if err := starter.Start(j); err != nil {
				j.Exception = err
				out <- j
				continue
			}
			running = append(running, j)
			slots--
		}
	}

	admit(maxInFlight)

	var deadline <-chan time.Time
	if cfg.Timeout > 0 {
		timer := time.NewTimer(cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		if len(running) == 0 && len(pending) == 0 {
			return
		}

		select {
		case <-deadline:
			terminateAll(running, out)
			return
		case <-ctx.Done():
			terminateAll(running, out)
			return
		default:
		}

		stillRunning := running[:0:0]
		for _, j := range running {
			h := j.Handle()
			code, done := h.TryWait()
			if !done {
				stillRunning = append(stillRunning, j)
				continue
			}
			j.RetCode = code
			j.RetCodeSet = true
			finalizer.Finalize(j)
			out <- j
		}
		running = stillRunning

		admit(maxInFlight - len(running))

		if len(running) == 0 && len(pending) == 0 {
			return
		}
		time.Sleep(pollInterval)
	}
}

// terminateAll implements the two-step signal escalation: TERM, then KILL if
// TERM itself fails to be delivered. If both fail, the error is attached to
// the job in addition to TimedOut so the job is still emitted and cleanup
// continues for the rest of the running set.
func terminateAll(running []*job.Job, out chan<- *job.Job) {
	for _, j := range running {
		j.TimedOut = true
		h := j.Handle()
		if err := h.Signal(job.SignalTerm); err != nil {
			if err2 := h.Signal(job.SignalKill); err2 != nil {
				j.Exception = err2
				log.Printf("signal escalation failed for %s: term=%v kill=%v", j.Host, err, err2)
			}
		}
		out <- j
	}
}
