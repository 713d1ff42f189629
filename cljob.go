// Package cljob wires a job list through a supervisor and fans the
// completed-job stream out to a chain of result aggregators.
package cljob

import (
	"context"
	"log"

	"github.com/StepLg/cljob/job"
	"github.com/StepLg/cljob/report"
	"github.com/StepLg/cljob/supervisor"
)

// Run drives jobs through the supervisor and delivers every emitted job to
// every aggregator, in registration order, then calls Flush on every
// aggregator that implements it, also in registration order. A panicking
// aggregator is recovered and logged rather than aborting the batch for the
// remaining aggregators and jobs.
func Run(ctx context.Context, jobs []*job.Job, starter job.Starter, finalizer job.Finalizer, cfg supervisor.Config, aggregators []report.Aggregator) {
	for j := range supervisor.Run(ctx, jobs, starter, finalizer, cfg) {
		for _, agg := range aggregators {
			consume(agg, j)
		}
	}
	for _, agg := range aggregators {
		if f, ok := agg.(report.Flusher); ok {
			flush(f)
		}
	}
}

func consume(agg report.Aggregator, j *job.Job) {
	defer recoverAndLog("aggregator consume")
	agg.Consume(j)
}

func flush(f report.Flusher) {
	defer recoverAndLog("aggregator flush")
	f.Flush()
}

func recoverAndLog(what string) {
	if r := recover(); r != nil {
		log.Printf("%s panicked: %v", what, r)
	}
}

// Failed reports true if any consumed job was an exception or a non-zero
// exit, the driver-level exit-code policy.
func Failed(s report.Statuses) bool {
	return s.Exception > 0 || s.RetCode > 0
}
