// Package scheduler executes batches of tasks under a fixed concurrency
// ceiling.
//
// [Execute] puts every task on a buffered queue and starts at most
// Options.Concurrency workers that drain it. Each worker checks the run's
// abort flag before taking the next task, and results that arrive after an
// abort are dropped. Execute returns once the queue is empty and every
// worker has returned, so no result can arrive after it.
//
// A failing task never stops the batch: its error becomes a failed
// [Result].
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/plugtower/pkg/observability"
)

// DefaultConcurrency is the ceiling used when Options.Concurrency is not
// positive.
const DefaultConcurrency = 10

// Target is anything a task acts on.
type Target interface {
	TargetID() string
}

// Options configures one batch.
type Options struct {
	Op          string
	Concurrency int
	Sink        Sink
}

// WorkFunc performs one task. A non-nil error marks the task failed with
// err's message; otherwise message describes the success.
type WorkFunc[T Target] func(ctx context.Context, task T) (message string, err error)

// Execute runs work for every task and returns the batch report. Results
// are in task order.
func Execute[T Target](run *Run, tasks []T, opts Options, work WorkFunc[T]) Report {
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	limit = min(limit, len(tasks))

	ctx := run.Context()
	start := time.Now()
	observability.Runs().OnRunStart(ctx, run.ID, opts.Op, len(tasks))

	for _, t := range tasks {
		sink.Update(t.TargetID(), StatusPending, "")
	}

	queue := make(chan int, len(tasks))
	for i := range tasks {
		queue <- i
	}
	close(queue)

	results := make([]*Result, len(tasks))
	var g errgroup.Group
	for range limit {
		g.Go(func() error {
			for i := range queue {
				if run.Aborted() {
					continue
				}
				results[i] = runOne(run, opts.Op, tasks[i], sink, work)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Op: opts.Op, Total: len(tasks), Aborted: run.Aborted()}
	for _, r := range results {
		if r == nil {
			report.Skipped++
			continue
		}
		report.Results = append(report.Results, *r)
		if r.Success {
			report.Success++
		} else {
			report.Failures = append(report.Failures, *r)
		}
	}
	observability.Runs().OnRunComplete(ctx, run.ID, opts.Op, len(report.Failures), report.Aborted, time.Since(start))
	return report
}

func runOne[T Target](run *Run, op string, task T, sink Sink, work WorkFunc[T]) *Result {
	ctx := run.Context()
	id := task.TargetID()

	sink.Update(id, StatusActive, "")
	observability.Tasks().OnTaskStart(ctx, op, id)
	start := time.Now()

	msg, err := work(ctx, task)
	observability.Tasks().OnTaskComplete(ctx, op, id, time.Since(start), err)

	if run.Aborted() {
		return nil
	}
	if err != nil {
		res := &Result{Target: id, Message: err.Error()}
		sink.Update(id, StatusFailed, res.Message)
		return res
	}
	sink.Update(id, StatusDone, msg)
	return &Result{Target: id, Success: true, Message: msg}
}
