package scheduler

import "fmt"

// Status is the progress state of one task.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusDone
	StatusFailed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of one task.
type Result struct {
	Target  string
	Success bool
	Message string
}

// Report summarizes one or more batches.
type Report struct {
	Op       string   // "install", "update", "remove"
	Results  []Result // Every recorded result, in task order per batch
	Failures []Result // Results with Success=false
	Success  int      // Number of successful results
	Total    int      // Number of tasks submitted
	Skipped  int      // Tasks never dispatched or whose result was dropped after abort
	Aborted  bool
}

// Merge folds other into r.
func (r *Report) Merge(other Report) {
	if r.Op == "" {
		r.Op = other.Op
	}
	r.Results = append(r.Results, other.Results...)
	r.Failures = append(r.Failures, other.Failures...)
	r.Success += other.Success
	r.Total += other.Total
	r.Skipped += other.Skipped
	r.Aborted = r.Aborted || other.Aborted
}

// Add records a result that did not go through Execute.
func (r *Report) Add(res Result) {
	r.Total++
	r.Results = append(r.Results, res)
	if res.Success {
		r.Success++
	} else {
		r.Failures = append(r.Failures, res)
	}
}

// Failed reports whether any task failed.
func (r Report) Failed() bool { return len(r.Failures) > 0 }

// FailedTargets returns the targets of all failures, in report order. These
// are exactly the targets to resubmit when retrying.
func (r Report) FailedTargets() []string {
	out := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Target
	}
	return out
}

// Sink observes a run. Implementations must be safe for concurrent use;
// Update is called from worker goroutines.
type Sink interface {
	Update(target string, status Status, message string)
	Finish(report Report)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Update(string, Status, string) {}
func (NopSink) Finish(Report)                 {}
