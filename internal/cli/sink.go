package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/plugtower/pkg/scheduler"
)

// lineSink prints one line per finished task and keeps a spinner with the
// running count below them. A target can pass through several batches (the
// update check and apply phases), so progress counts distinct targets by
// their latest status.
type lineSink struct {
	op      string
	out     io.Writer
	spinner *Spinner

	mu    sync.Mutex
	state map[string]scheduler.Status
}

func newLineSink(op string, out io.Writer, spinner *Spinner) *lineSink {
	return &lineSink{op: op, out: out, spinner: spinner, state: make(map[string]scheduler.Status)}
}

func (s *lineSink) Update(target string, status scheduler.Status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state[target] = status
	if status == scheduler.StatusDone || status == scheduler.StatusFailed {
		s.print(taskLine(target, status, message))
	}
	if s.spinner != nil {
		s.spinner.SetMessage(s.progressLocked())
	}
}

func (s *lineSink) Finish(scheduler.Report) {
	if s.spinner != nil {
		s.spinner.Stop()
	}
}

func (s *lineSink) print(line string) {
	if s.spinner != nil {
		s.spinner.Println(s.out, line)
		return
	}
	fmt.Fprintln(s.out, line)
}

// progressLocked renders "install 3/10" followed by the active targets.
func (s *lineSink) progressLocked() string {
	var finished int
	var names []string
	for t, st := range s.state {
		switch st {
		case scheduler.StatusActive:
			names = append(names, t)
		case scheduler.StatusDone, scheduler.StatusFailed:
			finished++
		}
	}
	msg := fmt.Sprintf("%s %d/%d", s.op, finished, len(s.state))
	if len(names) == 0 {
		return msg
	}
	slices.Sort(names)
	if len(names) > 3 {
		return fmt.Sprintf("%s  %s +%d", msg, strings.Join(names[:3], ", "), len(names)-3)
	}
	return msg + "  " + strings.Join(names, ", ")
}

// taskLine renders a finished task. Only the first line of a failure
// message is shown; the full text is part of the final report.
func taskLine(target string, status scheduler.Status, message string) string {
	line := statusIcon(status) + " " + StyleValue.Render(target)
	if first, _, _ := strings.Cut(message, "\n"); first != "" {
		line += "  " + StyleDim.Render(first)
	}
	return line
}
