package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/plugtower/pkg/buildinfo"
	"github.com/matzehuels/plugtower/pkg/scheduler"
)

var (
	tuiHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tuiDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

// statusMsg carries one Sink.Update into the program.
type statusMsg struct {
	target  string
	status  scheduler.Status
	message string
}

// finishMsg ends the program. Either report or err is set.
type finishMsg struct {
	report scheduler.Report
	err    error
}

// =============================================================================
// ProgressModel - Live view of a run
// =============================================================================

// ProgressModel is the bubbletea model showing every task of a run.
type ProgressModel struct {
	Op       string
	Targets  []string // In the order they were announced
	Status   map[string]scheduler.Status
	Messages map[string]string
	Height   int
	Offset   int
	Aborting bool
	Finished bool

	abort func()
	start time.Time
}

// NewProgressModel creates a progress model. abort is called once when the
// user asks to stop the run.
func NewProgressModel(op string, abort func()) ProgressModel {
	return ProgressModel{
		Op:       op,
		Status:   make(map[string]scheduler.Status),
		Messages: make(map[string]string),
		Height:   15,
		abort:    abort,
		start:    time.Now(),
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		if _, seen := m.Status[msg.target]; !seen {
			m.Targets = append(m.Targets, msg.target)
		}
		m.Status[msg.target] = msg.status
		if msg.message != "" {
			m.Messages[msg.target] = msg.message
		}
		m.follow()
	case finishMsg:
		m.Finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Aborting {
				m.Aborting = true
				if m.abort != nil {
					m.abort()
				}
			}
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset+m.Height < len(m.Targets) {
				m.Offset++
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// follow scrolls so the newest announced target stays visible.
func (m *ProgressModel) follow() {
	if len(m.Targets) > m.Offset+m.Height {
		m.Offset = len(m.Targets) - m.Height
	}
}

// counts returns finished, failed and active task numbers.
func (m ProgressModel) counts() (finished, failed, active int) {
	for _, s := range m.Status {
		switch s {
		case scheduler.StatusDone:
			finished++
		case scheduler.StatusFailed:
			finished++
			failed++
		case scheduler.StatusActive:
			active++
		}
	}
	return finished, failed, active
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(buildinfo.Short() + " · " + m.Op))
	b.WriteString("\n")
	finished, failed, active := m.counts()
	summary := fmt.Sprintf("%d/%d done · %d active · %d failed · %s",
		finished, len(m.Targets), active, failed, time.Since(m.start).Round(time.Second))
	b.WriteString(tuiDimStyle.Render(summary))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Targets))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		target := m.Targets[i]
		status := m.Status[target]
		msg, _, _ := strings.Cut(m.Messages[target], "\n")
		rows = append(rows, []string{statusIcon(status), target, status.String(), msg})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Status", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tuiHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Targets) {
				return lipgloss.NewStyle()
			}
			switch m.Status[m.Targets[idx]] {
			case scheduler.StatusFailed:
				if col == 3 {
					return lipgloss.NewStyle().Foreground(colorRed)
				}
				return lipgloss.NewStyle()
			case scheduler.StatusPending:
				return lipgloss.NewStyle().Foreground(colorDim)
			default:
				if col == 3 {
					return lipgloss.NewStyle().Foreground(colorGray)
				}
				return lipgloss.NewStyle()
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if m.Aborting {
		b.WriteString(StyleWarning.Render("  aborting: waiting for running tasks"))
	} else {
		b.WriteString(tuiDimStyle.Render("  ↑/↓ scroll  q abort"))
	}
	b.WriteString("\n")

	return b.String()
}

// =============================================================================
// tuiSink - Feeds scheduler events into a running program
// =============================================================================

type tuiSink struct {
	p *tea.Program
}

func (s tuiSink) Update(target string, status scheduler.Status, message string) {
	s.p.Send(statusMsg{target: target, status: status, message: message})
}

func (s tuiSink) Finish(report scheduler.Report) {
	s.p.Send(finishMsg{report: report})
}

// runTUI executes exec while a ProgressModel renders its progress on out.
// Quitting the view aborts the run; runTUI still waits for exec to return.
func runTUI(ctx context.Context, out io.Writer, op string, run *scheduler.Run,
	exec func(scheduler.Sink) (scheduler.Report, error)) (scheduler.Report, error) {
	p := tea.NewProgram(NewProgressModel(op, run.Abort), tea.WithContext(ctx), tea.WithOutput(out))

	type result struct {
		report scheduler.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := exec(tuiSink{p: p})
		if err != nil {
			p.Send(finishMsg{err: err})
		}
		done <- result{report, err}
	}()

	if _, err := p.Run(); err != nil {
		// Program failed or ctx was cancelled; stop the run either way.
		run.Abort()
	}
	res := <-done
	return res.report, res.err
}
