package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/plugtower/pkg/scheduler"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return pm, cmd
}

func TestProgressModelTracksStatus(t *testing.T) {
	m := NewProgressModel("install", nil)
	m, _ = update(t, m, statusMsg{target: "b/y", status: scheduler.StatusPending})
	m, _ = update(t, m, statusMsg{target: "a/x", status: scheduler.StatusPending})
	m, _ = update(t, m, statusMsg{target: "b/y", status: scheduler.StatusActive})
	m, _ = update(t, m, statusMsg{target: "b/y", status: scheduler.StatusFailed, message: "git clone failed: boom"})

	if got := strings.Join(m.Targets, ","); got != "b/y,a/x" {
		t.Errorf("Targets = %q, want announcement order", got)
	}
	finished, failed, active := m.counts()
	if finished != 1 || failed != 1 || active != 0 {
		t.Errorf("counts = %d/%d/%d", finished, failed, active)
	}

	view := m.View()
	for _, want := range []string{"install", "b/y", "a/x", "git clone failed: boom", "q abort"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestProgressModelAbortOnce(t *testing.T) {
	aborts := 0
	m := NewProgressModel("update", func() { aborts++ })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Error("abort must not quit before the run finishes")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	if aborts != 1 {
		t.Errorf("abort called %d times, want 1", aborts)
	}
	if !m.Aborting || !strings.Contains(m.View(), "aborting") {
		t.Error("model should show the aborting state")
	}
}

func TestProgressModelQuitsOnFinish(t *testing.T) {
	m := NewProgressModel("remove", nil)
	m, cmd := update(t, m, finishMsg{report: scheduler.Report{Op: "remove"}})
	if !m.Finished || cmd == nil {
		t.Fatal("finish should quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("finish command should be tea.Quit")
	}
}

func TestProgressModelFollowsNewTargets(t *testing.T) {
	m := NewProgressModel("install", nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 13})
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}
	for _, target := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		m, _ = update(t, m, statusMsg{target: target, status: scheduler.StatusPending})
	}
	if m.Offset != 2 {
		t.Errorf("Offset = %d, want 2", m.Offset)
	}
}
