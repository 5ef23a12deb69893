package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/plugtower/pkg/scheduler"
)

func TestLineSinkPrintsFinishedTasks(t *testing.T) {
	var out bytes.Buffer
	sink := newLineSink("install", &out, nil)

	sink.Update("a/x", scheduler.StatusPending, "")
	sink.Update("b/y", scheduler.StatusPending, "")
	sink.Update("a/x", scheduler.StatusActive, "")
	if out.Len() != 0 {
		t.Fatalf("pending and active updates should not print: %q", out.String())
	}

	sink.Update("a/x", scheduler.StatusDone, "installed")
	sink.Update("b/y", scheduler.StatusFailed, "git clone failed: not found\nfatal: exit 128")
	sink.Finish(scheduler.Report{})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "a/x") || !strings.Contains(lines[0], "installed") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "git clone failed: not found") || strings.Contains(lines[1], "exit 128") {
		t.Errorf("line 1 = %q, want first message line only", lines[1])
	}
}

func TestLineSinkProgress(t *testing.T) {
	sink := newLineSink("update", &bytes.Buffer{}, nil)
	for _, target := range []string{"a", "b", "c", "d", "e"} {
		sink.Update(target, scheduler.StatusPending, "")
		sink.Update(target, scheduler.StatusActive, "")
	}
	sink.Update("a", scheduler.StatusDone, "")

	got := sink.progressLocked()
	want := "update 1/5  b, c, d +1"
	if got != want {
		t.Errorf("progress = %q, want %q", got, want)
	}
}

func TestLineSinkDrivesSpinner(t *testing.T) {
	var frames, out bytes.Buffer
	spinner := newSpinner(&frames, "remove")
	sink := newLineSink("remove", &out, spinner)

	sink.Update("x", scheduler.StatusPending, "")
	sink.Update("x", scheduler.StatusDone, "removed")
	sink.Finish(scheduler.Report{})

	if !strings.Contains(out.String(), "x") {
		t.Errorf("output = %q", out.String())
	}
	if spinner.message != "remove 1/1" {
		t.Errorf("spinner message = %q", spinner.message)
	}
}

func TestLineSinkCountsTargetsOnce(t *testing.T) {
	sink := newLineSink("update", &bytes.Buffer{}, nil)

	// check phase
	sink.Update("a/x", scheduler.StatusPending, "")
	sink.Update("b/y", scheduler.StatusPending, "")
	sink.Update("a/x", scheduler.StatusDone, "needs sync")
	sink.Update("b/y", scheduler.StatusDone, "up to date")
	if got := sink.progressLocked(); got != "update 2/2" {
		t.Errorf("after check: progress = %q, want %q", got, "update 2/2")
	}

	// apply phase for the flagged target
	sink.Update("a/x", scheduler.StatusPending, "")
	sink.Update("a/x", scheduler.StatusActive, "")
	if got := sink.progressLocked(); got != "update 1/2  a/x" {
		t.Errorf("during apply: progress = %q, want %q", got, "update 1/2  a/x")
	}
	sink.Update("a/x", scheduler.StatusDone, "updated")
	if got := sink.progressLocked(); got != "update 2/2" {
		t.Errorf("after apply: progress = %q, want %q", got, "update 2/2")
	}
}

func TestLineSinkCountsUnannouncedFailure(t *testing.T) {
	var out bytes.Buffer
	sink := newLineSink("install", &out, nil)
	sink.Update("b/x", scheduler.StatusFailed, `directory "x" already used by a/x`)
	if got := sink.progressLocked(); got != "install 1/1" {
		t.Errorf("progress = %q, want %q", got, "install 1/1")
	}
	if !strings.Contains(out.String(), "already used by a/x") {
		t.Errorf("output = %q", out.String())
	}
}
