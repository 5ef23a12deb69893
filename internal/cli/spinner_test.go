package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "install 0/3")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "install 0/3") {
		t.Errorf("spinner output %q should contain the message", buf.String())
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "install 0/3")
	s.SetMessage("install 2/3")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "install 2/3") {
		t.Errorf("spinner output %q should contain the updated message", buf.String())
	}
}

func TestSpinnerPrintln(t *testing.T) {
	var frames, out bytes.Buffer
	s := newSpinner(&frames, "remove")
	s.Println(&out, "removed a/x")
	s.Stop()

	if out.String() != "removed a/x\n" {
		t.Errorf("Println wrote %q", out.String())
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		s := newSpinner(&bytes.Buffer{}, "idle")
		s.Stop()
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on an unstarted spinner blocked")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, &bytes.Buffer{}, "update")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation")
	}
	s.Stop()
}
