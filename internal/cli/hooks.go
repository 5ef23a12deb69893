package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plugtower/pkg/observability"
)

// debugHooks logs every observability event at debug level.
type debugHooks struct {
	logger *log.Logger
}

func registerDebugHooks(l *log.Logger) {
	h := debugHooks{logger: l}
	observability.SetRunHooks(h)
	observability.SetTaskHooks(h)
	observability.SetManifestHooks(h)
}

func (h debugHooks) OnRunStart(_ context.Context, runID, op string, tasks int) {
	h.logger.Debug("batch started", "run", runID, "op", op, "tasks", tasks)
}

func (h debugHooks) OnRunComplete(_ context.Context, runID, op string, failures int, aborted bool, d time.Duration) {
	h.logger.Debug("batch finished", "run", runID, "op", op, "failures", failures, "aborted", aborted,
		"elapsed", d.Round(time.Millisecond))
}

func (h debugHooks) OnTaskStart(_ context.Context, op, target string) {
	h.logger.Debug("task started", "op", op, "target", target)
}

func (h debugHooks) OnTaskComplete(_ context.Context, op, target string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("task failed", "op", op, "target", target, "elapsed", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("task done", "op", op, "target", target, "elapsed", d.Round(time.Millisecond))
}

func (h debugHooks) OnManifestLoad(path string, entries int, err error) {
	h.logger.Debug("manifest loaded", "path", path, "entries", entries, "err", err)
}

func (h debugHooks) OnManifestWrite(path string, entries int, err error) {
	h.logger.Debug("manifest written", "path", path, "entries", entries, "err", err)
}
