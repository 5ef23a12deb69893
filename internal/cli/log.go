// Package cli implements the plugtower command-line interface.
//
// The commands install, update and remove git-hosted packages declared in a
// spec file, list the manifest, and export the resolved dependency graph.
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - install: Clone every declared package and its dependencies
//   - update: Bring installed packages in line with the specs and upstream
//   - remove: Delete packages the specs no longer need
//   - list: Show the manifest
//   - graph: Export the resolved dependency graph as DOT, SVG or JSON
//   - paths: Print the config, spec, root and manifest locations
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes timestamped ("15:04:05.00") records
// at or above level to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of one command.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "install finished (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command's logger, or log.Default() when none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
