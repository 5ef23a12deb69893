// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about runs, individual tasks and manifest writes.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the library packages
// never import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTaskHooks(&myTaskHooks{})
//	    observability.SetManifestHooks(&myManifestHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Tasks().OnTaskStart(ctx, "install", "a/x")
//	// ... clone ...
//	observability.Tasks().OnTaskComplete(ctx, "install", "a/x", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Run Hooks
// =============================================================================

// RunHooks receives events for whole scheduler runs.
type RunHooks interface {
	// OnRunStart is called before the first task of a batch is dispatched.
	OnRunStart(ctx context.Context, runID, op string, tasks int)

	// OnRunComplete is called once every task of a batch has finished or
	// been skipped.
	OnRunComplete(ctx context.Context, runID, op string, failures int, aborted bool, duration time.Duration)
}

// =============================================================================
// Task Hooks
// =============================================================================

// TaskHooks receives events for individual units of work.
type TaskHooks interface {
	// OnTaskStart records a task moving to the active state.
	OnTaskStart(ctx context.Context, op, target string)

	// OnTaskComplete records a finished task. err is nil on success.
	OnTaskComplete(ctx context.Context, op, target string, duration time.Duration, err error)
}

// =============================================================================
// Manifest Hooks
// =============================================================================

// ManifestHooks receives events from the manifest store.
type ManifestHooks interface {
	// OnManifestLoad records a manifest read. err is non-nil when the file
	// was unreadable and an empty manifest was used instead.
	OnManifestLoad(path string, entries int, err error)

	// OnManifestWrite records a manifest write.
	OnManifestWrite(path string, entries int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRunHooks is a no-op implementation of RunHooks.
type NoopRunHooks struct{}

func (NoopRunHooks) OnRunStart(context.Context, string, string, int) {}
func (NoopRunHooks) OnRunComplete(context.Context, string, string, int, bool, time.Duration) {
}

// NoopTaskHooks is a no-op implementation of TaskHooks.
type NoopTaskHooks struct{}

func (NoopTaskHooks) OnTaskStart(context.Context, string, string)                           {}
func (NoopTaskHooks) OnTaskComplete(context.Context, string, string, time.Duration, error) {}

// NoopManifestHooks is a no-op implementation of ManifestHooks.
type NoopManifestHooks struct{}

func (NoopManifestHooks) OnManifestLoad(string, int, error)  {}
func (NoopManifestHooks) OnManifestWrite(string, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	runHooks      RunHooks      = NoopRunHooks{}
	taskHooks     TaskHooks     = NoopTaskHooks{}
	manifestHooks ManifestHooks = NoopManifestHooks{}
	hooksMu       sync.RWMutex
)

// SetRunHooks registers custom run hooks.
// This should be called once at application startup before any run starts.
func SetRunHooks(h RunHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runHooks = h
	}
}

// SetTaskHooks registers custom task hooks.
// This should be called once at application startup before any run starts.
func SetTaskHooks(h TaskHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		taskHooks = h
	}
}

// SetManifestHooks registers custom manifest hooks.
// This should be called once at application startup before the manifest is opened.
func SetManifestHooks(h ManifestHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		manifestHooks = h
	}
}

// Runs returns the registered run hooks.
func Runs() RunHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runHooks
}

// Tasks returns the registered task hooks.
func Tasks() TaskHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return taskHooks
}

// Manifest returns the registered manifest hooks.
func Manifest() ManifestHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return manifestHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runHooks = NoopRunHooks{}
	taskHooks = NoopTaskHooks{}
	manifestHooks = NoopManifestHooks{}
}
