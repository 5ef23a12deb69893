// Package pipeline orchestrates install, update and remove runs.
//
// Each operation resolves the declared specs, plans against the install
// root and the manifest, and executes the plan through the scheduler:
//
//	resolve → plan → dependency batch → barrier → main layers
//
// Dependency tasks run as a separate batch that completes before any main
// package task starts. Main packages that depend on other main packages are
// split into layers with a barrier between each, so post-install commands
// can rely on their dependencies being present. Every successful task
// updates the manifest through a single-writer [manifest.Store].
//
// Per-package failures never stop a run; they are collected in the returned
// [scheduler.Report]. Only a dependency cycle or an unusable install root is
// returned as an error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plugtower/pkg/dag"
	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/manifest"
	"github.com/matzehuels/plugtower/pkg/plan"
	"github.com/matzehuels/plugtower/pkg/resolve"
	"github.com/matzehuels/plugtower/pkg/scheduler"
	"github.com/matzehuels/plugtower/pkg/spec"
	"github.com/matzehuels/plugtower/pkg/vcs"
)

// DefaultSelfRepo is the package manager's own repository. It is never
// installed, updated or removed.
const DefaultSelfRepo = "matzehuels/plugtower"

// Runner carries everything an operation needs. A Runner holds no per-run
// state; the same Runner may serve several runs one after another.
type Runner struct {
	Root         string // Directory packages are cloned into
	ManifestPath string // Manifest file
	SelfRepo     string
	BaseURL      string // Prefix for bare "owner/name" clone URLs
	Concurrency  int
	MessageLimit int
	CheckRetries int // Zero disables the check retry pass; one pass at most

	// Only restricts work to these normalized repositories when non-empty.
	// It is how failed targets are resubmitted.
	Only map[string]bool

	Git    *vcs.Git
	Sink   scheduler.Sink
	Logger *log.Logger
}

// NewRunner returns a Runner with defaults for everything but the paths.
func NewRunner(root, manifestPath string, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Root:         root,
		ManifestPath: manifestPath,
		SelfRepo:     DefaultSelfRepo,
		BaseURL:      spec.DefaultBaseURL,
		Concurrency:  scheduler.DefaultConcurrency,
		MessageLimit: vcs.DefaultMessageLimit,
		CheckRetries: 1,
		Git:          vcs.New(nil, vcs.DefaultMessageLimit),
		Sink:         scheduler.NopSink{},
		Logger:       logger,
	}
}

// Graph resolves specs and returns the dependency graph.
func (r *Runner) Graph(specs []spec.PackageSpec) (*dag.DAG, error) {
	set, err := resolve.Resolve(specs)
	if err != nil {
		return nil, err
	}
	return set.Graph, nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func (r *Runner) sink() scheduler.Sink {
	if r.Sink == nil {
		return scheduler.NopSink{}
	}
	return r.Sink
}

func (r *Runner) git() *vcs.Git {
	if r.Git == nil {
		return vcs.New(nil, r.MessageLimit)
	}
	return r.Git
}

func (r *Runner) options(op string) scheduler.Options {
	return scheduler.Options{Op: op, Concurrency: r.Concurrency, Sink: r.sink()}
}

// begin resolves specs and prepares the root and the manifest store.
func (r *Runner) begin(specs []spec.PackageSpec) (*resolve.Set, map[string]bool, *manifest.Store, error) {
	set, err := resolve.Resolve(specs)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := os.MkdirAll(r.Root, 0o755); err != nil {
		return nil, nil, nil, perrors.Wrap(perrors.ErrCodeInvalidPath, err, "create install root %s", r.Root)
	}
	installed, err := plan.Installed(r.Root)
	if err != nil {
		return nil, nil, nil, perrors.Wrap(perrors.ErrCodeInvalidPath, err, "read install root %s", r.Root)
	}
	declared := make(map[string]bool, len(set.Mains))
	for _, m := range set.Mains {
		declared[m.Repo] = true
	}
	store := manifest.Open(r.ManifestPath, declared, r.logger())
	return set, installed, store, nil
}

func (r *Runner) selected(tasks []plan.Task) []plan.Task {
	if len(r.Only) == 0 {
		return tasks
	}
	var out []plan.Task
	for _, t := range tasks {
		if r.Only[t.TargetID()] {
			out = append(out, t)
		}
	}
	return out
}

func (r *Runner) dir(s *spec.PackageSpec) string {
	return filepath.Join(r.Root, s.Name())
}

// install clones s into its directory and runs its post-install commands.
// A leftover directory without a usable clone is removed first.
func (r *Runner) install(ctx context.Context, s *spec.PackageSpec) error {
	dir := r.dir(s)
	if _, err := os.Stat(dir); err == nil {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove stale %s: %w", dir, err)
		}
	}
	if err := r.git().Clone(ctx, s.CloneURL(r.BaseURL), dir, s.EffectiveBranch(), s.Tag); err != nil {
		return err
	}
	return r.git().RunPostInstall(ctx, dir, s.PostInstall)
}

// recordSuccess writes the manifest change for a finished install or
// update of s.
func (r *Runner) recordSuccess(set *resolve.Set, store *manifest.Store, s *spec.PackageSpec) {
	if s.IsMain {
		entry := manifest.EntryFor(s, set.DependenciesOf(s.Repo))
		if err := store.UpsertMain(entry); err != nil {
			r.logger().Warn("manifest not updated", "repo", s.Repo, "err", err)
		}
		return
	}
	for _, parent := range set.Graph.Parents(s.Repo) {
		if err := store.AddDependencyRef(parent, s.Repo); err != nil {
			r.logger().Warn("manifest not updated", "repo", parent, "dependency", s.Repo, "err", err)
		}
	}
}

// failure turns err into a task error carrying only the bounded
// diagnostic.
func (r *Runner) failure(err error) error {
	return errors.New(vcs.FailureMessage(err, r.MessageLimit))
}

// batches runs deps, then mains layer by layer, with a barrier after every
// batch. A main package only starts once every main package it depends on
// has finished. Once the run is aborted, the remaining layers are skipped.
func (r *Runner) batches(run *scheduler.Run, op string, set *resolve.Set, deps, mains []plan.Task, work scheduler.WorkFunc[plan.Task]) scheduler.Report {
	report := scheduler.Execute(run, deps, r.options(op), work)
	for _, layer := range layers(set, mains) {
		if run.Aborted() {
			report.Total += len(layer)
			report.Skipped += len(layer)
			report.Aborted = true
			continue
		}
		report.Merge(scheduler.Execute(run, layer, r.options(op), work))
	}
	return report
}

// layers groups tasks by their depth in the dependency graph. Empty layers
// are dropped.
func layers(set *resolve.Set, tasks []plan.Task) [][]plan.Task {
	if len(tasks) == 0 {
		return nil
	}
	ids, err := set.Graph.Layers()
	if err != nil {
		return [][]plan.Task{tasks}
	}
	byRepo := make(map[string]plan.Task, len(tasks))
	for _, t := range tasks {
		byRepo[t.TargetID()] = t
	}
	var out [][]plan.Task
	for _, layer := range ids {
		var batch []plan.Task
		for _, id := range layer {
			if t, ok := byRepo[id]; ok {
				batch = append(batch, t)
			}
		}
		if len(batch) > 0 {
			out = append(out, batch)
		}
	}
	return out
}

// conflicts reports every package that lost its directory to another
// package as a failed result. No task runs for these packages.
func (r *Runner) conflicts(set *resolve.Set) scheduler.Report {
	var report scheduler.Report
	for _, c := range plan.Collisions(set, r.SelfRepo) {
		if len(r.Only) > 0 && !r.Only[c.Repo] {
			continue
		}
		r.logger().Warn("package skipped", "repo", c.Repo, "dir", c.Name, "owner", c.Owner)
		r.sink().Update(c.Repo, scheduler.StatusFailed, c.Error())
		report.Add(scheduler.Result{Target: c.Repo, Message: c.Error()})
	}
	return report
}

func split(set *resolve.Set, tasks []plan.Task) (deps, mains []plan.Task) {
	for _, t := range tasks {
		if set.IsMain(t.TargetID()) {
			mains = append(mains, t)
		} else {
			deps = append(deps, t)
		}
	}
	return deps, mains
}
