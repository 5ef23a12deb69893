package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/manifest"
	"github.com/matzehuels/plugtower/pkg/plan"
	"github.com/matzehuels/plugtower/pkg/scheduler"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// Action is what the apply phase does for one target.
type Action int

const (
	// ActionNone means the target is already up to date.
	ActionNone Action = iota
	// ActionSync updates the existing clone in place.
	ActionSync
	// ActionInstall clones a target whose directory is missing.
	ActionInstall
	// ActionReclone deletes the clone and clones again. Used when a tag or
	// branch constraint was removed, since a shallow clone may lack the
	// history a plain default-branch checkout needs.
	ActionReclone
)

func (a Action) String() string {
	switch a {
	case ActionSync:
		return "sync"
	case ActionInstall:
		return "install"
	case ActionReclone:
		return "reclone"
	default:
		return "none"
	}
}

// CheckFunc reports how many upstream commits a clone is missing.
type CheckFunc func(ctx context.Context, dir string) (int, error)

// Decide applies the check rules to one target, in order:
//
//  1. declared tag differs from the persisted tag: update
//  2. both tags set and equal: up to date, branch ignored
//  3. normalized branches differ: update
//  4. directory missing: install
//  5. otherwise ask behind; more than zero commits: update
//
// A tag or branch present in the manifest but gone from the spec yields
// ActionReclone.
func Decide(ctx context.Context, s *spec.PackageSpec, persisted *manifest.Entry, dir string, behind CheckFunc) (Action, error) {
	var oldTag, oldBranch string
	if persisted != nil {
		oldTag, oldBranch = persisted.Tag, spec.NormalizeBranch(persisted.Branch)
	}
	newBranch := s.EffectiveBranch()

	present := !perrors.Is(requireDir(dir), perrors.ErrCodeDirectoryMissing)
	need := func(removed bool) Action {
		switch {
		case !present:
			return ActionInstall
		case removed:
			return ActionReclone
		default:
			return ActionSync
		}
	}

	switch {
	case s.Tag != oldTag:
		return need(s.Tag == ""), nil
	case s.Tag != "":
		return ActionNone, nil
	case newBranch != oldBranch:
		return need(newBranch == ""), nil
	case !present:
		return ActionInstall, nil
	}

	n, err := behind(ctx, dir)
	if err != nil {
		return ActionNone, err
	}
	if n > 0 {
		return ActionSync, nil
	}
	return ActionNone, nil
}

// decisions is the check phase's output, written from worker goroutines.
type decisions struct {
	mu sync.Mutex
	m  map[string]Action
}

func (d *decisions) set(repo string, a Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[repo] = a
}

func (d *decisions) get(repo string) Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m[repo]
}

// Update runs the two-phase update protocol.
//
// The check phase decides per target whether work is needed. Targets whose
// check failed get exactly one more check; a second failure is final. The
// apply phase then runs only for flagged targets, dependencies before main
// packages.
func (r *Runner) Update(run *scheduler.Run, specs []spec.PackageSpec) (scheduler.Report, error) {
	set, _, store, err := r.begin(specs)
	if err != nil {
		return scheduler.Report{Op: "update"}, err
	}
	defer store.Close()

	snap := store.Snapshot()
	targets := r.selected(plan.Update(set, r.SelfRepo))
	dec := &decisions{m: make(map[string]Action, len(targets))}

	check := func(ctx context.Context, t plan.Task) (string, error) {
		a, err := Decide(ctx, t.Spec, snap.Find(t.Spec.Repo), r.dir(t.Spec), r.git().Behind)
		if err != nil {
			return "", r.failure(err)
		}
		dec.set(t.Spec.Repo, a)
		if a == ActionNone {
			return "up to date", nil
		}
		return "needs " + a.String(), nil
	}

	r.logger().Info("checking for updates", "run", run.ID, "targets", len(targets))
	checked := scheduler.Execute(run, targets, r.options("check"), check)
	if r.CheckRetries > 0 && checked.Failed() && !run.Aborted() {
		retry := failedTasks(targets, checked)
		r.logger().Debug("retrying failed checks", "targets", len(retry))
		second := scheduler.Execute(run, retry, r.options("check"), check)
		checked = replaceFailures(checked, second)
	}

	report := scheduler.Report{Op: "update", Skipped: checked.Skipped, Aborted: checked.Aborted}
	report.Total += checked.Skipped
	report.Merge(r.conflicts(set))
	var flagged []plan.Task
	for _, res := range checked.Results {
		if !res.Success {
			report.Add(res)
			continue
		}
		if dec.get(res.Target) == ActionNone {
			report.Add(scheduler.Result{Target: res.Target, Success: true, Message: res.Message})
		}
	}
	for _, t := range targets {
		if dec.get(t.Spec.Repo) != ActionNone {
			flagged = append(flagged, t)
		}
	}

	if run.Aborted() {
		report.Total += len(flagged)
		report.Skipped += len(flagged)
		report.Aborted = true
		r.sink().Finish(report)
		return report, nil
	}

	deps, mains := split(set, flagged)
	r.logger().Info("applying updates", "run", run.ID, "dependencies", len(deps), "packages", len(mains))
	applied := r.batches(run, "update", set, deps, mains, func(ctx context.Context, t plan.Task) (string, error) {
		a := dec.get(t.Spec.Repo)
		if err := r.apply(ctx, t.Spec, a); err != nil {
			return "", r.failure(err)
		}
		r.recordSuccess(set, store, t.Spec)
		return "updated", nil
	})
	report.Merge(applied)
	report.Op = "update"
	r.sink().Finish(report)
	return report, nil
}

func (r *Runner) apply(ctx context.Context, s *spec.PackageSpec, a Action) error {
	dir := r.dir(s)
	if err := requireDir(dir); err != nil {
		r.logger().Debug("falling back to install", "repo", s.Repo, "err", err)
		a = ActionInstall
	}
	switch a {
	case ActionInstall:
		return r.install(ctx, s)
	case ActionReclone:
		r.logger().Debug("constraint removed, recloning", "repo", s.Repo)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		return r.install(ctx, s)
	default:
		r.logger().Debug("updating", "repo", s.Repo, "branch", s.EffectiveBranch(), "tag", s.Tag)
		if err := r.git().Sync(ctx, dir, s.EffectiveBranch(), s.Tag); err != nil {
			return err
		}
		return r.git().RunPostInstall(ctx, dir, s.PostInstall)
	}
}

// requireDir returns a DIRECTORY_MISSING error when dir does not exist. The
// caller installs instead of updating.
func requireDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return perrors.Wrap(perrors.ErrCodeDirectoryMissing, err, "%s not found", dir)
	}
	return nil
}

func failedTasks(tasks []plan.Task, report scheduler.Report) []plan.Task {
	failed := make(map[string]bool, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.Target] = true
	}
	var out []plan.Task
	for _, t := range tasks {
		if failed[t.TargetID()] {
			out = append(out, t)
		}
	}
	return out
}

// replaceFailures keeps the first pass's successes and takes the retry
// pass's outcome for every target that failed the first time.
func replaceFailures(first, retry scheduler.Report) scheduler.Report {
	out := scheduler.Report{Op: first.Op, Skipped: first.Skipped, Aborted: first.Aborted}
	out.Total = first.Skipped
	for _, res := range first.Results {
		if res.Success {
			out.Add(res)
		}
	}
	out.Merge(retry)
	return out
}
