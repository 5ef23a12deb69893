package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/manifest"
	"github.com/matzehuels/plugtower/pkg/plan"
	"github.com/matzehuels/plugtower/pkg/scheduler"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// removal is one directory to delete.
type removal struct {
	Name string // Directory name under the root
	Repo string // Repository, when the manifest knows it
}

func (t removal) TargetID() string {
	if t.Repo != "" {
		return t.Repo
	}
	return t.Name
}

// Remove deletes installed packages the specs no longer need.
//
// Candidates are directories not required by the current specs. For every
// candidate that was a main package, its dependencies that no surviving
// manifest entry references are removed as well. A package required by the
// current specs is never removed.
func (r *Runner) Remove(run *scheduler.Run, specs []spec.PackageSpec) (scheduler.Report, error) {
	set, installed, store, err := r.begin(specs)
	if err != nil {
		return scheduler.Report{Op: "remove"}, err
	}
	defer store.Close()

	snap := store.Snapshot()
	required := set.Required()
	tasks := r.removals(snap, plan.Removal(set, installed, r.SelfRepo), installed, required)
	if len(r.Only) > 0 {
		var only []removal
		for _, t := range tasks {
			if r.Only[t.TargetID()] {
				only = append(only, t)
			}
		}
		tasks = only
	}
	r.logger().Info("removing", "run", run.ID, "packages", len(tasks))

	report := scheduler.Execute(run, tasks, r.options("remove"), func(ctx context.Context, t removal) (string, error) {
		if err := perrors.ValidatePath(t.Name); err != nil || strings.Contains(t.Name, "/") {
			return "", fmt.Errorf("refusing to remove %q", t.Name)
		}
		if err := os.RemoveAll(filepath.Join(r.Root, t.Name)); err != nil {
			return "", r.failure(err)
		}
		if t.Repo != "" {
			if err := store.RemoveEntry(t.Repo); err != nil {
				r.logger().Warn("manifest not updated", "repo", t.Repo, "err", err)
			}
			if err := store.RemoveDependencyRef(t.Repo); err != nil {
				r.logger().Warn("manifest not updated", "dependency", t.Repo, "err", err)
			}
		}
		return "removed", nil
	})

	// Entries whose package is neither declared nor on disk are stale.
	// The final flush also drops entries for packages that are now only
	// dependencies, even when no task ran.
	if !run.Aborted() {
		for _, e := range snap.Entries {
			if required[e.Repo] || installed[e.Name] {
				continue
			}
			if err := store.RemoveEntry(e.Repo); err != nil {
				r.logger().Warn("manifest not updated", "repo", e.Repo, "err", err)
			}
		}
		if err := store.Flush(); err != nil {
			r.logger().Warn("manifest not written", "path", store.Path(), "err", err)
		}
	}

	report.Op = "remove"
	r.sink().Finish(report)
	return report, nil
}

// removals expands the candidate directories with the orphaned
// dependencies of every removed main package.
func (r *Runner) removals(snap *manifest.Manifest, candidates []string, installed, required map[string]bool) []removal {
	removedRepos := make(map[string]bool)
	byName := make(map[string]removal)
	for _, name := range candidates {
		t := removal{Name: name}
		if e := snap.FindByName(name); e != nil {
			t.Repo = e.Repo
			removedRepos[e.Repo] = true
		}
		byName[name] = t
	}

	var remaining []manifest.Entry
	for _, e := range snap.Entries {
		if !removedRepos[e.Repo] {
			remaining = append(remaining, e)
		}
	}

	for _, name := range candidates {
		e := snap.FindByName(name)
		if e == nil {
			continue
		}
		for _, orphan := range plan.ComputeOrphans(e.Repo, e.Dependencies, remaining, r.SelfRepo) {
			if required[orphan] {
				continue
			}
			dep := removal{Name: (&spec.PackageSpec{Repo: orphan}).Name(), Repo: orphan}
			if !installed[dep.Name] {
				continue
			}
			if cur, ok := byName[dep.Name]; !ok || cur.Repo == "" {
				byName[dep.Name] = dep
			}
		}
	}

	out := make([]removal, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
