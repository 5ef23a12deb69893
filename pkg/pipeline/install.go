package pipeline

import (
	"context"

	"github.com/matzehuels/plugtower/pkg/manifest"
	"github.com/matzehuels/plugtower/pkg/plan"
	"github.com/matzehuels/plugtower/pkg/resolve"
	"github.com/matzehuels/plugtower/pkg/scheduler"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// Install clones every resolved package that is not on disk yet.
//
// Main packages that are already on disk but missing from the manifest are
// recorded without running a task.
func (r *Runner) Install(run *scheduler.Run, specs []spec.PackageSpec) (scheduler.Report, error) {
	set, installed, store, err := r.begin(specs)
	if err != nil {
		return scheduler.Report{Op: "install"}, err
	}
	defer store.Close()

	r.adopt(set, installed, store)

	p := plan.Install(set, installed, r.SelfRepo)
	deps, mains := r.selected(p.Dependencies), r.selected(p.Mains)
	r.logger().Info("installing", "run", run.ID, "dependencies", len(deps), "packages", len(mains))

	report := r.conflicts(set)
	report.Merge(r.batches(run, "install", set, deps, mains, func(ctx context.Context, t plan.Task) (string, error) {
		r.logger().Debug("cloning", "repo", t.Spec.Repo, "branch", t.Spec.EffectiveBranch(), "tag", t.Spec.Tag)
		if err := r.install(ctx, t.Spec); err != nil {
			return "", r.failure(err)
		}
		r.recordSuccess(set, store, t.Spec)
		return "installed", nil
	}))
	report.Op = "install"
	r.sink().Finish(report)
	return report, nil
}

// adopt records main packages that are present on disk but absent from the
// manifest.
func (r *Runner) adopt(set *resolve.Set, installed map[string]bool, store *manifest.Store) {
	snap := store.Snapshot()
	excluded := plan.Excluded(set, r.SelfRepo)
	for _, m := range set.Mains {
		if excluded[m.Repo] || !installed[m.Name()] || snap.Find(m.Repo) != nil {
			continue
		}
		r.logger().Debug("recording existing package", "repo", m.Repo)
		r.recordSuccess(set, store, m)
	}
}
