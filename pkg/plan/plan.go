// Package plan diffs a resolved dependency set against what is on disk and
// in the manifest, producing the work a run has to do.
//
// Installed packages are identified by directory name: every directory
// under the install root that holds a ".git" entry counts as installed.
// The package manager's own repository (the "self" repo) is never
// installed, updated or removed by a plan.
//
// Because the directory name is only the last segment of the repository,
// two repositories can claim the same directory. The first one claims it:
// main packages in declaration order, then dependencies in discovery order.
// [Collisions] lists the losers and no plan ever emits a task for them.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/matzehuels/plugtower/pkg/manifest"
	"github.com/matzehuels/plugtower/pkg/resolve"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// Task is one unit of install or update work.
type Task struct {
	Spec *spec.PackageSpec
}

// TargetID returns the normalized repository the task acts on.
func (t Task) TargetID() string { return t.Spec.Repo }

// InstallPlan holds install work split into two batches. Every dependency
// task must finish before any main task starts.
type InstallPlan struct {
	Dependencies []Task
	Mains        []Task
}

// Ordered returns dependency tasks followed by main tasks.
func (p InstallPlan) Ordered() []Task {
	out := make([]Task, 0, p.Len())
	out = append(out, p.Dependencies...)
	return append(out, p.Mains...)
}

// Len returns the total number of tasks.
func (p InstallPlan) Len() int { return len(p.Dependencies) + len(p.Mains) }

// Conflict is a package left out of a run because another package already
// claims its directory.
type Conflict struct {
	Repo  string // Package left out
	Name  string // Contested directory name
	Owner string // Package that keeps the directory
}

func (c Conflict) Error() string {
	return fmt.Sprintf("directory %q already used by %s", c.Name, c.Owner)
}

// Collisions returns every resolved package whose directory name is already
// claimed by an earlier package.
func Collisions(set *resolve.Set, self string) []Conflict {
	self = spec.NormalizeRepo(self)
	owner := make(map[string]string)
	var out []Conflict
	for _, group := range [][]*spec.PackageSpec{set.Mains, set.Dependencies} {
		for _, s := range group {
			if s.Repo == self {
				continue
			}
			name := s.Name()
			if o, ok := owner[name]; ok {
				out = append(out, Conflict{Repo: s.Repo, Name: name, Owner: o})
				continue
			}
			owner[name] = s.Repo
		}
	}
	return out
}

// Excluded returns the repositories no task may act on: self and every
// package that lost a directory collision.
func Excluded(set *resolve.Set, self string) map[string]bool {
	out := map[string]bool{spec.NormalizeRepo(self): true}
	for _, c := range Collisions(set, self) {
		out[c.Repo] = true
	}
	return out
}

// Installed lists the package directories present under root. A missing
// root yields an empty set.
func Installed(root string) (map[string]bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), ".git")); err == nil {
			out[e.Name()] = true
		}
	}
	return out, nil
}

// Install emits one task per resolved package that is not on disk yet.
func Install(set *resolve.Set, installed map[string]bool, self string) InstallPlan {
	excluded := Excluded(set, self)
	var p InstallPlan
	for _, s := range set.Dependencies {
		if !excluded[s.Repo] && !installed[s.Name()] {
			p.Dependencies = append(p.Dependencies, Task{Spec: s})
		}
	}
	for _, s := range set.Mains {
		if !excluded[s.Repo] && !installed[s.Name()] {
			p.Mains = append(p.Mains, Task{Spec: s})
		}
	}
	return p
}

// Removal returns the sorted directory names that are installed but no
// longer required by the current specs.
func Removal(set *resolve.Set, installed map[string]bool, self string) []string {
	required := make(map[string]bool)
	for _, s := range set.All() {
		required[s.Name()] = true
	}
	selfName := (&spec.PackageSpec{Repo: spec.NormalizeRepo(self)}).Name()

	var out []string
	for name := range installed {
		if name == selfName || required[name] {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Update returns one task per resolved package, dependencies first.
func Update(set *resolve.Set, self string) []Task {
	excluded := Excluded(set, self)
	var out []Task
	for _, s := range set.All() {
		if !excluded[s.Repo] {
			out = append(out, Task{Spec: s})
		}
	}
	return out
}

// ComputeOrphans returns the dependencies of a removed main package that no
// remaining manifest entry references any more, sorted. A dependency that is
// itself a remaining main entry is not an orphan.
func ComputeOrphans(removed string, deps []string, remaining []manifest.Entry, self string) []string {
	removed = spec.NormalizeRepo(removed)
	self = spec.NormalizeRepo(self)

	referenced := make(map[string]bool)
	for _, e := range remaining {
		if e.Repo == removed {
			continue
		}
		referenced[e.Repo] = true
		for _, d := range e.Dependencies {
			referenced[d] = true
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, d := range deps {
		d = spec.NormalizeRepo(d)
		if d == "" || d == self || d == removed || referenced[d] || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
