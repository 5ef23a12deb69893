// Package resolve turns declared package specs into a deduplicated
// dependency set.
//
// [Resolve] seeds one node per declared (main) package, then adds an edge
// for every dependency a main package names. A dependency that names
// another declared package reuses that declaration; anything else becomes a
// synthesized dependency node with no branch or tag, so it is installed from
// the remote's default branch.
//
// Only declared packages carry dependencies, so a cycle can only run through
// main packages. Any cycle in the finished graph fails the whole run with
// CYCLE_DETECTED.
package resolve

import (
	"slices"
	"sort"
	"strings"

	"github.com/matzehuels/plugtower/pkg/dag"
	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// Set is the result of a resolution run. Every normalized repository
// appears at most once across Mains and Dependencies.
type Set struct {
	Mains        []*spec.PackageSpec // Declared packages, in declaration order
	Dependencies []*spec.PackageSpec // Synthesized packages, in discovery order

	// RequiredBy maps every repository reachable from a main package to the
	// sorted main repositories that reach it, directly or transitively.
	RequiredBy map[string][]string

	// Graph holds one node per package and one edge per "depends on".
	Graph *dag.DAG

	byRepo map[string]*spec.PackageSpec
}

// Lookup returns the effective spec for a normalized repository.
func (s *Set) Lookup(repo string) (*spec.PackageSpec, bool) {
	p, ok := s.byRepo[spec.NormalizeRepo(repo)]
	return p, ok
}

// All returns dependency packages followed by main packages.
func (s *Set) All() []*spec.PackageSpec {
	out := make([]*spec.PackageSpec, 0, len(s.Mains)+len(s.Dependencies))
	out = append(out, s.Dependencies...)
	return append(out, s.Mains...)
}

// DependenciesOf returns the direct dependencies of repo.
func (s *Set) DependenciesOf(repo string) []string {
	return slices.Clone(s.Graph.Children(spec.NormalizeRepo(repo)))
}

// Required returns every repository the current specs need: all mains and
// everything they reach.
func (s *Set) Required() map[string]bool {
	req := make(map[string]bool, len(s.byRepo))
	for repo := range s.byRepo {
		req[repo] = true
	}
	return req
}

// IsMain reports whether repo was declared directly.
func (s *Set) IsMain(repo string) bool {
	p, ok := s.Lookup(repo)
	return ok && p.IsMain
}

// Resolve builds the dependency set for specs. Specs with an empty repo are
// ignored. Duplicate declarations are silently dropped; the first one wins.
func Resolve(specs []spec.PackageSpec) (*Set, error) {
	set := &Set{
		RequiredBy: make(map[string][]string),
		Graph:      dag.New(nil),
		byRepo:     make(map[string]*spec.PackageSpec),
	}

	for i := range specs {
		repo := spec.NormalizeRepo(specs[i].Repo)
		if repo == "" {
			continue
		}
		if _, seen := set.byRepo[repo]; seen {
			continue
		}
		p := specs[i].Clone()
		p.Repo = repo
		p.IsMain = true
		set.byRepo[repo] = p
		set.Mains = append(set.Mains, p)
		_ = set.Graph.AddNode(dag.Node{ID: repo, Kind: dag.NodeKindMain})
	}

	for _, m := range set.Mains {
		for _, raw := range m.DependsOn {
			dep := spec.NormalizeRepo(raw)
			if dep == "" {
				continue
			}
			if _, ok := set.byRepo[dep]; !ok {
				child := &spec.PackageSpec{Repo: dep}
				set.byRepo[dep] = child
				set.Dependencies = append(set.Dependencies, child)
				_ = set.Graph.AddNode(dag.Node{ID: dep, Kind: dag.NodeKindDependency})
			}
			_ = set.Graph.AddEdge(dag.Edge{From: m.Repo, To: dep})
		}
	}

	if cycle := set.Graph.FindCycle(); cycle != nil {
		return nil, perrors.New(perrors.ErrCodeCycleDetected,
			"dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	computeRequiredBy(set)
	return set, nil
}

func computeRequiredBy(set *Set) {
	for _, m := range set.Mains {
		for _, dep := range set.Graph.Descendants(m.Repo) {
			set.RequiredBy[dep] = append(set.RequiredBy[dep], m.Repo)
		}
	}
	for dep, mains := range set.RequiredBy {
		sort.Strings(mains)
		if n, ok := set.Graph.Node(dep); ok {
			n.Meta["required_by"] = mains
		}
	}
}
