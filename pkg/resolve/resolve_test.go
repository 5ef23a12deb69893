package resolve

import (
	"slices"
	"strings"
	"testing"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/spec"
)

func repos(specs []*spec.PackageSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Repo
	}
	return out
}

func TestResolveDedupDependencies(t *testing.T) {
	set, err := Resolve([]spec.PackageSpec{
		{Repo: "a/x", DependsOn: []string{"b/y"}},
		{Repo: "c/z", DependsOn: []string{"https://github.com/b/y.git"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := repos(set.Dependencies); !slices.Equal(got, []string{"b/y"}) {
		t.Errorf("Dependencies = %v, want [b/y]", got)
	}
	if got := set.RequiredBy["b/y"]; !slices.Equal(got, []string{"a/x", "c/z"}) {
		t.Errorf("RequiredBy[b/y] = %v", got)
	}
	dep, ok := set.Lookup("b/y")
	if !ok || dep.IsMain || dep.Branch != "" || dep.Tag != "" {
		t.Errorf("synthesized dependency = %+v", dep)
	}
}

func TestResolveFirstDeclarationWins(t *testing.T) {
	set, err := Resolve([]spec.PackageSpec{
		{Repo: "a/x", Tag: "v1"},
		{Repo: "git@github.com:a/x.git", Tag: "v2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Mains) != 1 || set.Mains[0].Tag != "v1" {
		t.Errorf("Mains = %+v", set.Mains)
	}
}

func TestResolveMainPrecedence(t *testing.T) {
	set, err := Resolve([]spec.PackageSpec{
		{Repo: "c/z", DependsOn: []string{"a/x"}},
		{Repo: "a/x", Branch: "dev", DependsOn: []string{"d/w"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := repos(set.Mains); !slices.Equal(got, []string{"c/z", "a/x"}) {
		t.Errorf("Mains = %v", got)
	}
	if got := repos(set.Dependencies); !slices.Equal(got, []string{"d/w"}) {
		t.Errorf("Dependencies = %v", got)
	}
	if !set.IsMain("a/x") {
		t.Error("a/x should stay main")
	}
	p, _ := set.Lookup("a/x")
	if p.Branch != "dev" {
		t.Errorf("a/x branch = %q, want main spec fields", p.Branch)
	}
	// d/w is reached from c/z through a/x
	if got := set.RequiredBy["d/w"]; !slices.Equal(got, []string{"a/x", "c/z"}) {
		t.Errorf("RequiredBy[d/w] = %v", got)
	}
	if got := set.DependenciesOf("c/z"); !slices.Equal(got, []string{"a/x"}) {
		t.Errorf("DependenciesOf(c/z) = %v", got)
	}
}

func TestResolveAllOrdersDependenciesFirst(t *testing.T) {
	set, err := Resolve([]spec.PackageSpec{{Repo: "a/x", DependsOn: []string{"b/y"}}})
	if err != nil {
		t.Fatal(err)
	}
	if got := repos(set.All()); !slices.Equal(got, []string{"b/y", "a/x"}) {
		t.Errorf("All() = %v", got)
	}
	req := set.Required()
	if !req["a/x"] || !req["b/y"] || len(req) != 2 {
		t.Errorf("Required() = %v", req)
	}
}

func TestResolveCycle(t *testing.T) {
	tests := []struct {
		name  string
		specs []spec.PackageSpec
		path  string
	}{
		{
			name: "two mains",
			specs: []spec.PackageSpec{
				{Repo: "a/x", DependsOn: []string{"b/y"}},
				{Repo: "b/y", DependsOn: []string{"a/x"}},
			},
			path: "a/x -> b/y -> a/x",
		},
		{
			name:  "self",
			specs: []spec.PackageSpec{{Repo: "a/x", DependsOn: []string{"a/x"}}},
			path:  "a/x -> a/x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.specs)
			if !perrors.Is(err, perrors.ErrCodeCycleDetected) {
				t.Fatalf("err = %v, want CYCLE_DETECTED", err)
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("err = %v, want path %q", err, tt.path)
			}
			if !perrors.IsFatal(err) {
				t.Error("cycle should be fatal")
			}
		})
	}
}

func TestResolveDiamondIsNotCycle(t *testing.T) {
	_, err := Resolve([]spec.PackageSpec{
		{Repo: "a/x", DependsOn: []string{"b/y", "c/z"}},
		{Repo: "b/y", DependsOn: []string{"d/w"}},
		{Repo: "c/z", DependsOn: []string{"d/w"}},
	})
	if err != nil {
		t.Fatalf("diamond: %v", err)
	}
}

func TestResolveSkipsEmptyRepo(t *testing.T) {
	set, err := Resolve([]spec.PackageSpec{{Repo: "  "}, {Repo: "a/x"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Mains) != 1 {
		t.Errorf("Mains = %v", repos(set.Mains))
	}
}
