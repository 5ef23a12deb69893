package dag

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func build(t *testing.T, ids []string, edges [][2]string) *DAG {
	t.Helper()
	g := New(nil)
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: got %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate: got %v, want ErrDuplicateNodeID", err)
	}
	n, _ := g.Node("a")
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := build(t, []string{"a"}, nil)
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("got %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("got %v, want ErrUnknownTargetNode", err)
	}
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestFindCycle(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  []string
	}{
		{"acyclic", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}}, nil},
		{"self loop", []string{"a"}, [][2]string{{"a", "a"}}, []string{"a", "a"}},
		{"two nodes", []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}}, []string{"a", "b", "a"}},
		{"tail before loop", []string{"r", "a", "b", "c"}, [][2]string{{"r", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}}, []string{"a", "b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			got := g.FindCycle()
			if !slices.Equal(got, tt.want) {
				t.Errorf("FindCycle() = %v, want %v", got, tt.want)
			}
			_, err := g.Layers()
			if (tt.want != nil) != errors.Is(err, ErrGraphHasCycle) {
				t.Errorf("Layers() = %v", err)
			}
		})
	}
}

func TestTopologicalOrder(t *testing.T) {
	g := build(t, []string{"app", "cli", "lib", "core"},
		[][2]string{{"app", "lib"}, {"cli", "lib"}, {"lib", "core"}, {"cli", "core"}})
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		if pos[e.To] > pos[e.From] {
			t.Errorf("%s listed after its dependent %s: %v", e.To, e.From, order)
		}
	}

	cyclic := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	if _, err := cyclic.TopologicalOrder(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("cyclic: got %v, want ErrGraphHasCycle", err)
	}
}

func TestLayers(t *testing.T) {
	g := build(t, []string{"app", "cli", "lib", "core", "tool"},
		[][2]string{{"app", "lib"}, {"cli", "app"}, {"lib", "core"}, {"cli", "core"}})
	layers, err := g.Layers()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"core", "tool"}, {"lib"}, {"app"}, {"cli"}}
	if !slices.EqualFunc(layers, want, func(a, b []string) bool { return slices.Equal(a, b) }) {
		t.Errorf("Layers() = %v, want %v", layers, want)
	}

	empty, err := New(nil).Layers()
	if err != nil || len(empty) != 0 {
		t.Errorf("empty graph: Layers() = %v, %v", empty, err)
	}
}

func TestDescendants(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "c"}, {"c", "b"}, {"d", "a"}})
	if got := g.Descendants("a"); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Descendants(a) = %v", got)
	}
	if got := g.Descendants("b"); len(got) != 0 {
		t.Errorf("Descendants(b) = %v, want empty", got)
	}
}

func TestToDOT(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "acme/app", Kind: NodeKindMain})
	_ = g.AddNode(Node{ID: "acme/lib", Kind: NodeKindDependency})
	_ = g.AddEdge(Edge{From: "acme/app", To: "acme/lib"})

	dot := ToDOT(g)
	if !strings.HasPrefix(dot, "digraph packages {") {
		t.Error("ToDOT() should start with 'digraph packages {'")
	}
	for _, want := range []string{
		`"acme/app" [penwidth=2];`,
		`"acme/lib" [color=gray40];`,
		`"acme/app" -> "acme/lib";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
}

func TestNodeKindString(t *testing.T) {
	if NodeKindMain.String() != "main" || NodeKindDependency.String() != "dependency" {
		t.Error("unexpected NodeKind strings")
	}
}
