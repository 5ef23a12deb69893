package dag_test

import (
	"fmt"

	"github.com/matzehuels/plugtower/pkg/dag"
)

func ExampleDAG_basic() {
	// app depends on lib, lib depends on core
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "acme/app", Kind: dag.NodeKindMain})
	_ = g.AddNode(dag.Node{ID: "acme/lib", Kind: dag.NodeKindDependency})
	_ = g.AddNode(dag.Node{ID: "acme/core", Kind: dag.NodeKindDependency})
	_ = g.AddEdge(dag.Edge{From: "acme/app", To: "acme/lib"})
	_ = g.AddEdge(dag.Edge{From: "acme/lib", To: "acme/core"})

	order, _ := g.TopologicalOrder()
	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Order:", order)
	// Output:
	// Nodes: 3
	// Edges: 2
	// Order: [acme/core acme/lib acme/app]
}

func ExampleDAG_FindCycle() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a/x"})
	_ = g.AddNode(dag.Node{ID: "b/y"})
	_ = g.AddEdge(dag.Edge{From: "a/x", To: "b/y"})
	_ = g.AddEdge(dag.Edge{From: "b/y", To: "a/x"})

	fmt.Println(g.FindCycle())
	// Output:
	// [a/x b/y a/x]
}

func ExampleDAG_Layers() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "acme/app"})
	_ = g.AddNode(dag.Node{ID: "acme/cli"})
	_ = g.AddNode(dag.Node{ID: "acme/lib", Kind: dag.NodeKindDependency})
	_ = g.AddEdge(dag.Edge{From: "acme/app", To: "acme/lib"})
	_ = g.AddEdge(dag.Edge{From: "acme/cli", To: "acme/app"})

	layers, _ := g.Layers()
	fmt.Println("Layers:", layers)
	fmt.Println("Parents of lib:", g.Parents("acme/lib"))
	// Output:
	// Layers: [[acme/lib] [acme/app] [acme/cli]]
	// Parents of lib: [acme/app]
}
