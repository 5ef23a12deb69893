// Package dag provides the directed graph that backs dependency resolution.
//
// # Overview
//
// Every resolved package becomes a node; an edge From→To means "From depends
// on To". Nodes carry a [NodeKind] telling main packages (declared by the
// user) apart from dependency packages (pulled in only because something
// else needs them).
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "a/app", Kind: dag.NodeKindMain})
//	g.AddNode(dag.Node{ID: "b/lib", Kind: dag.NodeKindDependency})
//	g.AddEdge(dag.Edge{From: "a/app", To: "b/lib"})
//
// Query the graph with [DAG.Children], [DAG.Parents] and [DAG.Descendants].
// [DAG.FindCycle] reports the first dependency loop it finds,
// [DAG.TopologicalOrder] lists nodes with dependencies before dependents and
// [DAG.Layers] groups them into batches that can run side by side.
//
// # Rendering
//
// [ToDOT] produces a Graphviz document and [RenderSVG] renders it in-process
// through github.com/goccy/go-graphviz.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Resolution builds the graph
// on a single goroutine and hands it out read-only afterwards.
package dag
