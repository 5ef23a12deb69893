package dag

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT returns a Graphviz DOT representation of the graph.
//
// Main packages are drawn as bold rounded boxes, dependencies as plain
// rounded boxes. Edges point from a package to what it depends on. Node
// order follows insertion order, so the output is stable for a given graph.
func ToDOT(d *DAG) string {
	var buf bytes.Buffer
	buf.WriteString("digraph packages {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, shape=box, style=\"filled,rounded\", fillcolor=white];\n\n")

	for _, n := range d.Nodes() {
		if n.IsMain() {
			fmt.Fprintf(&buf, "  %q [penwidth=2];\n", n.ID)
		} else {
			fmt.Fprintf(&buf, "  %q [color=gray40];\n", n.ID)
		}
	}
	if d.EdgeCount() > 0 {
		buf.WriteString("\n")
	}
	for _, e := range d.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the graph as an SVG document through Graphviz.
//
// Errors are returned if Graphviz cannot initialize, the DOT is malformed,
// or rendering fails.
func RenderSVG(ctx context.Context, d *DAG) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(ToDOT(d)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
