package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plugtower/pkg/dag"
	plugio "github.com/matzehuels/plugtower/pkg/io"
)

// Graph output formats.
const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatJSON = "json"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the resolved dependency graph",
		Long: `Graph resolves the declared packages and writes their dependency graph.

Formats:
  dot   Graphviz source (default)
  svg   Rendered with the embedded Graphviz
  json  Nodes and edges`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			specs, err := c.loadSpecs(cfg)
			if err != nil {
				return err
			}
			g, err := c.newRunner(cfg).Graph(specs)
			if err != nil {
				return err
			}

			if format == formatJSON && output != "" {
				if err := plugio.ExportJSON(g, output); err != nil {
					return err
				}
				writeSummary(os.Stdout, output, g)
				return nil
			}

			var buf bytes.Buffer
			switch format {
			case formatDOT:
				buf.WriteString(dag.ToDOT(g))
			case formatJSON:
				if err := plugio.WriteJSON(g, &buf); err != nil {
					return err
				}
			case formatSVG:
				spinner := newSpinnerWithContext(cmd.Context(), os.Stderr, "Rendering SVG...")
				spinner.Start()
				svg, err := dag.RenderSVG(cmd.Context(), g)
				spinner.Stop()
				if err != nil {
					return fmt.Errorf("render svg: %w", err)
				}
				buf.Write(svg)
			default:
				return fmt.Errorf("unknown format %q (want dot, svg or json)", format)
			}

			return writeOutput(os.Stdout, output, buf.Bytes(), g)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, data []byte, g *dag.DAG) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	writeSummary(stdout, path, g)
	return nil
}

// writeSummary reports a graph written to path.
func writeSummary(w io.Writer, path string, g *dag.DAG) {
	fprintSuccess(w, "Graph with %d packages and %d edges", g.NodeCount(), g.EdgeCount())
	fprintFile(w, path)
}
