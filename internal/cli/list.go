package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plugtower/pkg/manifest"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show installed packages recorded in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			m, err := manifest.Load(cfg.Manifest)
			if err != nil {
				loggerFromContext(cmd.Context()).Warn("manifest unreadable", "err", err)
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}
			writeManifest(os.Stdout, m, cfg.Manifest, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	return cmd
}

// writeManifest renders the manifest as a table followed by its totals.
func writeManifest(w io.Writer, m *manifest.Manifest, path string, now time.Time) {
	if len(m.Entries) == 0 {
		fprintInfo(w, "No packages installed")
		fprintDetail(w, "Manifest: %s", path)
		return
	}

	rows := make([][]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		deps := "—"
		if len(e.Dependencies) > 0 {
			deps = strings.Join(e.Dependencies, ", ")
		}
		rows = append(rows, []string{e.Name, e.Repo, entryRef(e), deps})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Repository", "Ref", "Dependencies").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorGreen)
			case col == 3:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
	fprintKeyValue(w, "Total", fmt.Sprint(m.Total))
	fprintKeyValue(w, "Updated", relativeTime(m.UpdatedAt, now))
	fprintKeyValue(w, "Integrity", shortHash(m.Integrity))
	fprintFile(w, path)
}

// entryRef renders the ref a package is pinned to.
func entryRef(e manifest.Entry) string {
	switch {
	case e.Tag != "":
		return "tag " + e.Tag
	case e.Branch != "":
		return e.Branch
	}
	return "—"
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	if h == "" {
		return "—"
	}
	return h
}

// relativeTime formats t relative to now.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
