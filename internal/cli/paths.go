package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plugtower/pkg/config"
)

// pathsCommand creates the paths command.
func (c *CLI) pathsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the config, spec, install and manifest locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			writePaths(os.Stdout, c.configFile(), cfg)
			return nil
		},
	}
}

// configFile returns the config path in effect.
func (c *CLI) configFile() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.DefaultPath()
}

func writePaths(w io.Writer, configFile string, cfg config.Config) {
	fprintKeyValue(w, "Config", configFile)
	fprintKeyValue(w, "Specs", cfg.Specs)
	fprintKeyValue(w, "Root", cfg.Root)
	fprintKeyValue(w, "Manifest", cfg.Manifest)
}
