// Package cli implements the plugtower command-line interface.
package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plugtower/pkg/buildinfo"
	"github.com/matzehuels/plugtower/pkg/config"
	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/pipeline"
	"github.com/matzehuels/plugtower/pkg/spec"
	"github.com/matzehuels/plugtower/pkg/vcs"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "plugtower"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	root        string
	manifest    string
	specs       string
	concurrency int
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the run, task and
// manifest hooks log through the same logger.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerDebugHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Plugtower installs and updates git-hosted plugins",
		Long:         `Plugtower installs, updates and removes packages hosted in git repositories, resolving their declared dependencies and recording the result in a manifest.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&c.root, "root", "", "directory packages are installed into")
	flags.StringVar(&c.manifest, "manifest", "", "manifest file")
	flags.StringVar(&c.specs, "specs", "", "spec file or directory")
	flags.IntVarP(&c.concurrency, "concurrency", "j", 0, "maximum parallel git operations")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.pathsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configFile())
	if err != nil {
		return cfg, err
	}

	if c.root != "" {
		cfg.Root = c.root
	}
	if c.manifest != "" {
		cfg.Manifest = c.manifest
	}
	if c.specs != "" {
		cfg.Specs = c.specs
	}
	if c.concurrency != 0 {
		cfg.Concurrency = c.concurrency
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "flags")
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for the given settings.
func (c *CLI) newRunner(cfg config.Config) *pipeline.Runner {
	r := pipeline.NewRunner(cfg.Root, cfg.Manifest, c.Logger)
	r.SelfRepo = cfg.SelfRepo
	r.BaseURL = cfg.BaseURL
	r.Concurrency = cfg.Concurrency
	r.MessageLimit = cfg.MessageLimit
	r.CheckRetries = cfg.CheckRetries
	r.Git = vcs.New(nil, cfg.MessageLimit)
	return r
}

// loadSpecs reads the declared packages. Entries that could not be parsed
// are logged and skipped.
func (c *CLI) loadSpecs(cfg config.Config) ([]spec.PackageSpec, error) {
	specs, warnings, err := spec.LoadPath(cfg.Specs)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeSpecParse, err, "load specs")
	}
	for _, w := range warnings {
		c.Logger.Warn("spec skipped", "err", w)
	}
	c.Logger.Debug("loaded specs", "path", cfg.Specs, "packages", len(specs))
	return specs, nil
}

// parseOnly turns a comma-separated --only value into the runner's target
// filter. Both the raw value and its normalized repository form are kept so
// that directory names (remove) and repositories (install, update) match.
func parseOnly(s string) map[string]bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	only := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		only[part] = true
		only[spec.NormalizeRepo(part)] = true
	}
	return only
}
