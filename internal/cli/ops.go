package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/pipeline"
	"github.com/matzehuels/plugtower/pkg/scheduler"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// opFunc is one of the runner's operations.
type opFunc func(r *pipeline.Runner, run *scheduler.Run, specs []spec.PackageSpec) (scheduler.Report, error)

// opFlags holds the flags shared by install, update and remove.
type opFlags struct {
	tui  bool
	only string
}

func (f *opFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.tui, "tui", false, "show an interactive progress view")
	cmd.Flags().StringVar(&f.only, "only", "", "comma-separated packages to restrict the run to")
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var flags opFlags
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install declared packages and their dependencies",
		Long: `Install clones every declared package and every package it depends on.

Dependencies are installed first; declared packages start only after the
last dependency task has finished. A declared package that depends on another
declared package waits for it as well. Packages already on disk are left
alone. When two packages share a directory name, the first one declared wins
and the other is reported as failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOperation(cmd.Context(), "install", flags, (*pipeline.Runner).Install)
		},
	}
	flags.register(cmd)
	return cmd
}

// updateCommand creates the update command.
func (c *CLI) updateCommand() *cobra.Command {
	var flags opFlags
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update installed packages",
		Long: `Update checks every package against its spec and its upstream, then syncs,
re-checks out or re-clones the packages that need it.

A package needs an update when its tag or branch changed, when its directory
is missing, or when its branch is behind upstream. Pinned tags that did not
change are never fetched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOperation(cmd.Context(), "update", flags, (*pipeline.Runner).Update)
		},
	}
	flags.register(cmd)
	return cmd
}

// removeCommand creates the remove command.
func (c *CLI) removeCommand() *cobra.Command {
	var flags opFlags
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove packages that are no longer declared",
		Long: `Remove deletes installed packages that the specs no longer require, together
with dependencies that no remaining package references.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOperation(cmd.Context(), "remove", flags, (*pipeline.Runner).Remove)
		},
	}
	flags.register(cmd)
	return cmd
}

// runOperation loads config and specs, runs op and prints the report. It
// returns an error when any task failed or the run was aborted.
func (c *CLI) runOperation(ctx context.Context, name string, flags opFlags, op opFunc) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	specs, err := c.loadSpecs(cfg)
	if err != nil {
		return err
	}

	runner := c.newRunner(cfg)
	runner.Logger = logger
	runner.Only = parseOnly(flags.only)

	run := scheduler.NewRun(ctx)
	defer run.Close()

	prog := newProgress(logger)
	var report scheduler.Report
	if flags.tui {
		// The view owns the terminal while it runs.
		runner.Logger = newLogger(io.Discard, logger.GetLevel())
		report, err = runTUI(ctx, os.Stderr, name, run, func(sink scheduler.Sink) (scheduler.Report, error) {
			runner.Sink = sink
			return op(runner, run, specs)
		})
	} else {
		spinner := newSpinnerWithContext(ctx, os.Stderr, name)
		spinner.Start()
		runner.Sink = newLineSink(name, os.Stdout, spinner)
		report, err = op(runner, run, specs)
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(name + " finished")

	writeReport(os.Stdout, report)

	switch {
	case report.Aborted:
		return perrors.Wrap(perrors.ErrCodeAborted, context.Canceled, "%s aborted", name)
	case report.Failed():
		return perrors.New(perrors.ErrCodeProcessFailure, "%d of %d packages failed", len(report.Failures), report.Total)
	}
	return nil
}
