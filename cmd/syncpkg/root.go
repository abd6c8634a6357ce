// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the sync-packages command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nykaa/sync-packages/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// rootFlags are the persistent flags shared by every subcommand.
	rootFlags struct {
		configPath string
		verbose    bool
	}

	// syncFlags are the flags of the sync run itself.
	syncFlags struct {
		dests     []string
		packages  []string
		skipStage bool
		skipBuild bool
		yes       bool
		dryRun    bool
	}
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rf := &rootFlags{}
	sf := &syncFlags{}

	rootCmd := &cobra.Command{
		Use:   "sync-packages [source-path]",
		Short: "Sync monorepo packages into consuming repositories",
		Long: TitleStyle.Render("sync-packages") + SubtitleStyle.Render(" - Sync monorepo packages into consuming repositories") + `

sync-packages stages and builds the source monorepo, then copies every
package under <source>/packages into the node_modules/@nykaa directory of
each selected destination repository.

` + SubtitleStyle.Render("Examples:") + `
  sync-packages                          Sync from the configured source
  sync-packages ~/code/fe-core           Sync from an explicit source
  sync-packages -d nykaa_web_reloaded    Skip the prompt and sync one destination
  sync-packages --skip-build --dry-run   Show what would be copied
  sync-packages destinations             List the destination catalog`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) > 0 {
				source = args[0]
			}
			return runSync(cmd.Context(), app, rf, sf, source)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&rf.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rf.configPath, "config", "", "config file (default is $HOME/.config/sync-packages/config.cue)")

	rootCmd.Flags().StringArrayVarP(&sf.dests, "dest", "d", nil, "destination to sync to, skipping the prompt (repeatable)")
	rootCmd.Flags().StringSliceVar(&sf.packages, "packages", nil, "only sync these package folders")
	rootCmd.Flags().BoolVar(&sf.skipStage, "skip-stage", false, "do not stage changes in the source repository")
	rootCmd.Flags().BoolVar(&sf.skipBuild, "skip-build", false, "do not build the source repository")
	rootCmd.Flags().BoolVarP(&sf.yes, "yes", "y", false, "continue without asking when the build fails")
	rootCmd.Flags().BoolVar(&sf.dryRun, "dry-run", false, "log planned copies without touching destinations")

	rootCmd.AddCommand(newConfigCommand(app, rf))
	rootCmd.AddCommand(newDestinationsCommand(app, rf))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the App and runs the root command. It is called by main.main.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleError prints errors fang would print, except ExitErrors whose cause
// was already reported by the command.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors carry their suggestions, and the cause chain in verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
