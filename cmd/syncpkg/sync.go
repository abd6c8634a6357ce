// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nykaa/sync-packages/internal/build"
	"github.com/nykaa/sync-packages/internal/config"
	"github.com/nykaa/sync-packages/internal/console"
	"github.com/nykaa/sync-packages/internal/issue"
	"github.com/nykaa/sync-packages/internal/layout"
	"github.com/nykaa/sync-packages/internal/syncer"
	"github.com/nykaa/sync-packages/internal/tui"
	"github.com/nykaa/sync-packages/internal/vcs"

	"github.com/charmbracelet/log"
)

// interruptedExitCode is the conventional exit status after Ctrl-C.
const interruptedExitCode = 130

// runSync loads configuration, wires the collaborators chosen by flags and
// config, and runs one sync. Partial failures, cancelled prompts and a
// declined build confirmation all exit 0.
func runSync(ctx context.Context, app *App, rf *rootFlags, sf *syncFlags, source string) error {
	cfg, err := loadConfig(ctx, app, rf)
	if err != nil {
		return err
	}

	verbose := rf.verbose || cfg.UI.Verbose
	logger := console.New(app.stdout, verbose)
	if cfg.FromFile() {
		logger.Debug("Configuration loaded", "file", cfg.Path)
	}

	if source == "" {
		source = cfg.Source
	}

	catalog, err := layout.CatalogFromConfig(cfg.Destinations)
	if err != nil {
		return reportFailure(app.stderr, err, verbose)
	}

	opts := syncer.Options{
		Source:      source,
		PackagesDir: cfg.PackagesDir,
		Namespace:   cfg.Namespace.String(),
		ModulesDir:  cfg.ModulesDir,
		BuildScript: cfg.Build.Script,
		Packages:    cfg.Packages,
		Exclude:     cfg.Copy.Exclude,
		Ignore:      cfg.Copy.Ignore,
		DryRun:      sf.dryRun,
		Catalog:     catalog,
		FS:          app.FS,
		Logger:      logger,
		Out:         app.stdout,
	}
	if len(sf.packages) > 0 {
		opts.Packages = sf.packages
	}
	app.wireCollaborators(&opts, cfg.Config, sf, logger)

	s, err := syncer.New(opts)
	if err != nil {
		return reportFailure(app.stderr, err, verbose)
	}

	report, err := s.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(app.stderr, WarningStyle.Render("Sync interrupted"))
			return &ExitError{Code: interruptedExitCode}
		}
		return reportFailure(app.stderr, err, verbose)
	}

	renderReport(app.stdout, app.stderr, report, verbose)
	return nil
}

// wireCollaborators fills the stage, build and prompt collaborators of opts.
// App overrides win; otherwise flags and config decide.
func (a *App) wireCollaborators(opts *syncer.Options, cfg *config.Config, sf *syncFlags, logger *log.Logger) {
	prompts := tui.DefaultConfig()
	prompts.Theme = cfg.UI.Theme
	if cfg.UI.Accessible {
		prompts.Accessible = true
	}
	if prompts.Accessible {
		prompts.Output = a.stderr
	}

	if cfg.Stage.Enabled && !sf.skipStage {
		opts.Stager = a.Stager
		if opts.Stager == nil {
			opts.Stager = vcs.NewGitStager()
		}
	}

	if cfg.Build.Enabled && !sf.skipBuild {
		opts.Builder = a.Builder
		if opts.Builder == nil {
			opts.Builder = build.New(cfg.Build.Steps, logger)
		}
	}

	switch {
	case a.Selector != nil:
		opts.Selector = a.Selector
	case len(sf.dests) > 0:
		opts.Selector = &tui.StaticSelector{Names: sf.dests}
	default:
		opts.Selector = tui.NewDestinationSelector(prompts)
	}

	switch {
	case a.Confirmer != nil:
		opts.Confirmer = a.Confirmer
	case sf.yes:
		opts.Confirmer = tui.StaticConfirmer{Answer: true}
	default:
		opts.Confirmer = tui.NewBuildConfirmer(prompts)
	}
}

// loadConfig loads the configuration, reporting a failure on stderr.
func loadConfig(ctx context.Context, app *App, rf *rootFlags) (*config.Loaded, error) {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rf.configPath})
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, rf.verbose))
		renderIssue(app.stderr, issue.ConfigLoadFailedId)
		return nil, &ExitError{Code: 1}
	}
	return cfg, nil
}

// reportFailure prints a fatal error with its catalog entry, if any, and
// returns the ExitError that ends the process with status 1.
func reportFailure(w io.Writer, err error, verbose bool) error {
	fmt.Fprintln(w, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, verbose))
	if id, ok := issueFor(err); ok {
		renderIssue(w, id)
	}
	return &ExitError{Code: 1}
}

// issueFor maps fatal errors to issue catalog entries.
func issueFor(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, syncer.ErrSourceNotFound):
		return issue.SourceNotFoundId, true
	case errors.Is(err, syncer.ErrPackagesNotFound):
		return issue.PackagesDirNotFoundId, true
	case errors.Is(err, layout.ErrUnknownDestination):
		return issue.UnknownDestinationId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	default:
		return 0, false
	}
}
