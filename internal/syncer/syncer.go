// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nykaa/sync-packages/internal/console"
	"github.com/nykaa/sync-packages/internal/issue"
	"github.com/nykaa/sync-packages/internal/layout"
	"github.com/nykaa/sync-packages/internal/packages"
	"github.com/nykaa/sync-packages/internal/treecopy"
	"github.com/nykaa/sync-packages/internal/tui"
	"github.com/nykaa/sync-packages/internal/vcs"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// DefaultBuildScript is the root manifest script that enables the build stage.
const DefaultBuildScript = "build"

var (
	// ErrSourceNotFound is returned when the source root does not exist.
	ErrSourceNotFound = errors.New("source repository not found")
	// ErrPackagesNotFound is returned when the packages directory does not exist.
	ErrPackagesNotFound = errors.New("packages directory not found")
	// ErrDestinationNotFound is recorded for every package of a destination
	// whose repository root is missing.
	ErrDestinationNotFound = errors.New("destination repository not found")
	// ErrNoCatalog is returned by New when no destination catalog is given.
	ErrNoCatalog = errors.New("no destination catalog")
)

type (
	// Stager stages pending changes in the source repository.
	Stager interface {
		StageAll(ctx context.Context, root string) (vcs.StageResult, error)
	}

	// Builder runs the source build pipeline.
	Builder interface {
		Build(ctx context.Context, root string) error
	}

	// Selector picks destinations from the catalog. An empty selection means
	// the operator chose nothing.
	Selector interface {
		Select(ctx context.Context, catalog *layout.Catalog) ([]layout.Destination, error)
	}

	// Confirmer asks whether to continue after a failed build.
	Confirmer interface {
		Confirm(ctx context.Context, reason string) (bool, error)
	}

	// Options configures a Syncer. Nil collaborators disable their stage,
	// except Selector which is required.
	Options struct {
		// Source is the monorepo root; "~" is expanded.
		Source string
		// PackagesDir is relative to Source ("packages" when empty).
		PackagesDir string
		// Namespace is the scope packages are published under ("@nykaa").
		Namespace string
		// ModulesDir is the destination dependency directory ("node_modules").
		ModulesDir string
		// BuildScript must be declared in the root manifest for the build to run.
		BuildScript string
		// Packages restricts the sync to these folders when non-empty.
		Packages []string
		// Exclude and Ignore configure the tree copier.
		Exclude []string
		Ignore  []string
		// DryRun logs planned copies without touching any destination.
		DryRun bool

		Catalog   *layout.Catalog
		FS        billy.Filesystem
		Stager    Stager
		Builder   Builder
		Selector  Selector
		Confirmer Confirmer
		Logger    *log.Logger
		// Out receives stage banners and the staged status.
		Out io.Writer
	}

	// Syncer copies the packages of one monorepo into selected destinations.
	Syncer struct {
		opts   Options
		layout layout.Layout
		copier *treecopy.Copier
		fs     billy.Filesystem
		logger *log.Logger
		out    io.Writer
	}
)

// New validates opts and fills defaults.
func New(opts Options) (*Syncer, error) {
	if opts.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if opts.Selector == nil {
		opts.Selector = tui.NewDestinationSelector(tui.DefaultConfig())
	}
	if opts.Namespace == "" {
		opts.Namespace = "@nykaa"
	}
	if opts.ModulesDir == "" {
		opts.ModulesDir = "node_modules"
	}
	if opts.BuildScript == "" {
		opts.BuildScript = DefaultBuildScript
	}

	lay, err := layout.Resolve(opts.Source, opts.PackagesDir)
	if err != nil {
		return nil, err
	}

	fs := opts.FS
	if fs == nil {
		fs = osfs.New("/")
	}
	copier := treecopy.New(fs)
	if len(opts.Exclude) > 0 {
		copier.Exclude = opts.Exclude
	}
	copier.Ignore = opts.Ignore
	if err := copier.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	return &Syncer{opts: opts, layout: lay, copier: copier, fs: fs, logger: logger, out: out}, nil
}

// Run validates the source, stages, builds, enumerates packages, asks for
// destinations and syncs each one in turn. Early endings that are not errors
// are reported through Report.Outcome.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := s.validate(); err != nil {
		return nil, err
	}

	if s.opts.Stager != nil {
		staged, stageErr, err := s.stage(ctx)
		if err != nil {
			return nil, err
		}
		report.Staged, report.StageErr = staged, stageErr
	}

	if s.opts.Builder != nil {
		proceed, buildErr, err := s.build(ctx)
		if err != nil {
			return nil, err
		}
		report.BuildErr = buildErr
		if !proceed {
			report.Outcome = Aborted
			return report, nil
		}
	}

	console.Section(s.out, 3, "Preparing to sync packages")
	pkgs, err := s.enumerate()
	if err != nil {
		return nil, err
	}
	report.Packages = pkgs
	if len(pkgs) == 0 {
		s.logger.Warn("No packages found to sync")
		report.Outcome = NoPackages
		return report, nil
	}
	s.logger.Infof("Found %d package(s)", len(pkgs))

	console.Section(s.out, 4, "Select sync destination(s)")
	dests, err := s.opts.Selector.Select(ctx, s.opts.Catalog)
	if err != nil {
		if errors.Is(err, tui.ErrCancelled) {
			s.logger.Warn("Destination selection cancelled")
			report.Outcome = NoDestination
			return report, nil
		}
		return nil, selectionError(err)
	}
	if len(dests) == 0 {
		s.logger.Warn("No destination selected. Exiting...")
		report.Outcome = NoDestination
		return report, nil
	}
	console.Success(s.logger, fmt.Sprintf("Selected %d destination(s)", len(dests)))

	console.Section(s.out, 5, "Syncing packages")
	for _, dest := range dests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.SyncDestination(ctx, dest, pkgs)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, res)
	}

	console.Banner(s.out, "Package sync completed")
	for _, res := range report.Results {
		if res.Failed == 0 {
			console.Success(s.logger, fmt.Sprintf("%s: All %d packages synced successfully", res.Destination.Name, res.Succeeded))
		} else {
			s.logger.Warnf("%s: %d succeeded, %d failed", res.Destination.Name, res.Succeeded, res.Failed)
		}
	}
	report.Outcome = Completed
	return report, nil
}

func (s *Syncer) validate() error {
	s.logger.Info("Validating source paths...")

	if !s.isDir(s.layout.Root) {
		return issue.NewErrorContext().
			WithOperation("validate source").
			WithResource(s.layout.Root).
			WithSuggestion("Pass the monorepo path as the first argument").
			WithSuggestion("Set source in config.cue or SYNC_PACKAGES_SOURCE").
			Wrap(ErrSourceNotFound).
			Build()
	}
	if !s.isDir(s.layout.PackagesDir) {
		return issue.NewErrorContext().
			WithOperation("validate source").
			WithResource(s.layout.PackagesDir).
			WithSuggestion("Check that the path points at the monorepo root").
			WithSuggestion("Set packages_dir in config.cue if packages live elsewhere").
			Wrap(ErrPackagesNotFound).
			Build()
	}

	console.Success(s.logger, "Source paths validated successfully")
	return nil
}

// stage runs the stager when the source is a git repository. Failures only
// warn and come back as stageErr; err is set when the run was interrupted.
func (s *Syncer) stage(ctx context.Context) (status string, stageErr, err error) {
	if !vcs.IsRepository(s.fs, s.layout.Root) {
		s.logger.Debug("Source is not a git repository, skipping staging", "path", s.layout.Root)
		return "", nil, nil
	}

	console.Section(s.out, 1, "Staging changes in source")
	s.logger.Info("Running git add -A...")
	res, stageErr := s.opts.Stager.StageAll(ctx, s.layout.Root)
	if stageErr != nil {
		if ctx.Err() != nil {
			return "", stageErr, ctx.Err()
		}
		s.logger.Warnf("Git staging skipped: %v", stageErr)
		return "", stageErr, nil
	}

	console.Success(s.logger, "All changes staged successfully")
	if res.Clean || res.Status == "" {
		s.logger.Info("No changes to stage")
		return "", nil, nil
	}
	s.logger.Info("Staged changes:")
	_, _ = fmt.Fprintln(s.out, res.Status)
	return res.Status, nil, nil
}

// build runs the builder when the root manifest declares the build script.
// proceed is false when the operator declined to continue after buildErr.
// err is only set when the run itself must stop.
func (s *Syncer) build(ctx context.Context) (proceed bool, buildErr, err error) {
	console.Section(s.out, 2, "Building packages")

	manifest, err := packages.ReadManifest(s.fs, s.layout.Root)
	switch {
	case err != nil:
		s.logger.Warnf("Could not read %s, skipping build step: %v", s.layout.Manifest, err)
		return true, nil, nil
	case manifest == nil:
		s.logger.Warn("No package.json found, skipping build step")
		return true, nil, nil
	case !manifest.HasScript(s.opts.BuildScript):
		s.logger.Warn("No build script found in package.json, skipping build step")
		return true, nil, nil
	}

	buildErr = s.opts.Builder.Build(ctx, s.layout.Root)
	if buildErr == nil {
		console.Success(s.logger, "Build completed successfully")
		return true, nil, nil
	}
	if ctx.Err() != nil {
		return false, buildErr, ctx.Err()
	}

	s.logger.Errorf("Build failed: %v", buildErr)
	if s.opts.Confirmer == nil {
		s.logger.Warn("Sync cancelled by user")
		return false, buildErr, nil
	}
	ok, confirmErr := s.opts.Confirmer.Confirm(ctx, buildErr.Error())
	if confirmErr != nil {
		s.logger.Debug("Confirmation ended without an answer", "err", confirmErr)
	}
	if confirmErr != nil || !ok {
		s.logger.Warn("Sync cancelled by user")
		return false, buildErr, nil
	}
	return true, buildErr, nil
}

func (s *Syncer) enumerate() ([]string, error) {
	s.logger.Info("Reading packages from source...")
	names, err := packages.List(s.fs, s.layout.PackagesDir)
	if err != nil {
		if errors.Is(err, packages.ErrNotFound) {
			return nil, issue.WrapWithContext(fmt.Errorf("%w: %w", ErrPackagesNotFound, err), "read packages", s.layout.PackagesDir)
		}
		return nil, err
	}

	kept, unknown := packages.Filter(names, s.opts.Packages)
	if len(unknown) > 0 {
		s.logger.Warnf("Ignoring unknown packages: %s", strings.Join(unknown, ", "))
	}
	return kept, nil
}

func (s *Syncer) isDir(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && info.IsDir()
}

func selectionError(err error) error {
	var unknown *layout.UnknownDestinationError
	if errors.As(err, &unknown) {
		return issue.NewErrorContext().
			WithOperation("select destinations").
			WithResource(unknown.Name).
			WithSuggestion("Known destinations: " + strings.Join(unknown.Known, ", ")).
			WithSuggestion("Run 'sync-packages destinations' to list the catalog").
			Wrap(err).
			Build()
	}
	return fmt.Errorf("failed to select destinations: %w", err)
}
