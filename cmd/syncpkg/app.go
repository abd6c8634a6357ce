// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/nykaa/sync-packages/internal/config"
	"github.com/nykaa/sync-packages/internal/syncer"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and builds its sync run from it.
	App struct {
		Config ConfigProvider
		FS     billy.Filesystem
		// Collaborators below override the ones chosen from flags and
		// config when set.
		Stager    syncer.Stager
		Builder   syncer.Builder
		Selector  syncer.Selector
		Confirmer syncer.Confirmer
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp, except the
	// sync collaborators which stay nil and are chosen per run.
	Dependencies struct {
		Config    ConfigProvider
		FS        billy.Filesystem
		Stager    syncer.Stager
		Builder   syncer.Builder
		Selector  syncer.Selector
		Confirmer syncer.Confirmer
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options and reports
	// the file it was read from.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.FS == nil {
		deps.FS = osfs.New("/")
	}

	return &App{
		Config:    deps.Config,
		FS:        deps.FS,
		Stager:    deps.Stager,
		Builder:   deps.Builder,
		Selector:  deps.Selector,
		Confirmer: deps.Confirmer,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}, nil
}
