// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"path/filepath"
)

type (
	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath is the --config flag value. When set it must exist.
		ConfigFilePath string
		// ConfigDirPath replaces the platform config directory when set.
		ConfigDirPath string
	}

	// Loaded is a configuration together with the file it came from.
	Loaded struct {
		*Config
		// Path is the absolute path of the CUE file that was merged, or
		// empty when only defaults and SYNC_PACKAGES_* variables applied.
		Path string
	}

	// Provider loads configuration for one command invocation.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	fileProvider struct{}
)

// NewProvider returns the provider backed by config.cue and the environment.
func NewProvider() Provider {
	return &fileProvider{}
}

// FromFile reports whether a config file contributed to the configuration.
func (l *Loaded) FromFile() bool {
	return l.Path != ""
}

// Load merges defaults, the resolved config file and the environment.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if abs, absErr := filepath.Abs(path); absErr == nil {
			path = abs
		}
	}
	return &Loaded{Config: cfg, Path: path}, nil
}
