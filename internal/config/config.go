// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nykaa/sync-packages/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "sync-packages"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. SYNC_PACKAGES_SOURCE.
	EnvPrefix = "SYNC_PACKAGES"

	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FindConfigFile returns the config file that loading would use. An explicit
// ConfigFilePath always wins; otherwise the config directory is searched,
// then the current directory. found is false when only defaults apply.
func FindConfigFile(opts LoadOptions) (path string, found bool, err error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, fileExists(opts.ConfigFilePath), nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", false, err
	}

	cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(cuePath) {
		return cuePath, true, nil
	}

	localCuePath := ConfigFileName + "." + ConfigFileExt
	if fileExists(localCuePath) {
		return localCuePath, true, nil
	}

	return cuePath, false, nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("source", defaults.Source)
	v.SetDefault("packages_dir", defaults.PackagesDir)
	v.SetDefault("namespace", defaults.Namespace)
	v.SetDefault("modules_dir", defaults.ModulesDir)
	v.SetDefault("packages", defaults.Packages)
	v.SetDefault("destinations", defaults.Destinations)
	v.SetDefault("copy.exclude", defaults.Copy.Exclude)
	v.SetDefault("copy.ignore", defaults.Copy.Ignore)
	v.SetDefault("build.enabled", defaults.Build.Enabled)
	v.SetDefault("build.script", defaults.Build.Script)
	v.SetDefault("build.steps", defaults.Build.Steps)
	v.SetDefault("stage.enabled", defaults.Stage.Enabled)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.accessible", defaults.UI.Accessible)
	v.SetDefault("ui.theme", defaults.UI.Theme)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgPath, found, err := FindConfigFile(opts)
	if err != nil {
		return nil, "", err
	}

	resolvedPath := ""
	switch {
	case opts.ConfigFilePath != "" && !found:
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Check that the file exists and is readable").
			WithSuggestion("Use 'sync-packages config dump' to see the default configuration").
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	case found:
		if err := loadCUEIntoViper(v, cfgPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(cfgPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'sync-packages config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
		resolvedPath = cfgPath
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Ensure each destination has a unique name and a path").
			WithSuggestion("Namespaces look like @scope").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file exceeds %d bytes", path, maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Definitions are closed, so unknown fields fail here.
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError flattens a CUE error list into a single message prefixed
// with the file path.
func formatCUEError(err error, path string) error {
	details := strings.TrimSpace(cueerrors.Details(err, nil))
	return fmt.Errorf("%s: %s", path, details)
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file into configDirPath (the
// platform config directory when empty) unless one already exists. It returns
// the file path and whether it was created.
func CreateDefaultConfig(configDirPath string) (string, bool, error) {
	cfgDir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// sync-packages configuration file\n\n")

	fmt.Fprintf(&sb, "source: %q\n", cfg.Source)
	fmt.Fprintf(&sb, "packages_dir: %q\n", cfg.PackagesDir)
	fmt.Fprintf(&sb, "namespace: %q\n", cfg.Namespace)
	fmt.Fprintf(&sb, "modules_dir: %q\n", cfg.ModulesDir)

	if len(cfg.Packages) > 0 {
		sb.WriteString("packages: ")
		writeCUEList(&sb, cfg.Packages)
		sb.WriteString("\n")
	}

	sb.WriteString("\ndestinations: [\n")
	for _, d := range cfg.Destinations {
		fmt.Fprintf(&sb, "\t{name: %q, path: %q", d.Name, d.Path)
		if d.Description != "" {
			fmt.Fprintf(&sb, ", description: %q", d.Description)
		}
		if d.Preselected {
			sb.WriteString(", preselected: true")
		}
		sb.WriteString("},\n")
	}
	sb.WriteString("]\n")

	sb.WriteString("\ncopy: {\n\texclude: ")
	writeCUEList(&sb, cfg.Copy.Exclude)
	sb.WriteString("\n\tignore: ")
	writeCUEList(&sb, cfg.Copy.Ignore)
	sb.WriteString("\n}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Build.Enabled)
	fmt.Fprintf(&sb, "\tscript: %q\n", cfg.Build.Script)
	sb.WriteString("\tsteps: [\n")
	for _, step := range cfg.Build.Steps {
		fmt.Fprintf(&sb, "\t\t%q,\n", step)
	}
	sb.WriteString("\t]\n}\n")

	sb.WriteString("\nstage: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Stage.Enabled)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\taccessible: %v\n", cfg.UI.Accessible)
	fmt.Fprintf(&sb, "\ttheme: %q\n", cfg.UI.Theme)
	sb.WriteString("}\n")

	return sb.String()
}

func writeCUEList(sb *strings.Builder, items []string) {
	sb.WriteString("[")
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%q", item)
	}
	sb.WriteString("]")
}
