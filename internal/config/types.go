// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ThemeDefault uses the base huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
	// ThemeBase16 uses the Base16 theme.
	ThemeBase16 Theme = "base16"

	// DefaultNamespace is the npm scope packages are published under.
	DefaultNamespace Namespace = "@nykaa"
)

var (
	// ErrInvalidNamespace is returned when a Namespace value is not an npm scope.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrInvalidTheme is returned when a Theme value is not recognized.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidDestination is the sentinel error wrapped by InvalidDestinationError.
	ErrInvalidDestination = errors.New("invalid destination")
	// ErrInvalidBuildConfig is the sentinel error wrapped by InvalidBuildConfigError.
	ErrInvalidBuildConfig = errors.New("invalid build config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Namespace is an npm scope such as "@nykaa". Package names carrying the
	// "<namespace>/" prefix have it stripped when resolving destination folders.
	Namespace string

	// InvalidNamespaceError is returned when a Namespace does not start with "@"
	// or contains a path separator. It wraps ErrInvalidNamespace.
	InvalidNamespaceError struct {
		Value Namespace
	}

	// Theme selects the prompt theme.
	Theme string

	// InvalidThemeError is returned when a Theme value is not recognized.
	// It wraps ErrInvalidTheme for errors.Is() compatibility.
	InvalidThemeError struct {
		Value Theme
	}

	// InvalidDestinationError is returned when a DestinationEntry has invalid fields.
	InvalidDestinationError struct {
		Index  int
		Reason string
	}

	// InvalidBuildConfigError is returned when a BuildConfig has invalid fields.
	InvalidBuildConfigError struct {
		Reason string
	}

	// InvalidConfigError collects field-level validation errors from all
	// sub-components. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// DestinationEntry is one consuming repository packages can be synced into.
	DestinationEntry struct {
		// Name is the logical key shown in the prompt and accepted by --dest.
		Name string `json:"name" mapstructure:"name" toml:"name"`
		// Path is the repository root. A leading "~" is expanded.
		Path string `json:"path" mapstructure:"path" toml:"path"`
		// Description is shown next to the name in the prompt.
		Description string `json:"description,omitempty" mapstructure:"description" toml:"description,omitempty"`
		// Preselected marks the entry as selected when the prompt opens.
		Preselected bool `json:"preselected" mapstructure:"preselected" toml:"preselected"`
	}

	// CopyConfig controls which parts of a package tree are copied.
	CopyConfig struct {
		// Exclude lists directory names skipped wherever they appear in a package.
		Exclude []string `json:"exclude" mapstructure:"exclude" toml:"exclude"`
		// Ignore lists doublestar globs matched against package-relative paths.
		Ignore []string `json:"ignore" mapstructure:"ignore" toml:"ignore"`
	}

	// BuildConfig controls the pre-sync build of the source repository.
	BuildConfig struct {
		// Enabled turns the build stage on.
		Enabled bool `json:"enabled" mapstructure:"enabled" toml:"enabled"`
		// Script is the root manifest script whose presence triggers the build.
		Script string `json:"script" mapstructure:"script" toml:"script"`
		// Steps are the commands run in order from the source root.
		Steps []string `json:"steps" mapstructure:"steps" toml:"steps"`
	}

	// StageConfig controls staging of the source repository before the build.
	StageConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled" toml:"enabled"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose" toml:"verbose"`
		// Accessible forces accessible (line-based) prompts.
		Accessible bool `json:"accessible" mapstructure:"accessible" toml:"accessible"`
		// Theme selects the prompt theme.
		Theme Theme `json:"theme" mapstructure:"theme" toml:"theme"`
	}

	// Config holds the application configuration.
	Config struct {
		// Source is the monorepo root to sync packages from.
		Source string `json:"source" mapstructure:"source" toml:"source"`
		// PackagesDir is the directory under Source holding one folder per package.
		PackagesDir string `json:"packages_dir" mapstructure:"packages_dir" toml:"packages_dir"`
		// Namespace is the npm scope of the synced packages.
		Namespace Namespace `json:"namespace" mapstructure:"namespace" toml:"namespace"`
		// ModulesDir is the dependency directory of the destinations.
		ModulesDir string `json:"modules_dir" mapstructure:"modules_dir" toml:"modules_dir"`
		// Packages optionally restricts the sync to the named package folders.
		Packages []string `json:"packages" mapstructure:"packages" toml:"packages"`
		// Destinations is the catalog offered in the destination prompt.
		Destinations []DestinationEntry `json:"destinations" mapstructure:"destinations" toml:"destinations"`
		Copy         CopyConfig         `json:"copy" mapstructure:"copy" toml:"copy"`
		Build        BuildConfig        `json:"build" mapstructure:"build" toml:"build"`
		Stage        StageConfig        `json:"stage" mapstructure:"stage" toml:"stage"`
		UI           UIConfig           `json:"ui" mapstructure:"ui" toml:"ui"`
	}
)

// String returns the string representation of the Namespace.
func (n Namespace) String() string { return string(n) }

// Prefix returns the package-name prefix for the namespace ("@nykaa/").
func (n Namespace) Prefix() string { return string(n) + "/" }

// IsValid returns whether the Namespace looks like an npm scope.
func (n Namespace) IsValid() (bool, []error) {
	s := string(n)
	if len(s) < 2 || !strings.HasPrefix(s, "@") || strings.ContainsAny(s, `/\`) {
		return false, []error{&InvalidNamespaceError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidNamespaceError.
func (e *InvalidNamespaceError) Error() string {
	return fmt.Sprintf("invalid namespace %q: must look like @scope", e.Value)
}

// Unwrap returns ErrInvalidNamespace for errors.Is() compatibility.
func (e *InvalidNamespaceError) Unwrap() error { return ErrInvalidNamespace }

// String returns the string representation of the Theme.
func (t Theme) String() string { return string(t) }

// IsValid returns whether the Theme is one of the defined themes.
func (t Theme) IsValid() (bool, []error) {
	switch t {
	case ThemeDefault, ThemeCharm, ThemeDracula, ThemeCatppuccin, ThemeBase16:
		return true, nil
	default:
		return false, []error{&InvalidThemeError{Value: t}}
	}
}

// Error implements the error interface for InvalidThemeError.
func (e *InvalidThemeError) Error() string {
	return fmt.Sprintf("invalid theme %q (valid: default, charm, dracula, catppuccin, base16)", e.Value)
}

// Unwrap returns ErrInvalidTheme for errors.Is() compatibility.
func (e *InvalidThemeError) Unwrap() error { return ErrInvalidTheme }

// Error implements the error interface for InvalidDestinationError.
func (e *InvalidDestinationError) Error() string {
	return fmt.Sprintf("destinations[%d]: %s", e.Index, e.Reason)
}

// Unwrap returns ErrInvalidDestination for errors.Is() compatibility.
func (e *InvalidDestinationError) Unwrap() error { return ErrInvalidDestination }

// Error implements the error interface for InvalidBuildConfigError.
func (e *InvalidBuildConfigError) Error() string {
	return "invalid build config: " + e.Reason
}

// Unwrap returns ErrInvalidBuildConfig for errors.Is() compatibility.
func (e *InvalidBuildConfigError) Unwrap() error { return ErrInvalidBuildConfig }

// IsValid returns whether the BuildConfig has valid fields. A disabled build
// needs no steps.
func (c BuildConfig) IsValid() (bool, []error) {
	if !c.Enabled {
		return true, nil
	}
	if strings.TrimSpace(c.Script) == "" {
		return false, []error{&InvalidBuildConfigError{Reason: "script must be set when the build is enabled"}}
	}
	for i, step := range c.Steps {
		if strings.TrimSpace(step) == "" {
			return false, []error{&InvalidBuildConfigError{Reason: fmt.Sprintf("steps[%d] is empty", i)}}
		}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the Config has valid fields. Beyond the per-field
// checks it enforces what the CUE schema cannot: unique destination names.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Namespace.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.Theme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Build.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}

	seen := make(map[string]int, len(c.Destinations))
	for i, d := range c.Destinations {
		switch {
		case strings.TrimSpace(d.Name) == "":
			errs = append(errs, &InvalidDestinationError{Index: i, Reason: "name must be non-empty"})
		case strings.TrimSpace(d.Path) == "":
			errs = append(errs, &InvalidDestinationError{Index: i, Reason: fmt.Sprintf("%q: path must be non-empty", d.Name)})
		}
		if first, dup := seen[d.Name]; dup {
			errs = append(errs, &InvalidDestinationError{
				Index:  i,
				Reason: fmt.Sprintf("duplicate name %q (same as destinations[%d])", d.Name, first),
			})
			continue
		}
		seen[d.Name] = i
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source:      "~/Documents/nykaa/fe-core",
		PackagesDir: "packages",
		Namespace:   DefaultNamespace,
		ModulesDir:  "node_modules",
		Packages:    []string{},
		Destinations: []DestinationEntry{
			{
				Name:        "nykaa_web_reloaded",
				Path:        "~/Documents/nykaa/nykaa_web_reloaded",
				Description: "Main Nykaa web application",
				Preselected: true,
			},
			{
				Name:        "beauty_dweb_reloaded",
				Path:        "~/Documents/nykaa/beauty_dweb_reloaded",
				Description: "Beauty desktop web application",
			},
		},
		Copy: CopyConfig{
			Exclude: []string{"node_modules"},
			Ignore:  []string{},
		},
		Build: BuildConfig{
			Enabled: true,
			Script:  "build",
			Steps: []string{
				"yarn",
				"yarn clean:git",
				"yarn clean:lib",
				"npm run bootstrap",
				"npm run build",
			},
		},
		Stage: StageConfig{Enabled: true},
		UI: UIConfig{
			Verbose:    false,
			Accessible: false,
			Theme:      ThemeDefault,
		},
	}
}
