// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nykaa/sync-packages/internal/issue"
	"github.com/nykaa/sync-packages/internal/testutil"
)

// isolate points config lookup at an empty directory and moves the working
// directory away from any ./config.cue.
func isolate(t *testing.T) string {
	t.Helper()
	cfgDir := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))
	return cfgDir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source != "~/Documents/nykaa/fe-core" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.Namespace != "@nykaa" {
		t.Errorf("Namespace = %q, want @nykaa", cfg.Namespace)
	}
	if len(cfg.Destinations) != 2 {
		t.Fatalf("expected 2 default destinations, got %d", len(cfg.Destinations))
	}
	if cfg.Destinations[0].Name != "nykaa_web_reloaded" || !cfg.Destinations[0].Preselected {
		t.Errorf("first destination = %+v, want preselected nykaa_web_reloaded", cfg.Destinations[0])
	}
	if cfg.Destinations[1].Name != "beauty_dweb_reloaded" || cfg.Destinations[1].Preselected {
		t.Errorf("second destination = %+v, want unselected beauty_dweb_reloaded", cfg.Destinations[1])
	}
	if len(cfg.Build.Steps) != 5 || cfg.Build.Steps[0] != "yarn" || cfg.Build.Steps[4] != "npm run build" {
		t.Errorf("Build.Steps = %v", cfg.Build.Steps)
	}
	if len(cfg.Copy.Exclude) != 1 || cfg.Copy.Exclude[0] != "node_modules" {
		t.Errorf("Copy.Exclude = %v", cfg.Copy.Exclude)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = false: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("override", func(t *testing.T) {
		t.Cleanup(Reset)
		SetConfigDirOverride("/custom/dir")

		got, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error: %v", err)
		}
		if got != "/custom/dir" {
			t.Errorf("ConfigDir() = %q, want /custom/dir", got)
		}
	})

	if runtime.GOOS != "linux" {
		return
	}

	t.Run("xdg", func(t *testing.T) {
		t.Cleanup(testutil.MustSetenv(t, "XDG_CONFIG_HOME", "/tmp/test-xdg-config"))

		got, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error: %v", err)
		}
		if want := filepath.Join("/tmp/test-xdg-config", AppName); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfgDir := isolate(t)

	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty", resolved)
	}
	if cfg.Source != DefaultConfig().Source {
		t.Errorf("Source = %q", cfg.Source)
	}
	if len(cfg.Destinations) != 2 || cfg.Destinations[1].Description != "Beauty desktop web application" {
		t.Errorf("Destinations = %+v", cfg.Destinations)
	}
	if !cfg.Build.Enabled || cfg.Build.Script != "build" {
		t.Errorf("Build = %+v", cfg.Build)
	}
}

func TestLoad_CUEFile(t *testing.T) {
	cfgDir := isolate(t)
	path := writeConfig(t, cfgDir, `
source: "/work/fe-core"
packages: ["ui", "utils"]
destinations: [
	{name: "web", path: "/work/web", preselected: true},
]
build: {enabled: false}
ui: {theme: "dracula", verbose: true}
`)

	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Source != "/work/fe-core" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if len(cfg.Packages) != 2 || cfg.Packages[1] != "utils" {
		t.Errorf("Packages = %v", cfg.Packages)
	}
	if len(cfg.Destinations) != 1 || cfg.Destinations[0].Path != "/work/web" || !cfg.Destinations[0].Preselected {
		t.Errorf("Destinations = %+v", cfg.Destinations)
	}
	if cfg.Build.Enabled {
		t.Error("Build.Enabled = true, want false")
	}
	if cfg.Build.Script != "build" {
		t.Errorf("Build.Script = %q, default should survive a partial build block", cfg.Build.Script)
	}
	if cfg.UI.Theme != ThemeDracula || !cfg.UI.Verbose {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if cfg.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)

	t.Run("present", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), `modules_dir: "deps"`)

		cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.ModulesDir != "deps" {
			t.Errorf("ModulesDir = %q, want deps", cfg.ModulesDir)
		}
		if cfg.Path != path || !cfg.FromFile() {
			t.Errorf("Path = %q, want %q", cfg.Path, path)
		}
	})

	t.Run("missing", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.cue")

		_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
		if err == nil {
			t.Fatal("expected error for missing explicit config file")
		}
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			t.Fatalf("error type = %T, want *issue.ActionableError", err)
		}
		if ae.Resource != missing {
			t.Errorf("Resource = %q, want %q", ae.Resource, missing)
		}
	})
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `colour: "blue"`},
		{"bad theme", `ui: {theme: "neon"}`},
		{"namespace without scope", `namespace: "nykaa"`},
		{"destination without path", `destinations: [{name: "web"}]`},
		{"syntax error", `source: "unterminated`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgDir := isolate(t)
			writeConfig(t, cfgDir, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
			if err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Errorf("error = %v, want *issue.ActionableError", err)
			}
		})
	}
}

func TestLoad_DuplicateDestinations(t *testing.T) {
	cfgDir := isolate(t)
	writeConfig(t, cfgDir, `
destinations: [
	{name: "web", path: "/a"},
	{name: "web", path: "/b"},
]
`)

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), `duplicate name "web"`) {
		t.Errorf("error = %q, want duplicate name message", err.Error())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	cfgDir := isolate(t)
	t.Cleanup(testutil.MustSetenv(t, "SYNC_PACKAGES_SOURCE", "/from/env"))
	t.Cleanup(testutil.MustSetenv(t, "SYNC_PACKAGES_BUILD_ENABLED", "false"))

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source != "/from/env" {
		t.Errorf("Source = %q, want /from/env", cfg.Source)
	}
	if cfg.Build.Enabled {
		t.Error("Build.Enabled = true, want false from env")
	}
	if cfg.FromFile() {
		t.Errorf("Path = %q, want empty without a config file", cfg.Path)
	}
}

func TestLoad_ReportsDiscoveredPath(t *testing.T) {
	cfgDir := isolate(t)
	want := writeConfig(t, cfgDir, `modules_dir: "deps"`)

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Path != want {
		t.Errorf("Path = %q, want %q", loaded.Path, want)
	}
	if loaded.ModulesDir != "deps" {
		t.Errorf("ModulesDir = %q, want deps", loaded.ModulesDir)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	cfgDir := isolate(t)

	want := DefaultConfig()
	want.Packages = []string{"ui"}
	want.Copy.Ignore = []string{"**/*.map"}
	writeConfig(t, cfgDir, GenerateCUE(want))

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() of generated CUE error: %v\n%s", err, GenerateCUE(want))
	}
	if got.Source != want.Source || got.Namespace != want.Namespace {
		t.Errorf("got %+v", got)
	}
	if len(got.Destinations) != len(want.Destinations) {
		t.Fatalf("Destinations = %+v", got.Destinations)
	}
	for i := range want.Destinations {
		if got.Destinations[i] != want.Destinations[i] {
			t.Errorf("Destinations[%d] = %+v, want %+v", i, got.Destinations[i], want.Destinations[i])
		}
	}
	if len(got.Packages) != 1 || got.Packages[0] != "ui" {
		t.Errorf("Packages = %v", got.Packages)
	}
	if len(got.Copy.Ignore) != 1 || got.Copy.Ignore[0] != "**/*.map" {
		t.Errorf("Copy.Ignore = %v", got.Copy.Ignore)
	}
	if strings.Join(got.Build.Steps, "|") != strings.Join(want.Build.Steps, "|") {
		t.Errorf("Build.Steps = %v", got.Build.Steps)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	cfgDir := filepath.Join(t.TempDir(), "nested")

	path, created, err := CreateDefaultConfig(cfgDir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	if !created {
		t.Error("created = false on first call")
	}
	if path != filepath.Join(cfgDir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	if err := os.WriteFile(path, []byte(`source: "/kept"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, created, err = CreateDefaultConfig(cfgDir); err != nil || created {
		t.Errorf("second call created=%v err=%v, want existing file kept", created, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `source: "/kept"` {
		t.Error("existing config file was overwritten")
	}
}

func TestFindConfigFile_LocalFallback(t *testing.T) {
	cfgDir := t.TempDir()
	local := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, local))
	writeConfig(t, local, `source: "/local"`)

	path, found, err := FindConfigFile(LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("FindConfigFile() error: %v", err)
	}
	if !found || path != "config.cue" {
		t.Errorf("FindConfigFile() = (%q, %v), want (config.cue, true)", path, found)
	}
}
