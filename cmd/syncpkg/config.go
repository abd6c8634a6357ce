// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nykaa/sync-packages/internal/config"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const (
	formatCUE  = "cue"
	formatTOML = "toml"
)

// newConfigCommand creates the `sync-packages config` command tree.
func newConfigCommand(app *App, rf *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sync-packages configuration",
		Long: `Manage sync-packages configuration.

The configuration file is optional. Without one, the built-in source and
destination catalog are used. It is looked up in:
  - Linux: ~/.config/sync-packages/config.cue
  - macOS: ~/Library/Application Support/sync-packages/config.cue
  - Windows: %APPDATA%\sync-packages\config.cue
  - ./config.cue

Every key can be overridden with a SYNC_PACKAGES_* environment variable,
for example SYNC_PACKAGES_SOURCE or SYNC_PACKAGES_BUILD_ENABLED.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, rf)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app.stdout)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app.stdout, rf)
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), app, rf)
			if err != nil {
				return err
			}
			return dumpConfig(app.stdout, cfg.Config, format)
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", formatCUE, "output format (cue, toml)")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, rf *rootFlags) error {
	cfg, err := loadConfig(ctx, app, rf)
	if err != nil {
		return err
	}

	w := app.stdout
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if cfg.FromFile() {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("source"), valueStyle.Render(cfg.Source))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("packages_dir"), valueStyle.Render(cfg.PackagesDir))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("namespace"), valueStyle.Render(cfg.Namespace.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("modules_dir"), valueStyle.Render(cfg.ModulesDir))
	if len(cfg.Packages) > 0 {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("packages"), valueStyle.Render(strings.Join(cfg.Packages, ", ")))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("destinations"))
	for _, d := range cfg.Destinations {
		line := fmt.Sprintf("  - %s: %s", valueStyle.Render(d.Name), d.Path)
		if d.Preselected {
			line += " " + SubtitleStyle.Render("(preselected)")
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("build"))
	fmt.Fprintf(w, "  enabled: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Build.Enabled)))
	fmt.Fprintf(w, "  script: %s\n", valueStyle.Render(cfg.Build.Script))
	for _, step := range cfg.Build.Steps {
		fmt.Fprintf(w, "  - %s\n", valueStyle.Render(step))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  theme: %s\n", valueStyle.Render(cfg.UI.Theme.String()))
	fmt.Fprintf(w, "  accessible: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Accessible)))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfig(w io.Writer) error {
	path, created, err := config.CreateDefaultConfig("")
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	if !created {
		fmt.Fprintf(w, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(w io.Writer, rf *rootFlags) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	path, found, err := config.FindConfigFile(config.LoadOptions{ConfigFilePath: rf.configPath})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Config directory: %s\n", cfgDir)
	if found {
		fmt.Fprintf(w, "Config file: %s\n", path)
	} else {
		fmt.Fprintf(w, "Config file: %s (not found, using defaults)\n", path)
	}
	return nil
}

// dumpConfig writes cfg in the requested format.
func dumpConfig(w io.Writer, cfg *config.Config, format string) error {
	switch strings.ToLower(format) {
	case formatCUE:
		_, err := fmt.Fprint(w, config.GenerateCUE(cfg))
		return err
	case formatTOML:
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config as TOML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q (valid: %s, %s)", format, formatCUE, formatTOML)
	}
}
