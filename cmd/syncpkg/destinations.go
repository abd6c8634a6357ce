// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/nykaa/sync-packages/internal/layout"

	"github.com/spf13/cobra"
)

// newDestinationsCommand creates `sync-packages destinations`, which lists
// the catalog and whether each repository root exists.
func newDestinationsCommand(app *App, rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "destinations",
		Aliases: []string{"dests"},
		Short:   "List the destination catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), app, rf)
			if err != nil {
				return err
			}

			catalog, err := layout.CatalogFromConfig(cfg.Destinations)
			if err != nil {
				return reportFailure(app.stderr, err, rf.verbose)
			}

			w := app.stdout
			fmt.Fprintln(w, TitleStyle.Render("Destinations"))
			fmt.Fprintln(w, SubtitleStyle.Render("  (* = preselected)"))
			fmt.Fprintln(w)

			for _, d := range catalog.All() {
				marker := " "
				if d.Preselected {
					marker = "*"
				}
				status := SuccessStyle.Render("✓")
				if info, err := app.FS.Stat(d.Root); err != nil || !info.IsDir() {
					status = ErrorStyle.Render("✗ missing")
				}

				line := fmt.Sprintf("%s %s %s %s", marker, CmdStyle.Render(d.Name), d.Root, status)
				if d.Description != "" {
					line += " " + SubtitleStyle.Render("- "+d.Description)
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}
