// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"io"
	"os"

	"github.com/nykaa/sync-packages/internal/config"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrCancelled is returned when the operator aborts a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Config holds common configuration for prompts.
type Config struct {
	// Theme specifies the visual theme to use.
	Theme config.Theme
	// Accessible replaces the redrawing UI with line-based prompts.
	Accessible bool
	// Input is read in accessible mode; stdin when nil.
	Input io.Reader
	// Output specifies where prompts are written.
	Output io.Writer
}

// DefaultConfig returns the prompt configuration for the current process.
// Accessible mode is enabled when stdin is not a terminal or the ACCESSIBLE
// environment variable is set; prompts then go to stderr so they are not
// captured by command substitution.
func DefaultConfig() Config {
	accessible := !isInputTerminal() || os.Getenv("ACCESSIBLE") != ""

	var output io.Writer = os.Stdout
	if accessible {
		output = os.Stderr
	}

	return Config{
		Theme:      config.ThemeDefault,
		Accessible: accessible,
		Output:     output,
	}
}

func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm wraps fields in a single-group form configured from cfg.
func newForm(cfg Config, fields ...huh.Field) *huh.Form {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(getHuhTheme(cfg.Theme)).
		WithAccessible(cfg.Accessible).
		WithShowHelp(!cfg.Accessible)
	if cfg.Output != nil {
		form = form.WithOutput(cfg.Output)
	}
	if cfg.Input != nil {
		form = form.WithInput(cfg.Input)
	}
	return form
}

// mapAbort converts huh's abort error to ErrCancelled.
func mapAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}

// getHuhTheme converts a Theme to a huh.Theme.
func getHuhTheme(t config.Theme) *huh.Theme {
	switch t {
	case config.ThemeCharm:
		return huh.ThemeCharm()
	case config.ThemeDracula:
		return huh.ThemeDracula()
	case config.ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	case config.ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}
