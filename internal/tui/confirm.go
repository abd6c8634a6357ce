// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"

	"github.com/charmbracelet/huh"
)

// BuildFailedPrompt is the question asked after a failed build.
const BuildFailedPrompt = "Build failed. Do you want to continue with sync anyway?"

type (
	// ConfirmOptions configures the Confirm component.
	ConfirmOptions struct {
		// Title is the question to display.
		Title string
		// Description provides additional context below the title.
		Description string
		// Affirmative is the text for the affirmative option (default: "Yes").
		Affirmative string
		// Negative is the text for the negative option (default: "No").
		Negative string
		// Default is the preselected answer.
		Default bool
		// Config holds common prompt configuration.
		Config Config
	}

	// BuildConfirmer asks whether to continue after a failed build.
	BuildConfirmer struct {
		Config Config
	}

	// StaticConfirmer answers every question with Answer.
	StaticConfirmer struct {
		Answer bool
	}
)

// Confirm prompts for a yes/no answer.
func Confirm(ctx context.Context, opts ConfirmOptions) (bool, error) {
	result := opts.Default

	affirmative := opts.Affirmative
	if affirmative == "" {
		affirmative = "Yes"
	}
	negative := opts.Negative
	if negative == "" {
		negative = "No"
	}

	c := huh.NewConfirm().
		Title(opts.Title).
		Description(opts.Description).
		Affirmative(affirmative).
		Negative(negative).
		Value(&result)

	if err := newForm(opts.Config, c).RunWithContext(ctx); err != nil {
		return false, mapAbort(err)
	}
	return result, nil
}

// NewBuildConfirmer returns a confirmer using cfg.
func NewBuildConfirmer(cfg Config) *BuildConfirmer {
	return &BuildConfirmer{Config: cfg}
}

// Confirm asks BuildFailedPrompt, defaulting to no.
func (b *BuildConfirmer) Confirm(ctx context.Context, reason string) (bool, error) {
	return Confirm(ctx, ConfirmOptions{
		Title:       BuildFailedPrompt,
		Description: reason,
		Config:      b.Config,
	})
}

// Confirm implements the confirmer contract without prompting.
func (s StaticConfirmer) Confirm(context.Context, string) (bool, error) {
	return s.Answer, nil
}
