// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/nykaa/sync-packages/internal/layout"

	"github.com/charmbracelet/huh"
)

// ErrNoSelection is the validation error shown when nothing is selected.
var ErrNoSelection = errors.New("select at least one destination")

type (
	// Option is a single choice in a MultiChoose prompt.
	Option[T comparable] struct {
		Title    string
		Value    T
		Selected bool
	}

	// MultiChooseOptions configures the MultiChoose component.
	MultiChooseOptions[T comparable] struct {
		// Title is the prompt displayed above the options.
		Title string
		// Description provides additional context below the title.
		Description string
		// Options is the list of options to choose from.
		Options []Option[T]
		// Required rejects an empty submission in the redrawing UI.
		Required error
		// Height limits the number of visible options (0 for auto).
		Height int
		// Config holds common prompt configuration.
		Config Config
	}

	// DestinationSelector asks the operator which destinations to sync to.
	DestinationSelector struct {
		Config Config
	}

	// StaticSelector selects destinations by name without prompting.
	StaticSelector struct {
		Names []string
	}
)

// MultiChoose prompts the operator to select any number of options.
func MultiChoose[T comparable](ctx context.Context, opts MultiChooseOptions[T]) ([]T, error) {
	var result []T

	huhOpts := make([]huh.Option[T], len(opts.Options))
	for i, opt := range opts.Options {
		o := huh.NewOption(opt.Title, opt.Value)
		if opt.Selected {
			o = o.Selected(true)
		}
		huhOpts[i] = o
	}

	sel := huh.NewMultiSelect[T]().
		Title(opts.Title).
		Description(opts.Description).
		Options(huhOpts...).
		Value(&result)

	// Line-based prompts re-ask until validation passes, which never ends
	// once input is exhausted, so the check is left to the caller there.
	if opts.Required != nil && !opts.Config.Accessible {
		sel = sel.Validate(func(v []T) error {
			if len(v) == 0 {
				return opts.Required
			}
			return nil
		})
	}

	if opts.Height > 0 {
		sel = sel.Height(opts.Height)
	}

	if err := newForm(opts.Config, sel).RunWithContext(ctx); err != nil {
		return nil, mapAbort(err)
	}
	return result, nil
}

// NewDestinationSelector returns a selector using cfg.
func NewDestinationSelector(cfg Config) *DestinationSelector {
	return &DestinationSelector{Config: cfg}
}

// Select shows every catalog entry, numbered in catalog order with
// preselected entries checked, and returns the chosen destinations in
// catalog order. An empty result means nothing was chosen.
func (s *DestinationSelector) Select(ctx context.Context, catalog *layout.Catalog) ([]layout.Destination, error) {
	entries := catalog.All()
	opts := make([]Option[string], len(entries))
	for i, d := range entries {
		title := fmt.Sprintf("%d. %s", i+1, d.Name)
		if d.Description != "" {
			title += " (" + d.Description + ")"
		}
		opts[i] = Option[string]{Title: title, Value: d.Name, Selected: d.Preselected}
	}

	names, err := MultiChoose(ctx, MultiChooseOptions[string]{
		Title:       "Select destinations to sync packages to",
		Description: "space toggles a destination, enter confirms",
		Options:     opts,
		Required:    ErrNoSelection,
		Config:      s.Config,
	})
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	chosen := make(map[string]bool, len(names))
	for _, n := range names {
		chosen[n] = true
	}
	selected := make([]layout.Destination, 0, len(names))
	for _, d := range entries {
		if chosen[d.Name] {
			selected = append(selected, d)
		}
	}
	return selected, nil
}

// Select returns the named destinations in the given order.
func (s *StaticSelector) Select(_ context.Context, catalog *layout.Catalog) ([]layout.Destination, error) {
	return catalog.Select(s.Names)
}
