// SPDX-License-Identifier: MPL-2.0

package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nykaa/sync-packages/internal/config"
)

var (
	// ErrUnknownDestination is the sentinel wrapped by UnknownDestinationError.
	ErrUnknownDestination = errors.New("unknown destination")
	// ErrEmptyCatalog is returned when a catalog would have no entries.
	ErrEmptyCatalog = errors.New("destination catalog is empty")
)

type (
	// Destination is one consuming repository in the catalog.
	Destination struct {
		Name        string
		Root        string
		Description string
		Preselected bool
	}

	// Catalog is the immutable, ordered table of destinations keyed by name.
	Catalog struct {
		entries []Destination
		index   map[string]int
	}

	// UnknownDestinationError is returned when a requested name is not in the catalog.
	UnknownDestinationError struct {
		Name  string
		Known []string
	}
)

// Error implements the error interface.
func (e *UnknownDestinationError) Error() string {
	return fmt.Sprintf("unknown destination %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownDestination for errors.Is() compatibility.
func (e *UnknownDestinationError) Unwrap() error { return ErrUnknownDestination }

// NewCatalog validates entries and resolves their roots to absolute paths.
// Names must be non-empty and unique.
func NewCatalog(entries []Destination) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		entries: make([]Destination, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, d := range entries {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("destination %d: name is empty", i)
		}
		if _, dup := c.index[d.Name]; dup {
			return nil, fmt.Errorf("destination %q is defined twice", d.Name)
		}
		root, err := Absolute(d.Root)
		if err != nil {
			return nil, fmt.Errorf("destination %q: %w", d.Name, err)
		}
		d.Root = root
		c.index[d.Name] = len(c.entries)
		c.entries = append(c.entries, d)
	}
	return c, nil
}

// CatalogFromConfig builds a Catalog from configured destination entries.
func CatalogFromConfig(entries []config.DestinationEntry) (*Catalog, error) {
	dests := make([]Destination, 0, len(entries))
	for _, e := range entries {
		dests = append(dests, Destination{
			Name:        e.Name,
			Root:        e.Path,
			Description: e.Description,
			Preselected: e.Preselected,
		})
	}
	return NewCatalog(dests)
}

// All returns a copy of the entries in catalog order.
func (c *Catalog) All() []Destination {
	return append([]Destination(nil), c.entries...)
}

// Names returns the entry names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, d := range c.entries {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the entry named name.
func (c *Catalog) Lookup(name string) (Destination, bool) {
	i, ok := c.index[name]
	if !ok {
		return Destination{}, false
	}
	return c.entries[i], true
}

// Select resolves names in the given order, dropping repeats. Any name not in
// the catalog fails the whole selection.
func (c *Catalog) Select(names []string) ([]Destination, error) {
	selected := make([]Destination, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		d, ok := c.Lookup(name)
		if !ok {
			return nil, &UnknownDestinationError{Name: name, Known: c.Names()}
		}
		seen[name] = true
		selected = append(selected, d)
	}
	return selected, nil
}
