// SPDX-License-Identifier: MPL-2.0

// Package packages enumerates the package directories of a monorepo and
// resolves the name each package is published under.
package packages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// ErrNotFound is the sentinel wrapped by NotFoundError.
var ErrNotFound = errors.New("packages directory not found")

// NotFoundError is returned when the packages directory is missing or is not
// a directory.
type NotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("packages directory not found: %s", e.Path)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// List returns the sorted names of the direct child directories of dir,
// skipping hidden entries (leading ".") and anything that is not a directory.
// A symlink counts when its target is a directory.
func List(fs billy.Filesystem, dir string) ([]string, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: dir}
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Path: dir}
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || !isDirEntry(fs, dir, entry) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isDirEntry(fs billy.Filesystem, dir string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	target, err := fs.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && target.IsDir()
}

// Filter keeps the names present in allow, preserving the order of names.
// An empty allow list keeps everything. unknown lists allow entries that
// matched no package.
func Filter(names, allow []string) (kept, unknown []string) {
	if len(allow) == 0 {
		return names, nil
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	wanted := make(map[string]bool, len(allow))
	for _, a := range allow {
		if !present[a] {
			unknown = append(unknown, a)
			continue
		}
		wanted[a] = true
	}
	for _, n := range names {
		if wanted[n] {
			kept = append(kept, n)
		}
	}
	return kept, unknown
}
