// SPDX-License-Identifier: MPL-2.0

// Package layout resolves the filesystem locations a sync run reads from and
// writes to: the source monorepo layout and the destination catalog.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestName is the package manifest file name.
const ManifestName = "package.json"

// ErrOutsideScope is returned by PackageDir when a name does not resolve to a
// directory strictly below the scope.
var ErrOutsideScope = errors.New("package directory escapes the namespace scope")

// Layout is the resolved set of source locations. No existence checks are
// made when it is built.
type Layout struct {
	// Root is the absolute monorepo root.
	Root string
	// PackagesDir holds one directory per package.
	PackagesDir string
	// Manifest is the root package.json.
	Manifest string
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Absolute expands "~" and makes path absolute.
func Absolute(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// Resolve builds the Layout for the monorepo at source. packagesDir is
// relative to the root ("packages" by default).
func Resolve(source, packagesDir string) (Layout, error) {
	if strings.TrimSpace(source) == "" {
		return Layout{}, fmt.Errorf("source path is empty")
	}
	root, err := Absolute(source)
	if err != nil {
		return Layout{}, err
	}
	if packagesDir == "" {
		packagesDir = "packages"
	}
	return Layout{
		Root:        root,
		PackagesDir: filepath.Join(root, packagesDir),
		Manifest:    filepath.Join(root, ManifestName),
	}, nil
}

// ScopeDir returns <root>/<modulesDir>/<namespace>, e.g.
// /work/web/node_modules/@nykaa.
func ScopeDir(destRoot, modulesDir, namespace string) string {
	return filepath.Join(destRoot, modulesDir, namespace)
}

// PackageDir returns the directory a package named name is copied into. The
// result must lie strictly below scopeDir, since it is removed before copying.
func PackageDir(scopeDir, name string) (string, error) {
	dir := filepath.Join(scopeDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(scopeDir, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideScope, name)
	}
	return dir, nil
}
