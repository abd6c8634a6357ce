// SPDX-License-Identifier: MPL-2.0

// Package treecopy replaces a destination directory with a copy of a source
// tree, skipping dependency-cache subtrees.
package treecopy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	// DefaultExclude is the dependency-cache directory name skipped by default.
	DefaultExclude = "node_modules"

	maxRootLinks = 8
)

type (
	// Copier copies package trees on a billy filesystem.
	Copier struct {
		// FS is the filesystem both trees live on. Paths are passed through
		// unchanged, so an osfs rooted at "/" takes absolute host paths.
		FS billy.Filesystem
		// Exclude lists path components whose subtrees are skipped.
		Exclude []string
		// Ignore lists doublestar globs matched against source-relative
		// slash paths.
		Ignore []string
	}

	// Stats counts what one Copy call did.
	Stats struct {
		Files    int
		Dirs     int
		Symlinks int
		Bytes    int64
		Skipped  int
	}
)

// New returns a Copier that excludes DefaultExclude.
func New(fs billy.Filesystem) *Copier {
	return &Copier{FS: fs, Exclude: []string{DefaultExclude}}
}

// Validate checks the ignore globs.
func (c *Copier) Validate() error {
	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return nil
}

// Copy removes dst if it exists and recreates it as a copy of src. A
// symlinked src is resolved first; symlinks inside the tree are recreated,
// not followed. Regular files keep their permission bits. Removal happens
// before copying, so a failure part way leaves dst partial.
func (c *Copier) Copy(ctx context.Context, src, dst string) (Stats, error) {
	var stats Stats

	root, err := c.resolveRoot(src)
	if err != nil {
		return stats, err
	}

	if err := c.remove(dst); err != nil {
		return stats, err
	}

	err = util.Walk(c.FS, root, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && c.skip(rel) {
			stats.Skipped++
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := dst
		if rel != "." {
			target = filepath.Join(dst, rel)
		}

		switch {
		case fi.Mode()&os.ModeSymlink != 0:
			link, err := c.FS.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read link %s: %w", path, err)
			}
			if err := c.FS.Symlink(link, target); err != nil {
				return fmt.Errorf("failed to create link %s: %w", target, err)
			}
			stats.Symlinks++
		case fi.IsDir():
			if err := c.FS.MkdirAll(target, fi.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			stats.Dirs++
		case fi.Mode().IsRegular():
			n, err := c.copyFile(path, target, fi.Mode().Perm())
			if err != nil {
				return err
			}
			stats.Files++
			stats.Bytes += n
		default:
			// Sockets, devices and pipes have no meaning inside a package.
			stats.Skipped++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// resolveRoot follows symlinks at src until it reaches a directory.
func (c *Copier) resolveRoot(src string) (string, error) {
	path := src
	for range maxRootLinks {
		info, err := c.FS.Lstat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat source %s: %w", src, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			if !info.IsDir() {
				return "", fmt.Errorf("source %s is not a directory", src)
			}
			return path, nil
		}
		link, err := c.FS.Readlink(path)
		if err != nil {
			return "", fmt.Errorf("failed to read link %s: %w", path, err)
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(filepath.Dir(path), link)
		}
		path = link
	}
	return "", fmt.Errorf("source %s: too many levels of symbolic links", src)
}

func (c *Copier) remove(dst string) error {
	if _, err := c.FS.Lstat(dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat destination %s: %w", dst, err)
	}
	if err := util.RemoveAll(c.FS, dst); err != nil {
		return fmt.Errorf("failed to remove existing %s: %w", dst, err)
	}
	return nil
}

// skip reports whether the source-relative path rel is excluded. Components
// are split on both separators so Windows-style names are matched too.
func (c *Copier) skip(rel string) bool {
	slashed := strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
	for _, part := range strings.Split(slashed, "/") {
		for _, ex := range c.Exclude {
			if part == ex {
				return true
			}
		}
	}
	for _, pattern := range c.Ignore {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

func (c *Copier) copyFile(src, dst string, perm os.FileMode) (int64, error) {
	in, err := c.FS.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := c.FS.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return n, nil
}
