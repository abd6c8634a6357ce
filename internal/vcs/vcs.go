// SPDX-License-Identifier: MPL-2.0

// Package vcs stages pending changes in the source repository before a sync.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when the source root has no git metadata.
var ErrNotRepository = errors.New("not a git repository")

type (
	// StageResult describes the index after staging.
	StageResult struct {
		// Status is the short status of every changed path, one per line,
		// sorted by path.
		Status string
		// Clean is true when nothing differs from HEAD.
		Clean bool
	}

	// GitStager stages the whole working tree with go-git.
	GitStager struct{}
)

// NewGitStager returns a stager backed by go-git.
func NewGitStager() *GitStager {
	return &GitStager{}
}

// IsRepository reports whether root carries a .git marker (a directory, or a
// file for worktrees and submodules) on fs.
func IsRepository(fs billy.Filesystem, root string) bool {
	_, err := fs.Lstat(filepath.Join(root, git.GitDirName))
	return err == nil
}

// StageAll is the equivalent of `git add -A` followed by `git status --short`.
func (s *GitStager) StageAll(ctx context.Context, root string) (StageResult, error) {
	if err := ctx.Err(); err != nil {
		return StageResult{}, err
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return StageResult{}, fmt.Errorf("%s: %w", root, ErrNotRepository)
		}
		return StageResult{}, fmt.Errorf("failed to open repository %s: %w", root, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return StageResult{}, fmt.Errorf("failed to open worktree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return StageResult{}, fmt.Errorf("failed to stage changes: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return StageResult{}, err
	}

	status, err := wt.Status()
	if err != nil {
		return StageResult{}, fmt.Errorf("failed to read status: %w", err)
	}

	return StageResult{Status: shortStatus(status), Clean: status.IsClean()}, nil
}

// shortStatus renders status like `git status --short`, sorted by path.
func shortStatus(status git.Status) string {
	paths := make([]string, 0, len(status))
	for path, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, path := range paths {
		fs := status[path]
		name := path
		if fs.Staging == git.Renamed && fs.Extra != "" {
			name = fs.Extra + " -> " + path
		}
		fmt.Fprintf(&sb, "%c%c %s\n", fs.Staging, fs.Worktree, name)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
