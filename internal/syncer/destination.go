// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nykaa/sync-packages/internal/console"
	"github.com/nykaa/sync-packages/internal/layout"
	"github.com/nykaa/sync-packages/internal/packages"
)

// SyncDestination copies every package in pkgs into dest's scope directory.
// A missing repository root fails all packages; otherwise each package fails
// on its own and the rest continue. An error is only returned when ctx ends,
// and the interrupted package is not counted.
func (s *Syncer) SyncDestination(ctx context.Context, dest layout.Destination, pkgs []string) (Result, error) {
	res := newResult(dest)
	console.Banner(s.out, fmt.Sprintf("Syncing to %s...", dest.Name))

	if !s.isDir(dest.Root) {
		s.logger.Errorf("Repository not found at: %s", dest.Root)
		err := fmt.Errorf("%w: %s", ErrDestinationNotFound, dest.Root)
		for _, pkg := range pkgs {
			res.fail(pkg, err)
		}
		s.logTally(res)
		return res, nil
	}

	scope := layout.ScopeDir(dest.Root, s.opts.ModulesDir, s.opts.Namespace)
	if s.opts.DryRun {
		s.logger.Info("Dry run: destination left untouched", "scope", scope)
	} else {
		s.logger.Info("Preparing destination directory...")
		if err := s.fs.MkdirAll(scope, 0o755); err != nil {
			err = fmt.Errorf("failed to create %s: %w", scope, err)
			s.logger.Error(err.Error())
			for _, pkg := range pkgs {
				res.fail(pkg, err)
			}
			s.logTally(res)
			return res, nil
		}
		console.Success(s.logger, "Destination ready: "+scope)
	}

	// Two folders resolving to one name overwrite each other; the later one
	// wins and the collision is reported.
	claimed := make(map[string]string, len(pkgs))
	for _, pkg := range pkgs {
		if err := s.syncPackage(ctx, scope, pkg, claimed); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.logger.Warnf("Sync to %s interrupted at %s", dest.Name, pkg)
				return res, ctxErr
			}
			s.logger.Errorf("Failed to sync %s: %v", pkg, err)
			res.fail(pkg, err)
			continue
		}
		res.succeed()
	}

	s.logTally(res)
	return res, nil
}

func (s *Syncer) syncPackage(ctx context.Context, scope, pkg string, claimed map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src := filepath.Join(s.layout.PackagesDir, pkg)
	name, err := packages.ResolveName(s.fs, src, pkg, s.opts.Namespace)
	if err != nil {
		return err
	}
	if prev, ok := claimed[name]; ok {
		s.logger.Warnf("%s and %s both resolve to %s; %s overwrites it", prev, pkg, name, pkg)
	}
	claimed[name] = pkg

	target, err := layout.PackageDir(scope, name)
	if err != nil {
		return err
	}
	if s.opts.DryRun {
		s.logger.Info("Would copy", "from", src, "to", target)
		return nil
	}

	stats, err := s.copier.Copy(ctx, src, target)
	if err != nil {
		return err
	}
	s.logger.Debug("Copied "+pkg, "to", target, "files", stats.Files, "bytes", stats.Bytes, "skipped", stats.Skipped)
	return nil
}

func (s *Syncer) logTally(res Result) {
	console.Success(s.logger, fmt.Sprintf("%s: Successfully synced %d out of %d package(s)", res.Destination.Name, res.Succeeded, res.Total()))
	if res.Failed > 0 {
		s.logger.Warnf("%s - Failed packages: %s", res.Destination.Name, strings.Join(res.FailedPackages, ", "))
	}
}
