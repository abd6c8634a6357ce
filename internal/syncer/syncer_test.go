// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nykaa/sync-packages/internal/console"
	"github.com/nykaa/sync-packages/internal/issue"
	"github.com/nykaa/sync-packages/internal/layout"
	"github.com/nykaa/sync-packages/internal/packages"
	"github.com/nykaa/sync-packages/internal/testutil"
	"github.com/nykaa/sync-packages/internal/tui"
	"github.com/nykaa/sync-packages/internal/vcs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	fixture struct {
		source  string
		web     string
		beauty  string
		catalog *layout.Catalog
		logs    *bytes.Buffer
	}

	fakeStager struct {
		calls int
		res   vcs.StageResult
		err   error
	}

	fakeBuilder struct {
		calls int
		err   error
	}

	fakeConfirmer struct {
		calls  int
		answer bool
		err    error
	}

	fakeSelector struct {
		dests []layout.Destination
		err   error
	}
)

func (f *fakeStager) StageAll(context.Context, string) (vcs.StageResult, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeBuilder) Build(context.Context, string) error {
	f.calls++
	return f.err
}

func (f *fakeConfirmer) Confirm(context.Context, string) (bool, error) {
	f.calls++
	return f.answer, f.err
}

func (f *fakeSelector) Select(context.Context, *layout.Catalog) ([]layout.Destination, error) {
	return f.dests, f.err
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source: filepath.Join(t.TempDir(), "fe-core"),
		web:    filepath.Join(t.TempDir(), "nykaa_web_reloaded"),
		beauty: filepath.Join(t.TempDir(), "beauty_dweb_reloaded"),
		logs:   &bytes.Buffer{},
	}
	testutil.WriteTree(t, f.source, testutil.Tree{
		"package.json":                        `{"name":"fe-core","scripts":{"build":"lerna run build"}}`,
		"packages/auth/package.json":          `{"name":"@nykaa/auth-lib","version":"1.0.0"}`,
		"packages/auth/lib/index.js":          "module.exports = 'auth'\n",
		"packages/auth/node_modules/dep/a.js": "cached",
		"packages/ui/lib/button.js":           "export const Button = 1\n",
		"packages/ui/node_modules/react/x.js": "cached",
		"packages/.DS_Store/":                 "",
	})
	testutil.MustMkdirAll(t, f.web, 0o755)
	testutil.MustMkdirAll(t, f.beauty, 0o755)

	catalog, err := layout.NewCatalog([]layout.Destination{
		{Name: "nykaa_web_reloaded", Root: f.web, Preselected: true},
		{Name: "beauty_dweb_reloaded", Root: f.beauty},
	})
	require.NoError(t, err)
	f.catalog = catalog
	return f
}

func (f *fixture) options(names ...string) Options {
	return Options{
		Source:   f.source,
		Catalog:  f.catalog,
		Selector: &tui.StaticSelector{Names: names},
		Logger:   console.New(f.logs, true),
	}
}

func (f *fixture) run(t *testing.T, opts Options) *Report {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	report, err := s.Run(context.Background())
	require.NoError(t, err)
	return report
}

func scope(root string) string {
	return filepath.Join(root, "node_modules", "@nykaa")
}

// Scenario A: one destination, every package copied under its resolved name
// without dependency caches.
func TestRun_SingleDestination(t *testing.T) {
	f := newFixture(t)

	report := f.run(t, f.options("nykaa_web_reloaded"))

	assert.Equal(t, Completed, report.Outcome)
	assert.Equal(t, []string{"auth", "ui"}, report.Packages)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 2, report.Results[0].Succeeded)
	assert.Equal(t, 0, report.Results[0].Failed)
	assert.NoError(t, report.Results[0].Err())

	assert.Equal(t, testutil.Tree{
		"auth-lib/":             "",
		"auth-lib/package.json": `{"name":"@nykaa/auth-lib","version":"1.0.0"}`,
		"auth-lib/lib/":         "",
		"auth-lib/lib/index.js": "module.exports = 'auth'\n",
		"ui/":                   "",
		"ui/lib/":               "",
		"ui/lib/button.js":      "export const Button = 1\n",
	}, testutil.ReadTree(t, scope(f.web)))

	_, err := os.Stat(f.beauty + "/node_modules")
	assert.True(t, os.IsNotExist(err), "unselected destination is untouched")
	assert.Contains(t, f.logs.String(), "nykaa_web_reloaded: All 2 packages synced successfully")
}

// Scenario B: a destination whose root is missing fails all its packages
// while the other destination still syncs.
func TestRun_MissingDestinationRoot(t *testing.T) {
	f := newFixture(t)
	testutil.MustRemoveAll(t, f.beauty)

	report := f.run(t, f.options("nykaa_web_reloaded", "beauty_dweb_reloaded"))

	require.Len(t, report.Results, 2)
	web, beauty := report.Results[0], report.Results[1]
	assert.Equal(t, 2, web.Succeeded)
	assert.Equal(t, 0, beauty.Succeeded)
	assert.Equal(t, 2, beauty.Failed)
	assert.Equal(t, []string{"auth", "ui"}, beauty.FailedPackages)
	assert.ErrorIs(t, beauty.Errors["auth"], ErrDestinationNotFound)
	assert.Equal(t, 2, report.Failed())
	assert.Equal(t, 2, report.Succeeded())

	_, err := os.Stat(f.beauty)
	assert.True(t, os.IsNotExist(err), "a missing destination is never created")
	assert.Contains(t, f.logs.String(), "beauty_dweb_reloaded: 0 succeeded, 2 failed")
}

// Scenario C: a malformed manifest fails only its own package.
func TestRun_MalformedManifest(t *testing.T) {
	f := newFixture(t)
	testutil.WriteTree(t, f.source, testutil.Tree{
		"packages/broken/package.json": `{"name": "@nykaa/broken",`,
		"packages/broken/index.js":     "x",
	})

	report := f.run(t, f.options("nykaa_web_reloaded"))

	res := report.Results[0]
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"broken"}, res.FailedPackages)
	assert.ErrorIs(t, res.Errors["broken"], packages.ErrMalformedManifest)
	assert.ErrorContains(t, res.Err(), "broken: malformed manifest")

	got := testutil.ReadTree(t, scope(f.web))
	assert.Contains(t, got, "auth-lib/lib/index.js")
	assert.Contains(t, got, "ui/lib/button.js")
	assert.NotContains(t, got, "broken/")
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t)

	f.run(t, f.options("nykaa_web_reloaded"))
	first := testutil.ReadTree(t, f.web)

	testutil.WriteTree(t, scope(f.web), testutil.Tree{"auth-lib/stale.js": "old"})
	f.run(t, f.options("nykaa_web_reloaded"))

	assert.Equal(t, first, testutil.ReadTree(t, f.web))
}

func TestRun_KeepsOtherScopedPackages(t *testing.T) {
	f := newFixture(t)
	testutil.WriteTree(t, scope(f.web), testutil.Tree{"unrelated/index.js": "keep"})

	f.run(t, f.options("nykaa_web_reloaded"))

	assert.Contains(t, testutil.ReadTree(t, scope(f.web)), "unrelated/index.js")
}

func TestRun_NoPackages(t *testing.T) {
	f := newFixture(t)
	testutil.MustRemoveAll(t, filepath.Join(f.source, "packages"))
	testutil.WriteTree(t, f.source, testutil.Tree{"packages/.hidden/": ""})

	report := f.run(t, f.options("nykaa_web_reloaded"))

	assert.Equal(t, NoPackages, report.Outcome)
	assert.Empty(t, report.Results)
	assert.Equal(t, testutil.Tree{}, testutil.ReadTree(t, f.web))
	assert.Contains(t, f.logs.String(), "No packages found to sync")
}

func TestRun_SourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture)
		want   error
	}{
		{
			name:   "source missing",
			mutate: func(f *fixture) { f.source = filepath.Join(f.source, "nope") },
			want:   ErrSourceNotFound,
		},
		{
			name: "packages missing",
			mutate: func(f *fixture) {
				_ = os.RemoveAll(filepath.Join(f.source, "packages"))
			},
			want: ErrPackagesNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(f)

			s, err := New(f.options("nykaa_web_reloaded"))
			require.NoError(t, err)
			report, err := s.Run(context.Background())

			assert.Nil(t, report)
			require.ErrorIs(t, err, tt.want)
			var ae *issue.ActionableError
			require.ErrorAs(t, err, &ae)
			assert.True(t, ae.HasSuggestions())
			assert.Equal(t, testutil.Tree{}, testutil.ReadTree(t, f.web))
		})
	}
}

func TestRun_Selection(t *testing.T) {
	tests := []struct {
		name     string
		selector Selector
	}{
		{"cancelled", &fakeSelector{err: tui.ErrCancelled}},
		{"empty", &fakeSelector{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			opts := f.options()
			opts.Selector = tt.selector

			report := f.run(t, opts)
			assert.Equal(t, NoDestination, report.Outcome)
			assert.Empty(t, report.Results)
			assert.Equal(t, testutil.Tree{}, testutil.ReadTree(t, f.web))
		})
	}
}

func TestRun_UnknownDestination(t *testing.T) {
	f := newFixture(t)
	s, err := New(f.options("nykaa_app"))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.ErrorIs(t, err, layout.ErrUnknownDestination)
	var ae *issue.ActionableError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "nykaa_app", ae.Resource)
}

func TestRun_SelectorError(t *testing.T) {
	f := newFixture(t)
	opts := f.options()
	opts.Selector = &fakeSelector{err: errors.New("terminal gone")}

	s, err := New(opts)
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	assert.ErrorContains(t, err, "terminal gone")
}

func TestRun_Build(t *testing.T) {
	tests := []struct {
		name          string
		builder       *fakeBuilder
		confirmer     *fakeConfirmer
		wantOutcome   Outcome
		wantConfirms  int
		wantBuildErr  bool
		wantDestFiles bool
	}{
		{
			name:          "success",
			builder:       &fakeBuilder{},
			confirmer:     &fakeConfirmer{},
			wantOutcome:   Completed,
			wantDestFiles: true,
		},
		{
			name:         "failure declined",
			builder:      &fakeBuilder{err: errors.New("yarn exited with 1")},
			confirmer:    &fakeConfirmer{answer: false},
			wantOutcome:  Aborted,
			wantConfirms: 1,
			wantBuildErr: true,
		},
		{
			name:          "failure accepted",
			builder:       &fakeBuilder{err: errors.New("yarn exited with 1")},
			confirmer:     &fakeConfirmer{answer: true},
			wantOutcome:   Completed,
			wantConfirms:  1,
			wantBuildErr:  true,
			wantDestFiles: true,
		},
		{
			name:         "prompt cancelled",
			builder:      &fakeBuilder{err: errors.New("yarn exited with 1")},
			confirmer:    &fakeConfirmer{err: tui.ErrCancelled},
			wantOutcome:  Aborted,
			wantConfirms: 1,
			wantBuildErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			opts := f.options("nykaa_web_reloaded")
			opts.Builder = tt.builder
			opts.Confirmer = tt.confirmer

			report := f.run(t, opts)

			assert.Equal(t, 1, tt.builder.calls)
			assert.Equal(t, tt.wantConfirms, tt.confirmer.calls)
			assert.Equal(t, tt.wantOutcome, report.Outcome)
			assert.Equal(t, tt.wantBuildErr, report.BuildErr != nil)
			_, err := os.Stat(scope(f.web))
			assert.Equal(t, tt.wantDestFiles, err == nil)
		})
	}
}

func TestRun_BuildSkippedWithoutScript(t *testing.T) {
	for name, manifest := range map[string]string{
		"no script":   `{"name":"fe-core","scripts":{"test":"jest"}}`,
		"no manifest": "",
		"malformed":   `{"scripts":`,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			root := filepath.Join(f.source, "package.json")
			if manifest == "" {
				require.NoError(t, os.Remove(root))
			} else {
				require.NoError(t, os.WriteFile(root, []byte(manifest), 0o644))
			}

			builder := &fakeBuilder{}
			opts := f.options("nykaa_web_reloaded")
			opts.Builder = builder

			report := f.run(t, opts)
			assert.Zero(t, builder.calls)
			assert.Equal(t, Completed, report.Outcome)
		})
	}
}

func TestRun_BuildCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	opts := f.options("nykaa_web_reloaded")
	opts.Builder = builderFunc(func(context.Context, string) error {
		cancel()
		return context.Canceled
	})
	opts.Confirmer = &fakeConfirmer{answer: true}

	s, err := New(opts)
	require.NoError(t, err)
	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type builderFunc func(context.Context, string) error

func (b builderFunc) Build(ctx context.Context, root string) error { return b(ctx, root) }

type selectorFunc func(context.Context, *layout.Catalog) ([]layout.Destination, error)

func (f selectorFunc) Select(ctx context.Context, c *layout.Catalog) ([]layout.Destination, error) {
	return f(ctx, c)
}

type stagerFunc func(context.Context, string) (vcs.StageResult, error)

func (f stagerFunc) StageAll(ctx context.Context, root string) (vcs.StageResult, error) {
	return f(ctx, root)
}

// An interrupt after destinations are chosen stops the run instead of
// recording every remaining package as failed.
func TestRun_CanceledDuringSync(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := f.options()
	opts.Selector = selectorFunc(func(context.Context, *layout.Catalog) ([]layout.Destination, error) {
		cancel()
		return f.catalog.All(), nil
	})

	s, err := New(opts)
	require.NoError(t, err)
	report, err := s.Run(ctx)

	assert.Nil(t, report)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, testutil.Tree{}, testutil.ReadTree(t, f.web))
	assert.Equal(t, testutil.Tree{}, testutil.ReadTree(t, f.beauty))
	assert.NotContains(t, f.logs.String(), "Failed to sync")
}

func TestSyncDestination_Canceled(t *testing.T) {
	f := newFixture(t)
	s, err := New(f.options())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest, ok := f.catalog.Lookup("nykaa_web_reloaded")
	require.True(t, ok)

	res, err := s.SyncDestination(ctx, dest, []string{"auth", "ui"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Succeeded)
	assert.Zero(t, res.Failed, "an interrupted package is not a failure")
	assert.Empty(t, res.FailedPackages)
}

func TestRun_StageCanceled(t *testing.T) {
	f := newFixture(t)
	testutil.MustMkdirAll(t, filepath.Join(f.source, ".git"), 0o755)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := f.options("nykaa_web_reloaded")
	opts.Stager = stagerFunc(func(context.Context, string) (vcs.StageResult, error) {
		cancel()
		return vcs.StageResult{}, context.Canceled
	})

	s, err := New(opts)
	require.NoError(t, err)
	_, err = s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, testutil.Tree{}, testutil.ReadTree(t, f.web))
}

func TestRun_Stage(t *testing.T) {
	t.Run("not a repository", func(t *testing.T) {
		f := newFixture(t)
		stager := &fakeStager{}
		opts := f.options("nykaa_web_reloaded")
		opts.Stager = stager

		f.run(t, opts)
		assert.Zero(t, stager.calls)
	})

	t.Run("staged", func(t *testing.T) {
		f := newFixture(t)
		testutil.MustMkdirAll(t, filepath.Join(f.source, ".git"), 0o755)
		stager := &fakeStager{res: vcs.StageResult{Status: "M  packages/auth/lib/index.js"}}
		var out bytes.Buffer
		opts := f.options("nykaa_web_reloaded")
		opts.Stager = stager
		opts.Out = &out

		report := f.run(t, opts)
		assert.Equal(t, 1, stager.calls)
		assert.Equal(t, "M  packages/auth/lib/index.js", report.Staged)
		assert.Contains(t, out.String(), "M  packages/auth/lib/index.js")
		assert.Contains(t, out.String(), "STEP 1: Staging changes in source")
	})

	t.Run("failure only warns", func(t *testing.T) {
		f := newFixture(t)
		testutil.MustMkdirAll(t, filepath.Join(f.source, ".git"), 0o755)
		opts := f.options("nykaa_web_reloaded")
		opts.Stager = &fakeStager{err: errors.New("index.lock exists")}

		report := f.run(t, opts)
		assert.Equal(t, Completed, report.Outcome)
		assert.EqualError(t, report.StageErr, "index.lock exists")
		assert.Contains(t, f.logs.String(), "Git staging skipped: index.lock exists")
	})
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)
	opts := f.options("nykaa_web_reloaded")
	opts.DryRun = true

	report := f.run(t, opts)

	assert.Equal(t, 2, report.Results[0].Succeeded)
	assert.Equal(t, testutil.Tree{}, testutil.ReadTree(t, f.web))
	assert.Contains(t, f.logs.String(), "Would copy")
}

func TestRun_PackageAllowList(t *testing.T) {
	f := newFixture(t)
	opts := f.options("nykaa_web_reloaded")
	opts.Packages = []string{"ui", "missing"}

	report := f.run(t, opts)

	assert.Equal(t, []string{"ui"}, report.Packages)
	got := testutil.ReadTree(t, scope(f.web))
	assert.Contains(t, got, "ui/lib/button.js")
	assert.NotContains(t, got, "auth-lib/")
	assert.Contains(t, f.logs.String(), "Ignoring unknown packages: missing")
}

func TestRun_NameCollision(t *testing.T) {
	f := newFixture(t)
	testutil.WriteTree(t, f.source, testutil.Tree{
		"packages/auth-v2/package.json": `{"name":"@nykaa/auth-lib"}`,
		"packages/auth-v2/lib/v2.js":    "v2",
	})

	report := f.run(t, f.options("nykaa_web_reloaded"))

	assert.Equal(t, 3, report.Results[0].Succeeded)
	got := testutil.ReadTree(t, scope(f.web))
	assert.Contains(t, got, "auth-lib/lib/v2.js", "the later folder wins")
	assert.NotContains(t, got, "auth-lib/lib/index.js")
	assert.Contains(t, f.logs.String(), "auth and auth-v2 both resolve to auth-lib")
}

// Names that would land on the scope itself or outside it fail their package
// and leave the rest of node_modules alone.
func TestRun_InvalidPackageName(t *testing.T) {
	f := newFixture(t)
	testutil.WriteTree(t, f.source, testutil.Tree{
		"packages/parent/package.json": `{"name":"@nykaa/.."}`,
		"packages/parent/index.js":     "x",
		"packages/dot/package.json":    `{"name":"."}`,
		"packages/dot/index.js":        "x",
		"packages/up/package.json":     `{"name":"../../x"}`,
		"packages/up/index.js":         "x",
	})
	testutil.WriteTree(t, f.web, testutil.Tree{
		"node_modules/react/index.js":        "react",
		"node_modules/@nykaa/unrelated/a.js": "keep",
	})

	report := f.run(t, f.options("nykaa_web_reloaded"))

	res := report.Results[0]
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, []string{"dot", "parent", "up"}, res.FailedPackages)
	for _, pkg := range res.FailedPackages {
		assert.ErrorIs(t, res.Errors[pkg], packages.ErrInvalidName, pkg)
	}

	got := testutil.ReadTree(t, f.web)
	assert.Equal(t, "react", got["node_modules/react/index.js"])
	assert.Equal(t, "keep", got["node_modules/@nykaa/unrelated/a.js"])
	assert.Contains(t, got, "node_modules/@nykaa/auth-lib/lib/index.js")
	assert.NotContains(t, got, "x/")
}

func TestRun_SymlinkedPackage(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated rights on windows")
	}
	f := newFixture(t)
	shared := t.TempDir()
	testutil.WriteTree(t, shared, testutil.Tree{
		"cart/package.json":        `{"name":"@nykaa/cart-core"}`,
		"cart/lib/index.js":        "cart",
		"cart/node_modules/x/a.js": "cached",
	})
	require.NoError(t, os.Symlink(filepath.Join(shared, "cart"), filepath.Join(f.source, "packages", "cart")))

	report := f.run(t, f.options("nykaa_web_reloaded"))

	assert.Equal(t, []string{"auth", "cart", "ui"}, report.Packages)
	assert.Equal(t, 3, report.Results[0].Succeeded)
	got := testutil.ReadTree(t, scope(f.web))
	assert.Equal(t, "cart", got["cart-core/lib/index.js"])
	assert.NotContains(t, got, "cart-core/node_modules/")
}

func TestNew(t *testing.T) {
	f := newFixture(t)

	_, err := New(Options{Source: f.source})
	assert.ErrorIs(t, err, ErrNoCatalog)

	opts := f.options()
	opts.Ignore = []string{"[bad"}
	_, err = New(opts)
	assert.Error(t, err)

	s, err := New(f.options())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.source, "packages"), s.layout.PackagesDir)
}
