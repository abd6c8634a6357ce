// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSetHomeDir(t *testing.T) {
	key := "HOME"
	if runtime.GOOS == "windows" {
		key = "USERPROFILE"
	}

	tmpDir := t.TempDir()
	original, hadOriginal := os.LookupEnv(key)

	cleanup := SetHomeDir(t, tmpDir)
	if got := os.Getenv(key); got != tmpDir {
		t.Errorf("%s = %q, want %q", key, got, tmpDir)
	}

	cleanup()
	got, has := os.LookupEnv(key)
	if has != hadOriginal || got != original {
		t.Errorf("after cleanup %s = %q (set=%v), want %q (set=%v)", key, got, has, original, hadOriginal)
	}
}

func TestMustUnsetenv_Restores(t *testing.T) {
	const key = "SYNC_PACKAGES_TESTUTIL_KEY"
	t.Cleanup(MustSetenv(t, key, "before"))

	restore := MustUnsetenv(t, key)
	if _, ok := os.LookupEnv(key); ok {
		t.Fatalf("%s still set after MustUnsetenv", key)
	}
	restore()
	if got := os.Getenv(key); got != "before" {
		t.Errorf("%s = %q after restore, want before", key, got)
	}
}

func TestWriteTree_ReadTree(t *testing.T) {
	root := t.TempDir()
	WriteTree(t, root, Tree{
		"package.json":     `{"name":"@nykaa/ui"}`,
		"src/index.js":     "export {}",
		"empty/":           "",
		"deep/a/b/c.txt":   "c",
		"node_modules/x/y": "dep",
	})

	if runtime.GOOS != "windows" {
		if err := os.Symlink("src/index.js", filepath.Join(root, "link")); err != nil {
			t.Fatalf("symlink: %v", err)
		}
	}

	got := ReadTree(t, root)
	want := map[string]string{
		"package.json":     `{"name":"@nykaa/ui"}`,
		"src/":             "",
		"src/index.js":     "export {}",
		"empty/":           "",
		"deep/":            "",
		"deep/a/":          "",
		"deep/a/b/":        "",
		"deep/a/b/c.txt":   "c",
		"node_modules/":    "",
		"node_modules/x/":  "",
		"node_modules/x/y": "dep",
	}
	if runtime.GOOS != "windows" {
		want["link"] = "-> src/index.js"
	}

	if len(got) != len(want) {
		t.Errorf("ReadTree() returned %d entries, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ReadTree()[%q] = %q, want %q", k, got[k], v)
		}
	}
}
