// SPDX-License-Identifier: MPL-2.0

package packages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/tidwall/gjson"
)

// ManifestName is the manifest file looked up in each package directory.
const ManifestName = "package.json"

var (
	// ErrMalformedManifest is the sentinel wrapped by ParseError.
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrInvalidName is the sentinel wrapped by InvalidNameError.
	ErrInvalidName = errors.New("invalid package name")
)

type (
	// Manifest holds the package.json fields a sync run cares about.
	Manifest struct {
		// Name is the declared package name, empty when absent.
		Name string
		// Scripts maps script names to their command lines.
		Scripts map[string]string
	}

	// ParseError is returned when a manifest exists but is not valid JSON.
	ParseError struct {
		Path string
	}

	// InvalidNameError is returned when a declared name would not resolve to
	// a directory of its own inside the namespace scope, such as "." or a
	// name containing "..".
	InvalidNameError struct {
		Folder string
		Name   string
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed manifest: %s is not valid JSON", e.Path)
}

// Unwrap returns ErrMalformedManifest for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrMalformedManifest }

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("package %s declares unusable name %q", e.Folder, e.Name)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// ParseManifest extracts the name and scripts from manifest bytes. Fields of
// the wrong JSON type are treated as absent.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: path}
	}

	m := &Manifest{Scripts: map[string]string{}}
	if name := gjson.GetBytes(data, "name"); name.Type == gjson.String {
		m.Name = name.Str
	}
	gjson.GetBytes(data, "scripts").ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			m.Scripts[key.String()] = value.Str
		}
		return true
	})
	return m, nil
}

// ReadManifest reads <dir>/package.json. A missing manifest yields (nil, nil).
func ReadManifest(fs billy.Filesystem, dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := util.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseManifest(data, path)
}

// HasScript reports whether the manifest declares the named script.
func (m *Manifest) HasScript(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Scripts[name]
	return ok
}

// DestinationName returns the folder name a package is published under:
// the declared name with "<namespace>/" stripped, the declared name verbatim
// when it is outside the namespace, or folder when no usable name is declared.
func (m *Manifest) DestinationName(folder, namespace string) string {
	if m == nil || m.Name == "" {
		return folder
	}
	if prefix := namespace + "/"; strings.HasPrefix(m.Name, prefix) {
		if stripped := strings.TrimPrefix(m.Name, prefix); stripped != "" {
			return stripped
		}
		return folder
	}
	return m.Name
}

// ResolveName reads the manifest of the package at dir and returns its
// destination name. A malformed manifest returns a *ParseError and an
// unusable name an *InvalidNameError, so the caller can fail just that
// package.
func ResolveName(fs billy.Filesystem, dir, folder, namespace string) (string, error) {
	m, err := ReadManifest(fs, dir)
	if err != nil {
		return "", err
	}
	name := m.DestinationName(folder, namespace)
	if err := ValidateName(name); err != nil {
		return "", &InvalidNameError{Folder: folder, Name: name}
	}
	return name, nil
}

// ValidateName rejects names that are empty, absolute, or contain a "." or
// ".." segment. Scoped names such as "@other/lib" stay valid.
func ValidateName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) || filepath.IsAbs(name) {
		return ErrInvalidName
	}
	for _, seg := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == "." || seg == ".." {
			return ErrInvalidName
		}
	}
	return nil
}
