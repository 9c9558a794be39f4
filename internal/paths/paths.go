// Package paths provides canonical path resolution and root containment checks.
package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates a path that does not exist or cannot be resolved.
var ErrNotFound = errors.New("path not found")

// ErrTraversal indicates a path that resolves outside the permitted root.
var ErrTraversal = errors.New("path traversal detected")

// CanonicalPath is an absolute, symlink-resolved filesystem path. It is an
// immutable value type whose equality is defined by the resolved string form.
// A CanonicalPath reflects the filesystem at the moment of creation and may go
// stale if the filesystem changes afterwards.
type CanonicalPath struct {
	resolved string
}

// Canonicalize resolves symlinks and normalizes "." and ".." segments,
// returning the absolute canonical form of path. It fails wrapping ErrNotFound
// when the path does not exist or cannot be resolved.
func Canonicalize(path string) (CanonicalPath, error) {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return CanonicalPath{}, fmt.Errorf("resolve absolute form of %s: %w", path, ErrNotFound)
	}
	resolvedPath, resolveError := filepath.EvalSymlinks(absolutePath)
	if resolveError != nil {
		return CanonicalPath{}, fmt.Errorf("canonicalize %s: %w", path, ErrNotFound)
	}
	return CanonicalPath{resolved: resolvedPath}, nil
}

// CanonicalizeWithin canonicalizes path and then verifies the result lies
// within root, failing wrapping ErrTraversal otherwise. Canonicalization
// happens before the containment comparison so symlink tricks and ".."
// segments cannot bypass the check.
func CanonicalizeWithin(path string, root CanonicalPath) (CanonicalPath, error) {
	canonicalPath, canonicalError := Canonicalize(path)
	if canonicalError != nil {
		return CanonicalPath{}, canonicalError
	}
	if !IsWithin(canonicalPath, root) {
		return CanonicalPath{}, fmt.Errorf("%s resolves outside %s: %w", path, root.resolved, ErrTraversal)
	}
	return canonicalPath, nil
}

// IsWithin reports whether path lies within root. The comparison is
// component-wise, so /tmp/foo is not within /tmp/foobar. A root is considered
// within itself. IsWithin never fails and serves as the second containment
// checkpoint at read time.
func IsWithin(path CanonicalPath, root CanonicalPath) bool {
	pathComponents := splitComponents(path.resolved)
	rootComponents := splitComponents(root.resolved)
	if len(pathComponents) < len(rootComponents) {
		return false
	}
	for componentIndex, rootComponent := range rootComponents {
		if pathComponents[componentIndex] != rootComponent {
			return false
		}
	}
	return true
}

// String returns the resolved absolute form.
func (path CanonicalPath) String() string {
	return path.resolved
}

// Base returns the final component of the resolved path.
func (path CanonicalPath) Base() string {
	return filepath.Base(path.resolved)
}

// IsZero reports whether the path was never produced by canonicalization.
func (path CanonicalPath) IsZero() bool {
	return path.resolved == ""
}

// Rel returns the path relative to root in forward-slash form. When the
// relative form cannot be computed the resolved absolute form is returned.
func (path CanonicalPath) Rel(root CanonicalPath) string {
	relativePath, relativeError := filepath.Rel(root.resolved, path.resolved)
	if relativeError != nil {
		return path.resolved
	}
	return filepath.ToSlash(relativePath)
}

// splitComponents breaks a resolved path into its separator-delimited parts.
func splitComponents(resolved string) []string {
	trimmed := strings.Trim(filepath.ToSlash(resolved), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
