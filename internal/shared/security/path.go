// Package security guards the filesystem paths moodscan derives from user input
// and external module definitions.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathEscape indicates the resolved path would escape the trusted root directory.
	ErrPathEscape = errors.New("path escapes base directory")
	// ErrUnsafePath marks a data file path that is empty, the filesystem root or
	// contains a parent reference.
	ErrUnsafePath = errors.New("unsafe data path")
)

// ResolveWithin joins elems under base and fails with ErrPathEscape when the result
// would leave base. The returned path is absolute.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}

	cleanBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	target, err := filepath.Abs(filepath.Join(append([]string{cleanBase}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(cleanBase, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}

// CheckDataPath rejects paths the corpus and catalog stores must never write to.
func CheckDataPath(path string) error {
	if path == "" || strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if filepath.Clean(abs) == string(os.PathSeparator) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}
	return nil
}
