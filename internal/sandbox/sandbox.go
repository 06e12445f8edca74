// Package sandbox confines artifact writes to the project root. Every path is
// resolved through symlinks before use, so a link inside the tree cannot
// redirect a write outside it.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEscape is returned when a path resolves outside the root.
var ErrEscape = errors.New("path escapes project root")

// Resolve joins relPath onto root and returns the symlink-resolved absolute
// path, or ErrEscape when it lands outside root. relPath need not exist.
func Resolve(root, relPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks %s: %w", absRoot, err)
	}

	resolved, err := resolvePrefix(filepath.Join(realRoot, relPath))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", relPath, err)
	}

	if resolved != realRoot && !strings.HasPrefix(resolved, realRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrEscape, relPath, resolved)
	}
	return resolved, nil
}

// resolvePrefix resolves symlinks in the longest existing prefix of path and
// appends the remainder unchanged.
func resolvePrefix(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	}
	dir, base := filepath.Dir(path), filepath.Base(path)
	if dir == path {
		return path, nil
	}
	resolvedDir, err := resolvePrefix(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// WriteFile atomically replaces relPath under root with data. The parent
// directory must already exist. On any failure the previous file, if any, is
// left untouched.
func WriteFile(root, relPath string, data []byte, perm os.FileMode) error {
	target, err := Resolve(root, relPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)

	tmp, err := os.CreateTemp(dir, ".dirctx-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", target, err)
	}

	committed = true
	return nil
}

// Remove deletes relPath under root. A missing file is not an error.
func Remove(root, relPath string) error {
	target, err := Resolve(root, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
