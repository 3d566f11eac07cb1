// Handles atomic file replacement and cleanup of abandoned temporary files.

package jsondb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tmpSuffix = ".tmp"

// writeFileAtomic replaces path with data.
//
// Data goes to a temporary file in the same directory (rename is only atomic
// within a filesystem), is synced, then renamed over path.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, base+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Join(fmt.Errorf("failed to write temp file: %w", err), os.Remove(tmpPath))
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Join(fmt.Errorf("failed to sync temp file: %w", err), os.Remove(tmpPath))
	}
	if err := f.Close(); err != nil {
		return errors.Join(fmt.Errorf("failed to close temp file: %w", err), os.Remove(tmpPath))
	}
	// CreateTemp uses 0o600.
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // G302: data file is not secret
		return errors.Join(fmt.Errorf("failed to chmod temp file: %w", err), os.Remove(tmpPath))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Join(fmt.Errorf("failed to rename temp file to %s: %w", path, err), os.Remove(tmpPath))
	}
	return nil
}

// cleanupTmpFiles removes temporary files left behind by an interrupted
// writeFileAtomic for path.
func cleanupTmpFiles(path string) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base+".") || !strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove temp file %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
