package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
)

// linkOutcome reports what ensureSymlink did.
type linkOutcome int

const (
	linkCreated linkOutcome = iota
	linkUnchanged
	linkReplaced
	linkSkipped // destination is a real file or directory, left untouched
)

// ensureSymlink makes dest a symlink pointing at source, idempotently:
// an existing symlink already pointing at source is left alone, a symlink
// pointing elsewhere is replaced, and a real file or directory is never
// clobbered.
func ensureSymlink(source, dest string) (linkOutcome, error) {
	info, err := os.Lstat(dest)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(dest)
		if err == nil && target == source {
			return linkUnchanged, nil
		}
		if err := os.Remove(dest); err != nil {
			return linkSkipped, fmt.Errorf("failed to replace symlink %s: %w", dest, err)
		}
		if err := os.Symlink(source, dest); err != nil {
			return linkSkipped, fmt.Errorf("failed to create symlink %s: %w", dest, err)
		}
		return linkReplaced, nil

	case err == nil:
		// Manually placed content wins; the source counts as handled.
		return linkSkipped, nil

	case os.IsNotExist(err):
		if err := ensureParentDir(dest); err != nil {
			return linkSkipped, err
		}
		if err := os.Symlink(source, dest); err != nil {
			return linkSkipped, fmt.Errorf("failed to create symlink %s: %w", dest, err)
		}
		return linkCreated, nil

	default:
		return linkSkipped, fmt.Errorf("failed to stat %s: %w", dest, err)
	}
}

// ensureParentDir creates the destination's parent directory, inheriting
// permissions from the nearest existing ancestor.
func ensureParentDir(destPath string) error {
	destDir := filepath.Dir(destPath)

	info, err := os.Stat(destDir)
	if err == nil && info.IsDir() {
		return nil
	}

	perm := os.FileMode(0o755)
	if parentInfo, err := os.Stat(filepath.Dir(destDir)); err == nil {
		perm = parentInfo.Mode().Perm()
	}

	if err := os.MkdirAll(destDir, perm); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return nil
}
