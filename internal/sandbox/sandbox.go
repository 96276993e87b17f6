// Package sandbox confines every write, rename and delete the packager makes
// to a single output root.
package sandbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath checks that relPath stays inside root once symlinks are
// resolved, and returns the resolved absolute path.
func ValidatePath(root, relPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving output root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving output root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, relPath))

	// The path may not exist yet, so resolve as much as we can.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving target path: %w", err)
	}

	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the output root '%s'", relPath, resolved, realRoot)
	}
	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// path and re-appends the missing suffix.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, filepath.Base(path)), nil
}

// SafeWrite atomically writes content to relPath under root, creating parent
// folders as needed.
func SafeWrite(root, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	return writeAtomic(resolved, perm, func(w io.Writer) error {
		_, werr := w.Write(content)
		return werr
	})
}

// SafeCopy copies the file at srcPath (anywhere on disk) to relPath under
// root. The destination is replaced atomically.
func SafeCopy(root, relPath, srcPath string) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer src.Close()

	return writeAtomic(resolved, 0644, func(w io.Writer) error {
		_, cerr := io.Copy(w, src)
		return cerr
	})
}

// SafeRename moves fromRel to toRel, both under root.
func SafeRename(root, fromRel, toRel string) error {
	from, err := ValidatePath(root, fromRel)
	if err != nil {
		return err
	}
	to, err := ValidatePath(root, toRel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(to), err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", fromRel, toRel, err)
	}
	return nil
}

// SafeRemove removes a file under root.
func SafeRemove(root, relPath string) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	return os.Remove(resolved)
}

// SafeRemoveAll removes a directory tree under root. Removing root itself is
// refused.
func SafeRemoveAll(root, relPath string) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	realRoot, err := ValidatePath(root, ".")
	if err != nil {
		return err
	}
	if resolved == realRoot {
		return fmt.Errorf("refusing to remove the output root '%s'", realRoot)
	}
	return os.RemoveAll(resolved)
}

// SafeMkdirAll creates directories under root.
func SafeMkdirAll(root, relPath string, perm os.FileMode) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	return os.MkdirAll(resolved, perm)
}

// PruneEmptyDirs removes every empty directory below root, deepest first.
// Root itself and any directory named in keep are left in place.
func PruneEmptyDirs(root string, keep ...string) error {
	realRoot, err := ValidatePath(root, ".")
	if err != nil {
		return err
	}
	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[filepath.Clean(filepath.Join(realRoot, k))] = true
	}

	var dirs []string
	err = filepath.WalkDir(realRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() && path != realRoot && !keepSet[path] {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", realRoot, err)
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		entries, readErr := os.ReadDir(dirs[i])
		if readErr != nil || len(entries) > 0 {
			continue
		}
		_ = os.Remove(dirs[i])
	}
	return nil
}

func writeAtomic(resolved string, perm os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Temp file in the same directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".bundlepack-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := fill(tmp); err != nil {
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
	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}
