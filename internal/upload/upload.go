// Package upload prepares the local "ready to upload" copy of a published
// version. Nothing is sent anywhere.
package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/sandbox"
)

// ChangedList is the name of the file listing every staged file.
const ChangedList = "changed.txt"

// Stager copies published files into <dir>/<platform>/v<version>/.
// Copies are verified against the source hash.
type Stager struct {
	dir string
}

// New creates a Stager rooted at dir, creating it if needed.
func New(dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory %s: %w", dir, err)
	}
	return &Stager{dir: dir}, nil
}

// Result describes one staged version.
type Result struct {
	Dir   string
	Files []string
	Bytes int64
}

// VersionDir returns the staging folder of a version, relative to the
// stager root.
func VersionDir(platform string, version int) string {
	return filepath.Join(platform, fmt.Sprintf("v%d", version))
}

// Stage copies files (relative to outputDir) and writes changed.txt. An
// existing staging folder for the same version is replaced.
func (s *Stager) Stage(outputDir, platform string, version int, files []string) (*Result, error) {
	rel := VersionDir(platform, version)
	if err := sandbox.SafeRemoveAll(s.dir, rel); err != nil {
		return nil, fmt.Errorf("clearing %s: %w", rel, err)
	}

	res := &Result{Dir: filepath.Join(s.dir, rel)}
	for _, f := range files {
		src := filepath.Join(outputDir, filepath.FromSlash(f))
		want, size, err := fingerprint.File(src)
		if err != nil {
			return nil, err
		}
		dest := filepath.Join(rel, filepath.FromSlash(f))
		if err := sandbox.SafeCopy(s.dir, dest, src); err != nil {
			return nil, err
		}

		// Verify the copy before listing it.
		got, _, err := fingerprint.File(filepath.Join(s.dir, dest))
		if err != nil {
			return nil, err
		}
		if got != want {
			_ = sandbox.SafeRemove(s.dir, dest)
			return nil, fmt.Errorf("staged copy of %s has hash %s, expected %s", f, got, want)
		}
		res.Files = append(res.Files, filepath.ToSlash(f))
		res.Bytes += size
	}

	list := strings.Join(res.Files, "\n")
	if list != "" {
		list += "\n"
	}
	if err := sandbox.SafeWrite(s.dir, filepath.Join(rel, ChangedList), []byte(list), 0644); err != nil {
		return nil, err
	}
	return res, nil
}

// Size returns the total size of everything staged, in bytes.
func (s *Stager) Size() (int64, error) {
	var total int64
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Path returns the stager root.
func (s *Stager) Path() string {
	return s.dir
}
