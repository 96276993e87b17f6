package lineage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/bianoble/bundlepack/internal/store"
)

// CurrentFile is the well-known name of the live version container.
const CurrentFile = "version.yaml"

// Repository stores the live version container and its numbered history.
type Repository interface {
	// Current returns the live container, or nil when nothing was published.
	Current() (*store.VersionContainer, error)
	// Publish replaces the live container and records version v's history.
	Publish(v *store.VersionContainer, build *store.BuildRecord) error
	Versions() ([]int, error)
	LoadVersion(n int) (*store.VersionContainer, error)
	LoadBuild(n int) (*store.BuildRecord, error)
	// Remove deletes the history of version n.
	Remove(n int) error
}

// DiskRepository keeps history as flat numbered YAML files:
// <dir>/version.yaml plus <dir>/<history>/version_<n>.yaml and build_<n>.yaml.
type DiskRepository struct {
	Dir     string
	History string
}

var historyFile = regexp.MustCompile(`^version_(\d+)\.yaml$`)

// VersionFile returns the history path of container n relative to Dir.
func (r *DiskRepository) VersionFile(n int) string {
	return filepath.Join(r.History, fmt.Sprintf("version_%d.yaml", n))
}

// BuildFile returns the history path of build record n relative to Dir.
func (r *DiskRepository) BuildFile(n int) string {
	return filepath.Join(r.History, fmt.Sprintf("build_%d.yaml", n))
}

// Current loads version.yaml.
func (r *DiskRepository) Current() (*store.VersionContainer, error) {
	v, err := store.LoadVersion(filepath.Join(r.Dir, CurrentFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return v, err
}

// Publish writes the numbered copies first so the live file never points
// at a version without history.
func (r *DiskRepository) Publish(v *store.VersionContainer, build *store.BuildRecord) error {
	if err := os.MkdirAll(filepath.Join(r.Dir, r.History), 0755); err != nil {
		return fmt.Errorf("creating history folder: %w", err)
	}
	if err := store.Save(filepath.Join(r.Dir, r.BuildFile(v.Version)), build); err != nil {
		return err
	}
	if err := store.Save(filepath.Join(r.Dir, r.VersionFile(v.Version)), v); err != nil {
		return err
	}
	return store.Save(filepath.Join(r.Dir, CurrentFile), v)
}

// Versions lists recorded version numbers in ascending order.
func (r *DiskRepository) Versions() ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(r.Dir, r.History))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var versions []int
	for _, e := range entries {
		m := historyFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		versions = append(versions, n)
	}
	sort.Ints(versions)
	return versions, nil
}

func (r *DiskRepository) LoadVersion(n int) (*store.VersionContainer, error) {
	return store.LoadVersion(filepath.Join(r.Dir, r.VersionFile(n)))
}

func (r *DiskRepository) LoadBuild(n int) (*store.BuildRecord, error) {
	return store.LoadBuild(filepath.Join(r.Dir, r.BuildFile(n)))
}

// Remove deletes both history files of version n. Missing files are not an
// error.
func (r *DiskRepository) Remove(n int) error {
	var errs []error
	for _, rel := range []string{r.VersionFile(n), r.BuildFile(n)} {
		if err := os.Remove(filepath.Join(r.Dir, rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
