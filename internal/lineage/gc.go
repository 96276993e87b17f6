package lineage

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/packager"
	"github.com/bianoble/bundlepack/internal/sandbox"
	"github.com/bianoble/bundlepack/internal/store"
)

// GCResult lists what a sweep removed. Deletions are best effort: failures
// are collected, never returned.
type GCResult struct {
	Live    int
	Removed []string
	Errors  []string
}

// LiveFiles returns every file the container keeps alive, relative to the
// output dir: the container itself, its manifest files and every artifact
// they reference. Manifests in fresh are used instead of reading their
// published files.
func (m *Manager) LiveFiles(cur *store.VersionContainer, fresh []*packager.Result) (map[string]bool, []string) {
	live := map[string]bool{CurrentFile: true}
	var problems []string

	byName := make(map[string]*store.Manifest)
	for _, r := range fresh {
		byName[r.Manifest.Name] = &r.Manifest
	}

	for _, e := range cur.Entries {
		live[filepath.ToSlash(e.File)] = true
		manifest, ok := byName[e.Manifest]
		if !ok {
			loaded, err := store.LoadManifest(filepath.Join(m.OutputDir, e.File))
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			manifest = loaded
		}
		for _, f := range manifest.Files() {
			live[filepath.ToSlash(f)] = true
		}
	}
	return live, problems
}

// Sweep deletes every file under the output dir that cur does not keep
// alive, except the history folder, then prunes empty folders. A live
// manifest that cannot be read stops the sweep so its artifacts survive.
func (m *Manager) Sweep(cur *store.VersionContainer, fresh []*packager.Result) *GCResult {
	log := m.Log.With("gc")
	res := &GCResult{}

	live, problems := m.LiveFiles(cur, fresh)
	res.Live = len(live)
	if len(problems) > 0 {
		res.Errors = problems
		log.Warn("sweep skipped, live set incomplete", logger.Int("problems", len(problems)))
		return res
	}

	history := filepath.Clean(m.Settings.HistoryFolder)
	err := filepath.WalkDir(m.OutputDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			res.Errors = append(res.Errors, walkErr.Error())
			return nil
		}
		rel, err := filepath.Rel(m.OutputDir, p)
		if err != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if strings.EqualFold(rel, history) {
				return filepath.SkipDir
			}
			return nil
		}
		slash := filepath.ToSlash(rel)
		if live[slash] {
			return nil
		}
		if err := sandbox.SafeRemove(m.OutputDir, rel); err != nil {
			res.Errors = append(res.Errors, err.Error())
			log.Warn("removing stale file failed", logger.String("file", slash), logger.Err(err))
			return nil
		}
		res.Removed = append(res.Removed, slash)
		return nil
	})
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
	}
	if err := sandbox.PruneEmptyDirs(m.OutputDir, history); err != nil {
		res.Errors = append(res.Errors, err.Error())
	}

	sort.Strings(res.Removed)
	if len(res.Removed) > 0 {
		log.Info("stale files removed", logger.Int("count", len(res.Removed)))
	}
	return res
}

// PurgeResult lists the history versions a purge removed.
type PurgeResult struct {
	Kept    []int
	Removed []int
	Errors  []string
}

// Purge deletes the numbered history of every version except the newest
// keep ones. The current version is always kept. keep <= 0 keeps
// everything.
func (m *Manager) Purge(keep int) (*PurgeResult, error) {
	res := &PurgeResult{}
	versions, err := m.Repo.Versions()
	if err != nil {
		return nil, err
	}
	cur, err := m.Repo.Current()
	if err != nil {
		return nil, err
	}
	if keep <= 0 || len(versions) <= keep {
		res.Kept = versions
		return res, nil
	}

	cutoff := len(versions) - keep
	for i, v := range versions {
		if i >= cutoff || (cur != nil && v == cur.Version) {
			res.Kept = append(res.Kept, v)
			continue
		}
		if err := m.Repo.Remove(v); err != nil {
			res.Errors = append(res.Errors, err.Error())
			m.Log.Warn("removing history failed", logger.Int("version", v), logger.Err(err))
			continue
		}
		res.Removed = append(res.Removed, v)
	}
	return res, nil
}
