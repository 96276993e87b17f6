// Package lineage decides whether a packaging run changed anything,
// publishes the next version when it did and sweeps artifacts no live
// manifest references.
package lineage

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/packager"
	"github.com/bianoble/bundlepack/internal/sandbox"
	"github.com/bianoble/bundlepack/internal/store"
)

// Manager publishes versions for one output target.
type Manager struct {
	OutputDir string
	Settings  config.Settings // defaults already applied
	Platform  string
	AssetRoot string
	Repo      Repository
	Log       *logger.Logger

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Outcome reports what Publish did.
type Outcome struct {
	Changed  bool
	Version  int
	Previous int
	Reasons  []string

	// Written lists files written by the publish, relative to OutputDir.
	Written []string
	GC      *GCResult
}

// NewManager creates a Manager with a DiskRepository under outputDir.
func NewManager(outputDir, platform string, settings config.Settings, log *logger.Logger) *Manager {
	return &Manager{
		OutputDir: outputDir,
		Settings:  settings,
		Platform:  platform,
		AssetRoot: settings.AssetRoot,
		Repo:      &DiskRepository{Dir: outputDir, History: settings.HistoryFolder},
		Log:       log,
	}
}

// Previous returns the latest build record, or nil when there is none.
func (m *Manager) Previous() (*store.BuildRecord, error) {
	cur, err := m.Repo.Current()
	if err != nil || cur == nil {
		return nil, err
	}
	return m.Repo.LoadBuild(cur.Version)
}

// Publish compares the packaged manifests with the live version. When
// anything changed it writes manifest files, bumps the version and records
// the build. A full run also retires live manifests absent from results.
// The output dir is swept either way.
func (m *Manager) Publish(ctx context.Context, results []*packager.Result, fullRun bool) (*Outcome, error) {
	log := m.Log.With("lineage")

	cur, err := m.Repo.Current()
	if err != nil {
		return nil, fmt.Errorf("loading current version: %w", err)
	}

	out := &Outcome{}
	if cur != nil {
		out.Previous = cur.Version
		out.Version = cur.Version
	}
	out.Reasons = m.changes(cur, results, fullRun)
	out.Changed = len(out.Reasons) > 0

	if out.Changed {
		written, next, err := m.publish(ctx, cur, results, fullRun)
		if err != nil {
			return nil, err
		}
		out.Written = written
		out.Version = next.Version
		cur = next
		log.Info("version published",
			logger.Int("version", next.Version),
			logger.Int("previous", out.Previous),
			logger.Int("manifests", len(next.Entries)))
	} else {
		log.Info("nothing changed", logger.Int("version", out.Version))
	}

	if cur != nil {
		// Unpublished results never define the live set.
		var fresh []*packager.Result
		if out.Changed {
			fresh = results
		}
		out.GC = m.Sweep(cur, fresh)
	}
	return out, nil
}

// changes lists why the run differs from cur. Empty means unchanged.
func (m *Manager) changes(cur *store.VersionContainer, results []*packager.Result, fullRun bool) []string {
	var reasons []string
	if cur == nil {
		for _, r := range results {
			reasons = append(reasons, fmt.Sprintf("manifest '%s' is new", r.Manifest.Name))
		}
		return reasons
	}

	built := make(map[string]bool)
	for _, r := range results {
		built[r.Manifest.Name] = true
		entry, ok := cur.Entry(r.Manifest.Name)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("manifest '%s' is new", r.Manifest.Name))
			continue
		}
		prev, err := store.LoadManifest(filepath.Join(m.OutputDir, entry.File))
		if err != nil {
			m.Log.Warn("published manifest unreadable", logger.String("file", entry.File), logger.Err(err))
			reasons = append(reasons, fmt.Sprintf("manifest '%s' has no readable published file", r.Manifest.Name))
			continue
		}
		if diff := compareBundles(prev, &r.Manifest); diff != "" {
			reasons = append(reasons, fmt.Sprintf("manifest '%s': %s", r.Manifest.Name, diff))
		}
	}

	if fullRun {
		for _, e := range cur.Entries {
			if !built[e.Manifest] {
				reasons = append(reasons, fmt.Sprintf("manifest '%s' retired", e.Manifest))
			}
		}
	}
	return reasons
}

// compareBundles summarizes how cur differs from old. A bundle whose hash
// is unchanged but whose file name moved counts as renamed.
func compareBundles(old, cur *store.Manifest) string {
	var added, removed, modified, renamed int
	for _, b := range cur.Bundles {
		prev, ok := old.Bundle(b.Name)
		switch {
		case !ok:
			added++
		case prev.Hash != b.Hash:
			modified++
		case prev.File != b.File:
			renamed++
		}
	}
	for _, b := range old.Bundles {
		if _, ok := cur.Bundle(b.Name); !ok {
			removed++
		}
	}
	if added+removed+modified+renamed == 0 {
		return ""
	}
	return fmt.Sprintf("%d added, %d removed, %d modified, %d renamed", added, removed, modified, renamed)
}

func (m *Manager) publish(ctx context.Context, cur *store.VersionContainer, results []*packager.Result, fullRun bool) ([]string, *store.VersionContainer, error) {
	next := &store.VersionContainer{Version: 1, Timestamp: m.now().Unix()}
	if cur != nil {
		next.Version = cur.Version + 1
		if !fullRun {
			next.Entries = append(next.Entries, cur.Entries...)
		}
	}

	var written []string
	var files []store.FileInfo
	for _, r := range results {
		written = append(written, r.Placed()...)

		data, err := store.Marshal(&r.Manifest)
		if err != nil {
			return nil, nil, err
		}
		hash := fingerprint.Bytes(data)
		name := ManifestFileName(r.Manifest.Name, hash, m.Settings.HashOnly())
		if err := sandbox.SafeWrite(m.OutputDir, name, data, 0644); err != nil {
			return nil, nil, fmt.Errorf("writing manifest %s: %w", name, err)
		}
		written = append(written, name)
		size := int64(len(data))
		next.SetEntry(store.VersionEntry{Manifest: r.Manifest.Name, File: name, Hash: hash, Size: size})
		files = append(files, store.FileInfo{Name: name, Hash: hash, Size: size})
	}

	build, err := m.buildRecord(ctx, next, results, files)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Repo.Publish(next, build); err != nil {
		return nil, nil, fmt.Errorf("publishing version %d: %w", next.Version, err)
	}
	written = append(written, CurrentFile)
	sort.Strings(written)
	return written, next, nil
}

func (m *Manager) buildRecord(ctx context.Context, v *store.VersionContainer, results []*packager.Result, files []store.FileInfo) (*store.BuildRecord, error) {
	data, err := store.Marshal(v)
	if err != nil {
		return nil, err
	}
	build := &store.BuildRecord{
		Version:   v.Version,
		Timestamp: v.Timestamp,
		BuildID:   m.newID(),
		Platform:  m.Platform,
		Files: append([]store.FileInfo{{
			Name: CurrentFile, Hash: fingerprint.Bytes(data), Size: int64(len(data)),
		}}, files...),
	}

	rebuilt := make(map[string]*packager.Result)
	for _, r := range results {
		rebuilt[r.Manifest.Name] = r
	}

	var prev *store.BuildRecord
	for _, e := range v.Entries {
		if r, ok := rebuilt[e.Manifest]; ok {
			rec, err := m.manifestRecord(ctx, r)
			if err != nil {
				return nil, err
			}
			build.Manifests = append(build.Manifests, rec)
			continue
		}
		// Untouched manifests keep their last record.
		if prev == nil {
			p, err := m.Repo.LoadBuild(v.Version - 1)
			if err != nil {
				m.Log.Warn("previous build record unavailable", logger.Err(err))
				p = &store.BuildRecord{}
			}
			prev = p
		}
		if rec, ok := prev.Manifest(e.Manifest); ok {
			build.Manifests = append(build.Manifests, *rec)
		}
	}
	return build, nil
}

func (m *Manager) manifestRecord(ctx context.Context, r *packager.Result) (store.ManifestRecord, error) {
	rec := store.ManifestRecord{Name: r.Manifest.Name}
	for _, b := range r.Built {
		rec.Bundles = append(rec.Bundles, store.BundleRecord{
			Group:      b.Group,
			Name:       b.Bundle.Name,
			Size:       b.Bundle.Size,
			Hash:       b.Bundle.Hash,
			SourceHash: b.SourceHash,
			Raw:        b.Bundle.Raw,
		})
	}
	if !m.Settings.RecordAssetHashes {
		return rec, nil
	}

	// Hash every compiled bundle's sources in parallel.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range rec.Bundles {
		if rec.Bundles[i].Raw {
			continue
		}
		sources := r.Built[i].Bundle.Sources
		assets := make([]store.AssetRecord, len(sources))
		rec.Bundles[i].Assets = assets
		for j, src := range sources {
			j, src := j, src
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				hash, size, err := fingerprint.File(filepath.Join(m.AssetRoot, filepath.FromSlash(src)))
				if err != nil {
					return err
				}
				assets[j] = store.AssetRecord{Path: src, Size: size, Hash: hash}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return store.ManifestRecord{}, fmt.Errorf("hashing assets of manifest '%s': %w", r.Manifest.Name, err)
	}
	return rec, nil
}

// ManifestFileName is the published name of a manifest file.
func ManifestFileName(manifest, hash string, hashOnly bool) string {
	if hashOnly {
		return hash + ".manifest"
	}
	return manifest + "_" + hash + ".manifest"
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}
