package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/store"
	"github.com/bianoble/bundlepack/internal/upload"
)

// StatusEngine summarizes the live version of the active platform.
type StatusEngine struct {
	Workspace *Workspace
}

// EntryStatus describes one published manifest.
type EntryStatus struct {
	Manifest string
	File     string
	Size     int64
	Bundles  int
	State    string // "ok", "drifted", "missing"
}

// PlatformInfo describes a known platform.
type PlatformInfo struct {
	Name     string
	Folder   string
	IsCustom bool
	Active   bool
}

// StatusResult holds the outcome of a status operation.
type StatusResult struct {
	Platform  string
	OutputDir string
	Version   int
	Timestamp int64
	Entries   []EntryStatus
	Platforms []PlatformInfo
	Versions  int

	UploadDir  string
	UploadSize int64
}

// Status reports the live version, its manifests and the known platforms.
func (e *StatusEngine) Status(ctx context.Context) (*StatusResult, error) {
	ws := e.Workspace
	out, err := ws.OutputDir()
	if err != nil {
		return nil, err
	}
	mgr, err := ws.Lineage()
	if err != nil {
		return nil, err
	}

	r := &StatusResult{Platform: ws.ActivePlatform(), OutputDir: out, UploadDir: ws.UploadDir()}
	for _, name := range ws.platforms().Known() {
		folder, _ := ws.platforms().Folder(name)
		r.Platforms = append(r.Platforms, PlatformInfo{
			Name:     name,
			Folder:   folder,
			IsCustom: ws.platforms().IsCustom(name),
			Active:   strings.EqualFold(name, r.Platform),
		})
	}

	versions, err := mgr.Repo.Versions()
	if err != nil {
		return nil, err
	}
	r.Versions = len(versions)

	cur, err := mgr.Repo.Current()
	if err != nil {
		return nil, err
	}
	if cur != nil {
		r.Version = cur.Version
		r.Timestamp = cur.Timestamp
		for _, entry := range cur.Entries {
			r.Entries = append(r.Entries, entryStatus(out, entry))
		}
	}

	if r.UploadDir != "" {
		if _, err := os.Stat(r.UploadDir); err == nil {
			if stager, err := upload.New(r.UploadDir); err == nil {
				r.UploadSize, _ = stager.Size()
			}
		}
	}
	return r, nil
}

func entryStatus(out string, entry store.VersionEntry) EntryStatus {
	s := EntryStatus{Manifest: entry.Manifest, File: entry.File, Size: entry.Size, State: "ok"}
	path := filepath.Join(out, entry.File)
	hash, _, err := fingerprint.File(path)
	if err != nil {
		s.State = "missing"
		return s
	}
	if hash != entry.Hash {
		s.State = "drifted"
		return s
	}
	if m, err := store.LoadManifest(path); err == nil {
		s.Bundles = len(m.Bundles)
	}
	return s
}
