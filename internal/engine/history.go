package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bianoble/bundlepack/internal/lineage"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/progress"
	"github.com/bianoble/bundlepack/internal/snapdiff"
	"github.com/bianoble/bundlepack/internal/store"
)

// HistoryEngine reads, compares and purges recorded versions.
type HistoryEngine struct {
	Workspace *Workspace
	Reporter  progress.Reporter
}

// Current returns the live version container, or nil before the first
// publish.
func (e *HistoryEngine) Current() (*store.VersionContainer, error) {
	mgr, err := e.Workspace.Lineage()
	if err != nil {
		return nil, err
	}
	return mgr.Repo.Current()
}

// History lists every recorded version, oldest first.
func (e *HistoryEngine) History() ([]HistoryEntry, error) {
	mgr, err := e.Workspace.Lineage()
	if err != nil {
		return nil, err
	}
	versions, err := mgr.Repo.Versions()
	if err != nil {
		return nil, err
	}
	cur, err := mgr.Repo.Current()
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	for _, v := range versions {
		h := HistoryEntry{Version: v, Current: cur != nil && cur.Version == v}
		build, err := mgr.Repo.LoadBuild(v)
		if err != nil {
			e.Workspace.Log.Warn("build record unreadable", logger.Int("version", v), logger.Err(err))
			entries = append(entries, h)
			continue
		}
		h.Timestamp = build.Timestamp
		h.BuildID = build.BuildID
		h.Platform = build.Platform
		h.Bundles, h.Size = build.Totals()
		entries = append(entries, h)
	}
	return entries, nil
}

// Diff compares two recorded versions. newVersion 0 means the current one
// and oldVersion 0 means the one before newVersion.
func (e *HistoryEngine) Diff(ctx context.Context, oldVersion, newVersion int) (*snapdiff.Report, error) {
	mgr, err := e.Workspace.Lineage()
	if err != nil {
		return nil, err
	}
	oldRec, newRec, err := e.records(mgr, oldVersion, newVersion)
	if err != nil {
		return nil, err
	}
	return snapdiff.Diff(ctx, oldRec, newRec, e.Reporter)
}

// Listing renders a unified diff of two versions' bundle listings.
func (e *HistoryEngine) Listing(oldVersion, newVersion int) (string, error) {
	mgr, err := e.Workspace.Lineage()
	if err != nil {
		return "", err
	}
	oldRec, newRec, err := e.records(mgr, oldVersion, newVersion)
	if err != nil {
		return "", err
	}
	return snapdiff.UnifiedListing(oldRec, newRec, 3)
}

func (e *HistoryEngine) records(mgr *lineage.Manager, oldVersion, newVersion int) (*store.BuildRecord, *store.BuildRecord, error) {
	if newVersion == 0 {
		cur, err := mgr.Repo.Current()
		if err != nil {
			return nil, nil, err
		}
		if cur == nil {
			return nil, nil, fmt.Errorf("nothing published yet")
		}
		newVersion = cur.Version
	}
	if oldVersion == 0 {
		oldVersion = newVersion - 1
	}
	if oldVersion < 1 {
		return nil, nil, fmt.Errorf("version %d has no predecessor", newVersion)
	}
	oldRec, err := mgr.Repo.LoadBuild(oldVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("loading version %d: %w", oldVersion, err)
	}
	newRec, err := mgr.Repo.LoadBuild(newVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("loading version %d: %w", newVersion, err)
	}
	return oldRec, newRec, nil
}

// Purge removes the history of every version except the newest keep. keep
// 0 uses settings.history_keep.
func (e *HistoryEngine) Purge(keep int) (*lineage.PurgeResult, error) {
	if keep == 0 {
		keep = e.Workspace.Settings().HistoryKeep
	}
	mgr, err := e.Workspace.Lineage()
	if err != nil {
		return nil, err
	}
	return mgr.Purge(keep)
}

func sizeString(n int64) string {
	return strconv.FormatInt(n, 10) + " bytes"
}
