package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/progress"
	"github.com/bianoble/bundlepack/internal/store"
)

// CheckEngine verifies that the live version's files are intact.
type CheckEngine struct {
	Workspace *Workspace
}

// Check compares every manifest file and compiled artifact referenced by
// the live version against its recorded hash. Raw files are only checked
// for presence and size. Clean is true when nothing drifted or is missing.
func (e *CheckEngine) Check(ctx context.Context) (*CheckResult, error) {
	out, err := e.Workspace.OutputDir()
	if err != nil {
		return nil, err
	}
	mgr, err := e.Workspace.Lineage()
	if err != nil {
		return nil, err
	}
	cur, err := mgr.Repo.Current()
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Clean: true}
	if cur == nil {
		return result, nil
	}
	result.Version = cur.Version

	for _, entry := range cur.Entries {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		if !e.verify(result, out, entry.File, entry.Hash, -1) {
			continue
		}
		m, err := store.LoadManifest(filepath.Join(out, entry.File))
		if err != nil {
			return nil, err
		}
		for _, b := range m.Bundles {
			if b.Raw {
				e.verify(result, out, b.File, "", b.Size)
				continue
			}
			e.verify(result, out, b.File, b.Hash, -1)
		}
	}
	return result, nil
}

// verify records one file and reports whether it is present and intact.
// An empty hash checks size instead.
func (e *CheckEngine) verify(result *CheckResult, out, rel, hash string, size int64) bool {
	result.Checked++
	actual, actualSize, err := fingerprint.File(filepath.Join(out, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Missing = append(result.Missing, rel)
		} else {
			result.Drifted = append(result.Drifted, DriftEntry{Path: rel, Expected: hash, Actual: err.Error()})
		}
		result.Clean = false
		return false
	}
	if hash != "" && actual != hash {
		result.Drifted = append(result.Drifted, DriftEntry{Path: rel, Expected: hash, Actual: actual})
		result.Clean = false
		return false
	}
	if size >= 0 && actualSize != size {
		result.Drifted = append(result.Drifted, DriftEntry{Path: rel, Expected: sizeString(size), Actual: sizeString(actualSize)})
		result.Clean = false
		return false
	}
	return true
}
