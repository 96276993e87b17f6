package engine

import (
	"github.com/bianoble/bundlepack/internal/grouping"
	"github.com/bianoble/bundlepack/internal/upload"
)

// ManifestResult summarizes one packaged manifest.
type ManifestResult struct {
	Name        string
	Bundles     int
	Placed      int
	Processed   int
	AutoGrouped int
	Dropped     int
}

// PlannedManifest is the post-closure assignment set of one manifest.
type PlannedManifest struct {
	Name        string
	Assignments []grouping.Assignment
	AutoGrouped int
	Dropped     int
}

// PackageResult holds the outcome of a package operation.
type PackageResult struct {
	Manifests []ManifestResult
	Plans     []PlannedManifest // dry run only
	Problems  []grouping.ValidationError

	Changed  bool
	Version  int
	Previous int
	Reasons  []string
	Written  []string

	Removed  []string
	GCErrors []string

	Upload *upload.Result
}

// DriftEntry is a live file whose content no longer matches its record.
type DriftEntry struct {
	Path     string
	Expected string
	Actual   string
}

// CheckResult holds the outcome of a check operation.
type CheckResult struct {
	Version int
	Clean   bool
	Checked int
	Drifted []DriftEntry
	Missing []string
}

// HistoryEntry describes one recorded version.
type HistoryEntry struct {
	Version   int
	Timestamp int64
	BuildID   string
	Platform  string
	Bundles   int
	Size      int64
	Current   bool
}
