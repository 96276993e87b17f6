package bundlepack

import (
	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/bianoble/bundlepack/internal/lineage"
	"github.com/bianoble/bundlepack/internal/snapdiff"
)

// Type aliases re-export engine result types as the public API.

type PackageResult = engine.PackageResult
type ManifestResult = engine.ManifestResult
type PlannedManifest = engine.PlannedManifest
type CheckResult = engine.CheckResult
type DriftEntry = engine.DriftEntry
type StatusResult = engine.StatusResult
type HistoryEntry = engine.HistoryEntry
type PurgeResult = lineage.PurgeResult
type DiffReport = snapdiff.Report
