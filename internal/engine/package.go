package engine

import (
	"context"
	"fmt"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/depgraph"
	"github.com/bianoble/bundlepack/internal/grouping"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/packager"
	"github.com/bianoble/bundlepack/internal/progress"
	"github.com/bianoble/bundlepack/internal/upload"
)

// PackageEngine runs grouping, dependency closure, packaging and
// publishing.
type PackageEngine struct {
	Workspace *Workspace

	// Scanner, Compiler and Post default to the workspace's.
	Scanner  depgraph.Scanner
	Compiler packager.Compiler
	Post     packager.PostProcessor
	Reporter progress.Reporter
}

// PackageOptions configures a package operation.
type PackageOptions struct {
	Manifests []string // empty means every configured manifest
	DryRun    bool
}

// Package packages the selected manifests and publishes a new version
// when anything changed. Every manifest is grouped and analysed before the
// first artifact is written, so a cancelled run writes nothing; the
// returned error then wraps progress.ErrCancelled. A packaging failure
// aborts the run before publishing.
func (e *PackageEngine) Package(ctx context.Context, opts PackageOptions) (*PackageResult, error) {
	ws := e.Workspace
	log := ws.Log.With("engine")
	cfg := ws.Config

	manifests, fullRun, err := selectManifests(cfg, opts.Manifests)
	if err != nil {
		return nil, err
	}

	scanner := e.Scanner
	if scanner == nil {
		if scanner, err = ws.Scanner(); err != nil {
			return nil, err
		}
	}

	result := &PackageResult{}

	// Group and analyse every manifest first.
	plans, err := e.plan(ctx, manifests, scanner, result)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		result.Plans = plans
		return result, nil
	}

	out, err := ws.OutputDir()
	if err != nil {
		return nil, err
	}
	mgr, err := ws.Lineage()
	if err != nil {
		return nil, err
	}
	previous, err := mgr.Previous()
	if err != nil {
		log.Warn("previous build record unavailable", logger.Err(err))
		previous = nil
	}

	comp := e.Compiler
	if comp == nil {
		comp = ws.Compiler(scanner)
	}
	post := e.Post
	if post == nil {
		post = ws.PostProcessor()
	}
	settings := ws.Settings()
	pk := &packager.Packager{
		Settings:  settings,
		Compiler:  comp,
		Post:      post,
		AssetRoot: settings.AssetRoot,
		Log:       ws.Log,
	}

	var packaged []*packager.Result
	for _, plan := range plans {
		in := packager.Input{
			Manifest:    plan.Name,
			OutputDir:   out,
			Platform:    settings.Platform,
			Assignments: plan.Assignments,
		}
		if previous != nil {
			if rec, ok := previous.Manifest(plan.Name); ok {
				in.Previous = rec
			}
		}
		res, err := pk.Package(ctx, in)
		if err != nil {
			return nil, err
		}
		packaged = append(packaged, res)
		result.Manifests = append(result.Manifests, ManifestResult{
			Name:        plan.Name,
			Bundles:     len(res.Manifest.Bundles),
			Placed:      len(res.Placed()),
			Processed:   res.Processed(),
			AutoGrouped: plan.AutoGrouped,
			Dropped:     plan.Dropped,
		})
	}

	outcome, err := mgr.Publish(ctx, packaged, fullRun)
	if err != nil {
		return nil, err
	}
	result.Changed = outcome.Changed
	result.Version = outcome.Version
	result.Previous = outcome.Previous
	result.Reasons = outcome.Reasons
	result.Written = outcome.Written
	if outcome.GC != nil {
		result.Removed = outcome.GC.Removed
		result.GCErrors = outcome.GC.Errors
	}

	if outcome.Changed && ws.UploadDir() != "" {
		staged, err := e.stage(out, outcome.Version, outcome.Written)
		if err != nil {
			return nil, fmt.Errorf("staging upload for version %d: %w", outcome.Version, err)
		}
		result.Upload = staged
	}
	return result, nil
}

func (e *PackageEngine) plan(ctx context.Context, manifests []config.Manifest, scanner depgraph.Scanner, result *PackageResult) ([]PlannedManifest, error) {
	ws := e.Workspace
	settings := ws.Settings()
	grouper := &grouping.Engine{
		Settings:    settings,
		Tree:        ws.Tree(),
		Platform:    settings.Platform,
		ProjectRoot: ws.ProjectRoot,
		Log:         ws.Log.With("grouping"),
	}

	var plans []PlannedManifest
	for _, m := range manifests {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		plan, err := grouper.Plan(ctx, m.Groups)
		if err != nil {
			return nil, fmt.Errorf("manifest '%s': %w", m.Name, err)
		}
		result.Problems = append(result.Problems, plan.Problems...)

		closure, err := depgraph.Resolve(ctx, scanner, plan.Assignments, depgraph.Options{
			ExcludedExtensions: settings.ExcludedExtensions,
			EditorFolder:       settings.EditorFolder,
			Reporter:           e.Reporter,
			Log:                ws.Log.With("depgraph"),
		})
		if err != nil {
			return nil, fmt.Errorf("manifest '%s': %w", m.Name, err)
		}
		plans = append(plans, PlannedManifest{
			Name:        m.Name,
			Assignments: closure.Assignments,
			AutoGrouped: len(closure.AutoGrouped),
			Dropped:     len(closure.Dropped),
		})
	}
	return plans, nil
}

func (e *PackageEngine) stage(outputDir string, version int, files []string) (*upload.Result, error) {
	folder, err := e.Workspace.PlatformFolder()
	if err != nil {
		return nil, err
	}
	stager, err := upload.New(e.Workspace.UploadDir())
	if err != nil {
		return nil, err
	}
	return stager.Stage(outputDir, folder, version, files)
}

// selectManifests returns the named manifests in config order and whether
// they cover the whole config.
func selectManifests(cfg *config.Config, names []string) ([]config.Manifest, bool, error) {
	if len(names) == 0 {
		return cfg.Manifests, true, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := cfg.FindManifest(n); !ok {
			return nil, false, fmt.Errorf("unknown manifest '%s'", n)
		}
		want[n] = true
	}
	var out []config.Manifest
	for _, m := range cfg.Manifests {
		if want[m.Name] {
			out = append(out, m)
		}
	}
	return out, len(out) == len(cfg.Manifests), nil
}
