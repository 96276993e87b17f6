// Package depgraph computes dependency closures for bundled assets and
// promotes shared dependencies into their own bundles.
package depgraph

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bianoble/bundlepack/internal/grouping"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/progress"
)

// PhaseDependencies names the progress phase reported by Resolve.
const PhaseDependencies = "dependencies"

// Options configures dependency filtering and progress reporting.
type Options struct {
	ExcludedExtensions []string
	EditorFolder       string
	Reporter           progress.Reporter
	Log                *logger.Logger
}

// Result is the post-closure assignment set of one manifest.
type Result struct {
	// Assignments holds the deduplicated primaries in input order followed
	// by the synthesized dependency bundles.
	Assignments []grouping.Assignment
	AutoGrouped []grouping.Assignment
	Dropped     []grouping.Assignment

	// Owners maps each dependency to the sorted sources that reference it.
	Owners map[string][]string
}

// Resolve deduplicates the compiled assignments (first occurrence wins),
// walks the references of every dependency-aware one and gives each
// dependency owned by two or more assets its own folder bundle, unless it
// is already assigned. Raw assignments pass through untouched.
//
// Resolve checks ctx between assets. On cancellation it returns an error
// wrapping progress.ErrCancelled and no partial result.
func Resolve(ctx context.Context, scanner Scanner, assignments []grouping.Assignment, opts Options) (*Result, error) {
	res := &Result{Owners: make(map[string][]string)}

	// Drop duplicate compiled sources.
	assigned := make(map[string]bool)
	var scanned []grouping.Assignment
	for _, a := range assignments {
		if a.Raw {
			res.Assignments = append(res.Assignments, a)
			continue
		}
		if assigned[a.Source] {
			res.Dropped = append(res.Dropped, a)
			opts.Log.Debug("duplicate assignment dropped",
				logger.String("source", a.Source), logger.String("group", a.Group))
			continue
		}
		assigned[a.Source] = true
		res.Assignments = append(res.Assignments, a)
		if a.Dependencies {
			scanned = append(scanned, a)
		}
	}

	// Walk references and build the reverse index.
	owners := make(map[string]map[string]bool)
	w := &walker{scanner: scanner, opts: opts, cache: make(map[string][]string)}
	for i, a := range scanned {
		if err := progress.Step(ctx, opts.Reporter, progress.Progress{
			Phase: PhaseDependencies, Done: i, Total: len(scanned), Current: a.Source,
		}); err != nil {
			return nil, err
		}
		deps, err := w.closure(ctx, a.Source)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if owners[d] == nil {
				owners[d] = make(map[string]bool)
			}
			owners[d][a.Source] = true
		}
	}
	opts.Reporter.Report(progress.Progress{Phase: PhaseDependencies, Done: len(scanned), Total: len(scanned)})

	deps := make([]string, 0, len(owners))
	for d, set := range owners {
		deps = append(deps, d)
		list := make([]string, 0, len(set))
		for o := range set {
			list = append(list, o)
		}
		sort.Strings(list)
		res.Owners[d] = list
	}
	sort.Strings(deps)

	// Promote shared dependencies.
	for _, d := range deps {
		if len(res.Owners[d]) < 2 || assigned[d] {
			continue
		}
		assigned[d] = true
		a := grouping.Assignment{Source: d, Bundle: grouping.FolderBundle(d)}
		res.AutoGrouped = append(res.AutoGrouped, a)
		res.Assignments = append(res.Assignments, a)
	}

	opts.Log.Debug("dependency closure complete",
		logger.Int("scanned", len(scanned)),
		logger.Int("dependencies", len(deps)),
		logger.Int("auto_grouped", len(res.AutoGrouped)))
	return res, nil
}

type walker struct {
	scanner Scanner
	opts    Options
	cache   map[string][]string
}

// closure returns the sorted transitive references of root, excluding root
// itself and every filtered path. Filtered paths are not followed.
func (w *walker) closure(ctx context.Context, root string) ([]string, error) {
	seen := map[string]bool{root: true}
	queue := []string{root}
	var out []string
	for len(queue) > 0 {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]
		deps, err := w.direct(cur)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if seen[d] {
				continue
			}
			seen[d] = true
			if w.excluded(d) {
				continue
			}
			out = append(out, d)
			queue = append(queue, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (w *walker) direct(p string) ([]string, error) {
	if deps, ok := w.cache[p]; ok {
		return deps, nil
	}
	deps, err := w.scanner.GetDependencies(p)
	if err != nil {
		return nil, fmt.Errorf("scanning dependencies of %s: %w", p, err)
	}
	w.cache[p] = deps
	return deps, nil
}

func (w *walker) excluded(p string) bool {
	return Excluded(p, w.opts.ExcludedExtensions, w.opts.EditorFolder)
}

// Excluded reports whether p can never be a dependency: it has one of the
// excluded extensions or sits below an editor-only folder.
func Excluded(p string, extensions []string, editorFolder string) bool {
	lower := strings.ToLower(p)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	if editorFolder == "" {
		return false
	}
	for _, part := range strings.Split(path.Dir(p), "/") {
		if strings.EqualFold(part, editorFolder) {
			return true
		}
	}
	return false
}
