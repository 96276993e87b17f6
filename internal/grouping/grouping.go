// Package grouping turns configured groups into a flat list of
// source-to-bundle assignments.
package grouping

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/platform"
	"github.com/bianoble/bundlepack/internal/source"
)

// Assignment maps one source item to the bundle it is packed into.
type Assignment struct {
	Source string // slash path relative to the asset root, or to ExternalOrigin's tree
	Bundle string
	Group  string // empty for synthesized dependency bundles
	Raw    bool

	// Dependencies marks assignments whose references are analysed.
	Dependencies bool

	// ExternalOrigin is the absolute path of a raw file that lives outside
	// the asset root.
	ExternalOrigin string

	// PlacementFolder is the output sub-folder of a raw file.
	PlacementFolder string
}

// ValidationError reports a group that was skipped because its
// configuration cannot be used.
type ValidationError struct {
	Group   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("group '%s': %s", e.Group, e.Message)
}

// Plan is the grouping result for one manifest.
type Plan struct {
	Assignments []Assignment
	Problems    []ValidationError
}

// Dependent returns the assignments that need dependency analysis.
func (p *Plan) Dependent() []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if a.Dependencies && !a.Raw {
			out = append(out, a)
		}
	}
	return out
}

// Direct returns the assignments that go straight to the packager.
func (p *Plan) Direct() []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if !a.Dependencies || a.Raw {
			out = append(out, a)
		}
	}
	return out
}

// Engine resolves groups against an asset tree.
type Engine struct {
	Settings    config.Settings // defaults already applied
	Tree        *source.Tree
	Platform    string
	ProjectRoot string // base for relative external paths
	Log         *logger.Logger
}

// Plan resolves every group in order. Unusable groups are skipped and
// reported in Plan.Problems; only walk failures and cancellation are
// returned as errors.
func (e *Engine) Plan(ctx context.Context, groups []config.Group) (*Plan, error) {
	plan := &Plan{}
	for _, g := range groups {
		if g.Disabled {
			e.Log.Debug("group disabled", logger.String("group", g.Name))
			continue
		}
		if g.Mode == config.ModeRaw && !platform.Allowed(g.Platforms, e.Platform) {
			e.Log.Debug("group excluded for platform",
				logger.String("group", g.Name), logger.String("platform", e.Platform))
			continue
		}

		assignments, problem, err := e.resolve(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("group '%s': %w", g.Name, err)
		}
		if problem != "" {
			ve := ValidationError{Group: g.Name, Message: problem}
			e.Log.Warn("group skipped", logger.String("group", g.Name), logger.String("reason", problem))
			plan.Problems = append(plan.Problems, ve)
			continue
		}
		plan.Assignments = append(plan.Assignments, assignments...)
	}
	return plan, nil
}

func (e *Engine) resolve(ctx context.Context, g config.Group) ([]Assignment, string, error) {
	switch g.Mode {
	case config.ModeRaw:
		return e.resolveRaw(ctx, g)
	case config.ModeMatchedFolder:
		return e.resolveMatched(ctx, g)
	case config.ModeWholeGroup:
		if g.BundleName == "" {
			return nil, "whole_group mode requires 'bundle_name'", nil
		}
	case config.ModeIndividual, config.ModeByFolder:
	default:
		return nil, fmt.Sprintf("unknown mode '%s'", g.Mode), nil
	}

	paths, problem, err := e.selectPaths(ctx, e.Tree, g)
	if problem != "" || err != nil {
		return nil, problem, err
	}
	out := make([]Assignment, 0, len(paths))
	for _, p := range paths {
		mode := g.Mode
		if e.isScene(p) {
			mode = config.ModeIndividual
		}
		out = append(out, Assignment{
			Source:       p,
			Bundle:       BundleName(p, mode, g.BundleName),
			Group:        g.Name,
			Dependencies: g.Dependencies,
		})
	}
	return out, "", nil
}

func (e *Engine) resolveRaw(ctx context.Context, g config.Group) ([]Assignment, string, error) {
	if strings.EqualFold(path.Clean(filepath.ToSlash(g.PlacementFolder)), e.Settings.HistoryFolder) {
		return nil, fmt.Sprintf("placement folder '%s' collides with the history folder", g.PlacementFolder), nil
	}

	tree := e.Tree
	external := ""
	if g.ExternalPath != "" {
		external = g.ExternalPath
		if !filepath.IsAbs(external) {
			external = filepath.Join(e.ProjectRoot, external)
		}
		tree = &source.Tree{Root: external, FS: e.Tree.FS, Ignored: e.Tree.Ignored}
		if ok, isDir := tree.Exists("."); !ok || !isDir {
			return nil, fmt.Sprintf("external path '%s' does not exist", g.ExternalPath), nil
		}
	}

	paths, problem, err := e.selectPaths(ctx, tree, g)
	if problem != "" || err != nil {
		return nil, problem, err
	}
	out := make([]Assignment, 0, len(paths))
	for _, p := range paths {
		contentHash, _, err := fingerprint.File(tree.Abs(p))
		if err != nil {
			return nil, "", err
		}
		a := Assignment{
			Source:          p,
			Bundle:          RawName(p, contentHash, e.Settings.HashOnly()),
			Group:           g.Name,
			Raw:             true,
			PlacementFolder: g.PlacementFolder,
		}
		if external != "" {
			a.ExternalOrigin = tree.Abs(p)
		}
		out = append(out, a)
	}
	return out, "", nil
}

func (e *Engine) resolveMatched(ctx context.Context, g config.Group) ([]Assignment, string, error) {
	if g.Match == "" {
		return nil, "matched_folder mode requires 'match'", nil
	}
	root := source.Clean(g.Path)
	if ok, isDir := e.Tree.Exists(root); !ok || !isDir {
		return nil, fmt.Sprintf("folder '%s' does not exist", g.Path), nil
	}

	matched, err := e.Tree.Folders(ctx, root, g.Match)
	if err != nil {
		return nil, "", err
	}

	var out []Assignment
	seenFolder := make(map[string]bool)
	seenPath := make(map[string]bool)
	for _, m := range matched {
		folder := source.Ascend(m, root, g.Ascend)
		if seenFolder[folder] {
			continue
		}
		seenFolder[folder] = true

		files, err := e.Tree.Enumerate(ctx, folder, g.Filter)
		if err != nil {
			return nil, "", err
		}
		bundle := folderBundle(folder, g.Name)
		for _, f := range files {
			if seenPath[f] {
				continue
			}
			seenPath[f] = true
			name := bundle
			if e.isScene(f) {
				name = BundleName(f, config.ModeIndividual, "")
			}
			out = append(out, Assignment{Source: f, Bundle: name, Group: g.Name, Dependencies: g.Dependencies})
		}
	}
	return out, "", nil
}

func (e *Engine) selectPaths(ctx context.Context, tree *source.Tree, g config.Group) ([]string, string, error) {
	sel := source.Clean(g.Path)
	if ok, _ := tree.Exists(sel); !ok {
		return nil, fmt.Sprintf("path '%s' does not exist", g.Path), nil
	}
	paths, err := tree.Resolve(ctx, sel, g.Filter)
	if err != nil {
		return nil, "", err
	}
	return paths, "", nil
}

func (e *Engine) isScene(p string) bool {
	return e.Settings.SceneExtension != "" && strings.EqualFold(path.Ext(p), e.Settings.SceneExtension)
}

// BundleName computes the bundle of a compiled source for the given mode.
// It is a pure function of its inputs.
func BundleName(p string, mode config.Mode, wholeGroupName string) string {
	switch mode {
	case config.ModeByFolder:
		return FolderBundle(p)
	case config.ModeWholeGroup:
		return fingerprint.Sanitize(wholeGroupName)
	default:
		return fingerprint.Sanitize(source.Clean(p))
	}
}

// FolderBundle names the bundle of everything in p's containing folder.
func FolderBundle(p string) string {
	return folderBundle(source.Dir(p), "root")
}

func folderBundle(folder, fallback string) string {
	if folder == "." || folder == "" {
		return fingerprint.Sanitize(fallback)
	}
	return fingerprint.Sanitize(folder)
}

// RawName names a raw file from its path and content hash, keeping the
// original extension. Files with equal bytes still get distinct names.
// Readable names prefix the sanitized path.
func RawName(p, contentHash string, hashOnly bool) string {
	p = source.Clean(p)
	ext := path.Ext(p)
	if hashOnly {
		return fingerprint.String(p+":"+contentHash) + ext
	}
	return fingerprint.Sanitize(strings.TrimSuffix(p, ext)) + "_" + contentHash + ext
}
