// Package packager compiles a manifest's assignments into content-hashed
// artifacts and reuses every artifact whose hash is already on disk.
package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/grouping"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/sandbox"
	"github.com/bianoble/bundlepack/internal/store"
)

// StagingDir is where the compiler writes untagged output, relative to the
// platform output dir.
const StagingDir = ".staging"

// Packager runs the incremental packaging of one manifest.
type Packager struct {
	Settings  config.Settings // defaults already applied
	Compiler  Compiler
	Post      PostProcessor // nil disables post-processing
	AssetRoot string
	Log       *logger.Logger
}

// Input is everything needed to package one manifest.
type Input struct {
	Manifest    string
	OutputDir   string
	Platform    string
	Assignments []grouping.Assignment

	// Previous is the manifest's record in the last build, if any.
	Previous *store.ManifestRecord
}

// Built describes one bundle of the packaged manifest.
type Built struct {
	Bundle     store.Bundle
	Group      string
	SourceHash string
	Placed     bool // the artifact file was written by this run
	Changed    bool // the hash differs from the previous record
	Processed  bool

	deps []string
}

// Result is a packaged manifest.
type Result struct {
	Manifest store.Manifest
	Built    []Built
}

// Placed returns the artifact paths written by this run.
func (r *Result) Placed() []string {
	var files []string
	for _, b := range r.Built {
		if b.Placed {
			files = append(files, b.Bundle.File)
		}
	}
	return files
}

// Processed returns how many artifacts were post-processed.
func (r *Result) Processed() int {
	n := 0
	for _, b := range r.Built {
		if b.Processed {
			n++
		}
	}
	return n
}

// Package compiles, places and records every bundle of in.Manifest.
// Compiler failures return *PackagingError; an artifact missing after
// placement returns *MissingArtifactError. Artifacts already written stay
// on disk on failure.
func (p *Packager) Package(ctx context.Context, in Input) (*Result, error) {
	log := p.Log.With("packager")
	if err := os.MkdirAll(in.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", in.OutputDir, err)
	}

	var raws []grouping.Assignment
	table := make(map[string][]string)
	groupOf := make(map[string]string)
	for _, a := range in.Assignments {
		if a.Raw {
			raws = append(raws, a)
			continue
		}
		table[a.Bundle] = append(table[a.Bundle], a.Source)
		if _, ok := groupOf[a.Bundle]; !ok || groupOf[a.Bundle] == "" {
			groupOf[a.Bundle] = a.Group
		}
	}

	built := make(map[string]*Built)

	if len(table) > 0 {
		compiled, err := p.compile(ctx, in, table)
		if err != nil {
			return nil, err
		}
		if err := p.place(in, table, compiled, groupOf, built); err != nil {
			_ = sandbox.SafeRemoveAll(in.OutputDir, StagingDir)
			return nil, err
		}
		if err := sandbox.SafeRemoveAll(in.OutputDir, StagingDir); err != nil {
			log.Warn("removing staging dir failed", logger.Err(err))
		}
	}

	for _, a := range raws {
		if prev, ok := built[a.Bundle]; ok {
			if prev.Bundle.Raw && len(prev.Bundle.Sources) == 1 && prev.Bundle.Sources[0] == a.Source &&
				prev.Bundle.File == rawFile(a) {
				continue
			}
			return nil, &PackagingError{Manifest: in.Manifest,
				Err: fmt.Errorf("raw file %s and %s share bundle name '%s'", a.Source, strings.Join(prev.Bundle.Sources, ", "), a.Bundle)}
		}
		b, err := p.copyRaw(in, a)
		if err != nil {
			return nil, err
		}
		built[b.Bundle.Name] = b
	}

	res := assemble(in, built)
	log.Debug("manifest packaged",
		logger.String("manifest", in.Manifest),
		logger.Int("bundles", len(res.Built)),
		logger.Int("placed", len(res.Placed())),
		logger.Int("processed", res.Processed()))
	return res, nil
}

func (p *Packager) compile(ctx context.Context, in Input, table map[string][]string) (map[string]CompiledBundle, error) {
	if err := sandbox.SafeRemoveAll(in.OutputDir, StagingDir); err != nil {
		return nil, &PackagingError{Manifest: in.Manifest, Err: err}
	}
	if err := sandbox.SafeMkdirAll(in.OutputDir, StagingDir, 0755); err != nil {
		return nil, &PackagingError{Manifest: in.Manifest, Err: err}
	}

	names := sortedKeys(table)
	builds := make([]BundleBuild, 0, len(names))
	for _, n := range names {
		builds = append(builds, BundleBuild{Name: n, Sources: table[n]})
	}

	compiled, err := p.Compiler.Compile(ctx, filepath.Join(in.OutputDir, StagingDir), builds,
		CompileOptions{AssetRoot: p.AssetRoot, Platform: in.Platform})
	if err != nil {
		return nil, &PackagingError{Manifest: in.Manifest, Err: err}
	}
	if len(compiled) == 0 {
		return nil, &PackagingError{Manifest: in.Manifest, Err: errors.New("compiler returned no result")}
	}
	return compiled, nil
}

// place moves every compiled bundle to its hashed name, or drops the fresh
// output when that name already exists.
func (p *Packager) place(in Input, table map[string][]string, compiled map[string]CompiledBundle,
	groupOf map[string]string, built map[string]*Built) error {

	for _, name := range sortedKeys(table) {
		cb, ok := compiled[name]
		temp := path.Join(StagingDir, name)
		if !ok {
			return &MissingArtifactError{Manifest: in.Manifest, Bundle: name, Path: temp}
		}
		final := ArtifactName(name, cb.Hash, p.Settings.HashOnly(), p.Settings.ArtifactExtension)

		b := &Built{
			Bundle:     store.Bundle{Name: name, Sources: sortedCopy(table[name]), File: final},
			Group:      groupOf[name],
			SourceHash: cb.Hash,
		}

		if exists(in.OutputDir, final) {
			if err := sandbox.SafeRemove(in.OutputDir, temp); err != nil {
				return err
			}
		} else {
			if !exists(in.OutputDir, temp) {
				return &MissingArtifactError{Manifest: in.Manifest, Bundle: name, Path: temp}
			}
			// The final name only ever holds processed bytes.
			if p.Post != nil {
				if err := p.Post.Process(in.OutputDir, temp); err != nil {
					return fmt.Errorf("post-processing bundle '%s': %w", name, err)
				}
				b.Processed = true
			}
			if err := sandbox.SafeRename(in.OutputDir, temp, final); err != nil {
				return err
			}
			b.Placed = true
		}

		if !exists(in.OutputDir, final) {
			return &MissingArtifactError{Manifest: in.Manifest, Bundle: name, Path: final}
		}
		hash, size, err := fingerprint.File(filepath.Join(in.OutputDir, filepath.FromSlash(final)))
		if err != nil {
			return err
		}
		b.Bundle.Hash, b.Bundle.Size = hash, size
		b.Changed = changed(in.Previous, name, hash)
		b.deps = cb.Dependencies
		built[name] = b
	}
	return nil
}

func (p *Packager) copyRaw(in Input, a grouping.Assignment) (*Built, error) {
	origin := a.ExternalOrigin
	if origin == "" {
		origin = filepath.Join(p.AssetRoot, filepath.FromSlash(a.Source))
	}
	rel := rawFile(a)

	b := &Built{
		Bundle: store.Bundle{Name: a.Bundle, Raw: true, Sources: []string{a.Source}, File: rel},
		Group:  a.Group,
	}
	if !exists(in.OutputDir, rel) {
		if err := sandbox.SafeCopy(in.OutputDir, rel, origin); err != nil {
			return nil, err
		}
		b.Placed = true
	}
	info, err := os.Stat(filepath.Join(in.OutputDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &MissingArtifactError{Manifest: in.Manifest, Bundle: a.Bundle, Path: rel}
	}
	b.Bundle.Size = info.Size()
	b.Bundle.Hash = fingerprint.String(a.Bundle)
	b.Changed = changed(in.Previous, a.Bundle, b.Bundle.Hash)
	return b, nil
}

// rawFile is the output path of a raw assignment.
func rawFile(a grouping.Assignment) string {
	return path.Join(filepath.ToSlash(a.PlacementFolder), a.Bundle)
}

// assemble orders bundles by name, assigns ids and resolves dependency
// names to ids, dropping self references and names outside the manifest.
func assemble(in Input, built map[string]*Built) *Result {
	names := sortedKeys(built)
	ids := make(map[string]int, len(names))
	for i, n := range names {
		ids[n] = i
	}

	res := &Result{Manifest: store.Manifest{Name: in.Manifest}}
	for i, n := range names {
		b := built[n]
		b.Bundle.ID = i
		seen := make(map[int]bool)
		for _, dep := range b.deps {
			id, ok := ids[dep]
			if !ok || id == i || seen[id] {
				continue
			}
			seen[id] = true
			b.Bundle.Dependencies = append(b.Bundle.Dependencies, id)
		}
		sort.Ints(b.Bundle.Dependencies)
		res.Manifest.Bundles = append(res.Manifest.Bundles, b.Bundle)
		res.Built = append(res.Built, *b)
	}
	return res
}

// ArtifactName is the published file name of a compiled bundle.
func ArtifactName(bundle, hash string, hashOnly bool, ext string) string {
	if hashOnly {
		return hash + ext
	}
	return bundle + "_" + hash + ext
}

func changed(prev *store.ManifestRecord, name, hash string) bool {
	if prev == nil {
		return true
	}
	rec, ok := prev.Bundle(name)
	return !ok || rec.Hash != hash
}

func exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
