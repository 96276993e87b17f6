// Package engine orchestrates the packaging pipeline and the history
// operations over one configured project.
package engine

import (
	"fmt"
	"path/filepath"

	"github.com/bianoble/bundlepack/internal/compiler"
	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/depgraph"
	"github.com/bianoble/bundlepack/internal/lineage"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/packager"
	"github.com/bianoble/bundlepack/internal/platform"
	"github.com/bianoble/bundlepack/internal/source"
)

// Workspace resolves the settings and directories of a project for one
// platform. Relative paths in the config are relative to ProjectRoot.
type Workspace struct {
	Config      *config.Config
	ProjectRoot string
	Platform    string // overrides settings.platform when set
	Platforms   *platform.Table
	Log         *logger.Logger
}

// NewWorkspace builds a Workspace with the platform table of cfg.
func NewWorkspace(cfg *config.Config, projectRoot string, log *logger.Logger) *Workspace {
	return &Workspace{
		Config:      cfg,
		ProjectRoot: projectRoot,
		Platforms:   platform.NewTable(cfg.PlatformDefinitions),
		Log:         log,
	}
}

// Settings returns the settings with defaults applied.
func (w *Workspace) Settings() config.Settings {
	s := w.Config.Settings.WithDefaults()
	if w.Platform != "" {
		s.Platform = w.Platform
	}
	s.AssetRoot = w.abs(s.AssetRoot)
	return s
}

// ActivePlatform returns the platform this workspace packages for.
func (w *Workspace) ActivePlatform() string {
	return w.Settings().Platform
}

// OutputDir is the output root joined with the platform's folder.
func (w *Workspace) OutputDir() (string, error) {
	s := w.Settings()
	return w.platforms().OutputDir(w.abs(s.OutputRoot), s.Platform)
}

// PlatformFolder is the output folder name of the active platform.
func (w *Workspace) PlatformFolder() (string, error) {
	return w.platforms().Folder(w.ActivePlatform())
}

// UploadDir returns the absolute upload staging dir, or "" when unset.
func (w *Workspace) UploadDir() string {
	s := w.Settings()
	if s.UploadDir == "" {
		return ""
	}
	return w.abs(s.UploadDir)
}

// Lineage returns the version lineage manager of the active platform.
func (w *Workspace) Lineage() (*lineage.Manager, error) {
	out, err := w.OutputDir()
	if err != nil {
		return nil, err
	}
	return lineage.NewManager(out, w.ActivePlatform(), w.Settings(), w.Log), nil
}

// Tree returns the asset tree.
func (w *Workspace) Tree() *source.Tree {
	s := w.Settings()
	return source.NewTree(s.AssetRoot, s.IgnoredExtensions)
}

// Scanner loads the dependency listing named by settings.dependencies_file.
// Without one, no asset has references.
func (w *Workspace) Scanner() (depgraph.Scanner, error) {
	s := w.Settings()
	if s.DependenciesFile == "" {
		return depgraph.MapScanner{}, nil
	}
	scanner, err := depgraph.LoadFile(w.abs(s.DependenciesFile))
	if err != nil {
		return nil, fmt.Errorf("loading dependency scanner: %w", err)
	}
	return scanner, nil
}

// Compiler returns the built-in compiler bound to scanner.
func (w *Workspace) Compiler(scanner depgraph.Scanner) packager.Compiler {
	s := w.Settings()
	return &compiler.Compiler{
		Scanner:            scanner,
		ExcludedExtensions: s.ExcludedExtensions,
		EditorFolder:       s.EditorFolder,
	}
}

// PostProcessor returns the obfuscator when enabled.
func (w *Workspace) PostProcessor() packager.PostProcessor {
	s := w.Settings()
	if !s.Obfuscate {
		return nil
	}
	return packager.Obfuscator{Offset: s.ObfuscateOffset}
}

func (w *Workspace) platforms() *platform.Table {
	if w.Platforms == nil {
		w.Platforms = platform.NewTable(w.Config.PlatformDefinitions)
	}
	return w.Platforms
}

func (w *Workspace) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.ProjectRoot, p)
}
