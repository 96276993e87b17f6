package packager

import (
	"context"
	"fmt"
)

// BundleBuild is one entry of the compiled-bundle table.
type BundleBuild struct {
	Name    string
	Sources []string
}

// CompileOptions are handed to the compiler with every build.
type CompileOptions struct {
	AssetRoot string
	Platform  string
}

// CompiledBundle is what the compiler reports for one bundle.
type CompiledBundle struct {
	Hash         string
	Dependencies []string // bundle names, possibly including the bundle itself
}

// Compiler builds every bundle of a manifest in one call, writing each one
// untagged to outputDir/<name>.
type Compiler interface {
	Compile(ctx context.Context, outputDir string, builds []BundleBuild, opts CompileOptions) (map[string]CompiledBundle, error)
}

// PostProcessor rewrites a freshly placed artifact in place.
type PostProcessor interface {
	Process(root, rel string) error
}

// PackagingError reports a compiler failure for a manifest.
type PackagingError struct {
	Manifest string
	Err      error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging manifest '%s' failed: %v", e.Manifest, e.Err)
}

func (e *PackagingError) Unwrap() error {
	return e.Err
}

// MissingArtifactError reports a bundle whose file is absent after
// reconciliation.
type MissingArtifactError struct {
	Manifest string
	Bundle   string
	Path     string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("manifest '%s': artifact for bundle '%s' missing at %s", e.Manifest, e.Bundle, e.Path)
}
