// Package compiler is the built-in bundle compiler. It writes a simple,
// deterministic container per bundle: the bundle's own sources followed by
// every unowned dependency they pull in.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bianoble/bundlepack/internal/depgraph"
	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/packager"
	"github.com/bianoble/bundlepack/internal/progress"
	"github.com/bianoble/bundlepack/internal/sandbox"
)

// Magic starts every container.
const Magic = "BPK1\n"

// Compiler implements packager.Compiler.
type Compiler struct {
	Scanner            depgraph.Scanner // nil means no references are followed
	ExcludedExtensions []string
	EditorFolder       string
}

// Compile writes one container per build to outputDir/<name> and reports
// its hash and the bundles it references. A bundle that references one of
// its own sources lists itself.
func (c *Compiler) Compile(ctx context.Context, outputDir string, builds []packager.BundleBuild, opts packager.CompileOptions) (map[string]packager.CompiledBundle, error) {
	owner := make(map[string]string)
	for _, b := range builds {
		for _, s := range b.Sources {
			owner[s] = b.Name
		}
	}

	out := make(map[string]packager.CompiledBundle, len(builds))
	for _, b := range builds {
		if err := progress.Check(ctx); err != nil {
			return nil, err
		}
		entries, deps, err := c.collect(b, owner)
		if err != nil {
			return nil, fmt.Errorf("bundle '%s': %w", b.Name, err)
		}
		data, err := encode(b.Name, opts.AssetRoot, entries)
		if err != nil {
			return nil, fmt.Errorf("bundle '%s': %w", b.Name, err)
		}
		if err := sandbox.SafeWrite(outputDir, b.Name, data, 0644); err != nil {
			return nil, err
		}
		out[b.Name] = packager.CompiledBundle{Hash: fingerprint.Bytes(data), Dependencies: deps}
	}
	return out, nil
}

// collect returns the sorted entries packed into b and the sorted names of
// the bundles b references.
func (c *Compiler) collect(b packager.BundleBuild, owner map[string]string) ([]string, []string, error) {
	seen := make(map[string]bool)
	depSet := make(map[string]bool)
	var entries []string
	queue := append([]string(nil), b.Sources...)
	for _, s := range b.Sources {
		seen[s] = true
	}
	entries = append(entries, b.Sources...)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if c.Scanner == nil {
			continue
		}
		refs, err := c.Scanner.GetDependencies(cur)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range refs {
			if r == cur || depgraph.Excluded(r, c.ExcludedExtensions, c.EditorFolder) {
				continue
			}
			if o, ok := owner[r]; ok {
				depSet[o] = true
				continue
			}
			if seen[r] {
				continue
			}
			seen[r] = true
			entries = append(entries, r)
			queue = append(queue, r)
		}
	}

	sort.Strings(entries)
	deps := make([]string, 0, len(depSet))
	for d := range depSet {
		deps = append(deps, d)
	}
	sort.Strings(deps)
	return entries, deps, nil
}

func encode(name, root string, entries []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	fmt.Fprintf(&buf, "bundle %s\n", name)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(e)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e, err)
		}
		fmt.Fprintf(&buf, "entry %s %d\n", e, len(data))
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// Entries lists the paths packed in a container.
func Entries(data []byte) ([]string, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, fmt.Errorf("not a bundle container")
	}
	rest := data[len(Magic):]
	_, rest, ok := bytes.Cut(rest, []byte("\n"))
	if !ok {
		return nil, fmt.Errorf("truncated header")
	}
	var entries []string
	for len(rest) > 0 {
		line, tail, ok := bytes.Cut(rest, []byte("\n"))
		if !ok {
			return nil, fmt.Errorf("truncated entry header")
		}
		path, size, err := parseEntry(string(line))
		if err != nil {
			return nil, err
		}
		if size > len(tail) {
			return nil, fmt.Errorf("entry %s truncated", path)
		}
		entries = append(entries, path)
		rest = tail[size:]
	}
	return entries, nil
}

// parseEntry splits "entry <path> <size>". The size is the last field, so
// paths may contain spaces.
func parseEntry(line string) (string, int, error) {
	body, ok := strings.CutPrefix(line, "entry ")
	i := strings.LastIndexByte(body, ' ')
	if !ok || i <= 0 {
		return "", 0, fmt.Errorf("malformed entry header %q", line)
	}
	size, err := strconv.Atoi(body[i+1:])
	if err != nil || size < 0 {
		return "", 0, fmt.Errorf("malformed entry size in %q", line)
	}
	return body[:i], size, nil
}
