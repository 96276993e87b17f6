package source

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Tree is a directory of source assets. Paths handed in and out are
// slash-separated and relative to Root.
type Tree struct {
	Root    string
	FS      FS
	Ignored []string // extensions never enumerated, e.g. ".meta"
}

// NewTree creates a Tree on the real filesystem.
func NewTree(root string, ignored []string) *Tree {
	return &Tree{Root: root, FS: OSFS{}, Ignored: ignored}
}

// Abs returns the filesystem path of a tree-relative path.
func (t *Tree) Abs(rel string) string {
	return filepath.Join(t.Root, filepath.FromSlash(rel))
}

// Exists reports whether rel exists and whether it is a folder.
func (t *Tree) Exists(rel string) (exists, isDir bool) {
	info, err := t.fs().Stat(t.Abs(rel))
	if err != nil {
		return false, false
	}
	return true, info.IsDir()
}

// Resolve turns a selector into concrete file paths. A file selector yields
// itself; a folder is enumerated recursively and filtered.
func (t *Tree) Resolve(ctx context.Context, selector string, filters []string) ([]string, error) {
	selector = Clean(selector)
	exists, isDir := t.Exists(selector)
	if !exists {
		return nil, fmt.Errorf("selector '%s' does not exist under %s", selector, t.Root)
	}
	if !isDir {
		return []string{selector}, nil
	}
	return t.Enumerate(ctx, selector, filters)
}

// Enumerate lists every file below dir, sorted, skipping hidden entries and
// ignored extensions. With filters set, a file is kept when any doublestar
// pattern matches its path relative to dir or its base name.
func (t *Tree) Enumerate(ctx context.Context, dir string, filters []string) ([]string, error) {
	dir = Clean(dir)
	var files []string
	err := t.walk(ctx, dir, func(rel string, d fs.DirEntry) error {
		if d.IsDir() || t.ignored(rel) {
			return nil
		}
		if len(filters) > 0 && !MatchAny(filters, relTo(dir, rel)) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Folders lists every folder strictly below dir whose path relative to dir
// matches pattern, sorted.
func (t *Tree) Folders(ctx context.Context, dir, pattern string) ([]string, error) {
	dir = Clean(dir)
	var folders []string
	err := t.walk(ctx, dir, func(rel string, d fs.DirEntry) error {
		if !d.IsDir() || rel == dir {
			return nil
		}
		if ok, _ := doublestar.Match(pattern, relTo(dir, rel)); ok {
			folders = append(folders, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(folders)
	return folders, nil
}

func (t *Tree) walk(ctx context.Context, dir string, visit func(rel string, d fs.DirEntry) error) error {
	base := t.Abs(dir)
	err := t.fs().WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != base && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		r, err := filepath.Rel(t.Root, p)
		if err != nil {
			return err
		}
		return visit(Clean(filepath.ToSlash(r)), d)
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}
	return nil
}

func (t *Tree) ignored(rel string) bool {
	ext := strings.ToLower(path.Ext(rel))
	for _, ig := range t.Ignored {
		if strings.ToLower(ig) == ext {
			return true
		}
	}
	return false
}

func (t *Tree) fs() FS {
	if t.FS == nil {
		return OSFS{}
	}
	return t.FS
}

// MatchAny reports whether any pattern matches rel or, for patterns without
// a slash, its base name.
func MatchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, err := doublestar.Match(p, path.Base(rel)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Clean normalises a tree-relative path: forward slashes, no leading "./"
// or trailing slash. The tree root is ".".
func Clean(rel string) string {
	return path.Clean(strings.TrimPrefix(filepath.ToSlash(rel), "/"))
}

// Dir returns the containing folder of a tree-relative path.
func Dir(rel string) string {
	return path.Dir(Clean(rel))
}

// Ascend walks n folder levels up from dir without leaving root.
func Ascend(dir, root string, n int) string {
	dir, root = Clean(dir), Clean(root)
	for i := 0; i < n && dir != root && dir != "."; i++ {
		dir = path.Dir(dir)
	}
	if !Within(root, dir) {
		return root
	}
	return dir
}

// Within reports whether rel is root or lies below it.
func Within(root, rel string) bool {
	root, rel = Clean(root), Clean(rel)
	return root == "." || rel == root || strings.HasPrefix(rel, root+"/")
}

func relTo(dir, rel string) string {
	if dir == "." {
		return rel
	}
	return strings.TrimPrefix(rel, dir+"/")
}
