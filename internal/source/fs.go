// Package source gives the grouping engine read access to an asset tree:
// selector resolution, filtered enumeration and folder matching.
package source

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FS abstracts the filesystem calls the tree needs, for testing and
// embedding.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
	WalkDir(root string, fn fs.WalkDirFunc) error
}

// OSFS implements FS on the real filesystem.
type OSFS struct{}

func (OSFS) ReadFile(path string) ([]byte, error)         { return os.ReadFile(path) }
func (OSFS) Stat(path string) (os.FileInfo, error)        { return os.Stat(path) }
func (OSFS) WalkDir(root string, fn fs.WalkDirFunc) error { return filepath.WalkDir(root, fn) }
