// Package snapdiff compares two build records and classifies every file,
// bundle and (where recorded) source asset as added, removed, modified or
// unchanged.
package snapdiff

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bianoble/bundlepack/internal/progress"
	"github.com/bianoble/bundlepack/internal/store"
)

// PhaseDiff names the progress phase reported by Diff.
const PhaseDiff = "diff"

// AutoGroup labels bundles whose owning group was not recorded.
const AutoGroup = "auto-grouped"

// ErrOrder is returned when the old record is newer than the new one.
var ErrOrder = errors.New("old build is newer than new build")

// Status classifies one item across two builds.
type Status string

const (
	Added    Status = "added"
	Removed  Status = "removed"
	Modified Status = "modified"
	Same     Status = "same"
)

// Entry is the common hash and size comparison of one item.
type Entry struct {
	Name        string
	Status      Status
	OldHash     string
	NewHash     string
	OldSize     int64
	NewSize     int64
	ChangedSize int64
}

// BundleDiff compares one bundle.
type BundleDiff struct {
	Entry
	Manifest string
	Group    string
	Raw      bool

	// Direct is false only when the bundle was modified while none of its
	// recorded assets changed. Without asset hashes it is always true.
	Direct bool
	Assets []Entry
}

// GroupDiff aggregates the bundles of one owning group.
type GroupDiff struct {
	Name        string
	Added       int
	Removed     int
	Modified    int
	Same        int
	ChangedSize int64
}

// Report is the full comparison of two builds.
type Report struct {
	OldVersion int
	NewVersion int

	Files   []Entry
	Bundles []BundleDiff
	Groups  []GroupDiff

	OldCount int
	OldSize  int64
	NewCount int
	NewSize  int64

	// UpdateSize is the byte count of every added or modified item.
	UpdateSize int64
}

// ChangedSize sums the size delta of every file and bundle.
func (r *Report) ChangedSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.ChangedSize
	}
	for _, b := range r.Bundles {
		total += b.ChangedSize
	}
	return total
}

// Changed returns the bundles that are not Same.
func (r *Report) Changed() []BundleDiff {
	var out []BundleDiff
	for _, b := range r.Bundles {
		if b.Status != Same {
			out = append(out, b)
		}
	}
	return out
}

// Diff compares older with newer. It checks ctx and reports progress once per
// bundle; on cancellation it returns an error wrapping
// progress.ErrCancelled.
func Diff(ctx context.Context, older, newer *store.BuildRecord, reporter progress.Reporter) (*Report, error) {
	if older.Timestamp > newer.Timestamp {
		return nil, fmt.Errorf("%w: version %d (%d) vs version %d (%d)",
			ErrOrder, older.Version, older.Timestamp, newer.Version, newer.Timestamp)
	}

	rep := &Report{OldVersion: older.Version, NewVersion: newer.Version}
	rep.OldCount, rep.OldSize = older.Totals()
	rep.NewCount, rep.NewSize = newer.Totals()

	// Version and manifest files.
	oldFiles := indexFiles(older.Files)
	newFiles := indexFiles(newer.Files)
	for _, name := range unionKeys(oldFiles, newFiles, stringLess) {
		o, inOld := oldFiles[name]
		n, inNew := newFiles[name]
		rep.Files = append(rep.Files, compare(name, o.Hash, n.Hash, o.Size, n.Size, inOld, inNew))
	}

	// Bundles.
	oldBundles := indexBundles(older)
	newBundles := indexBundles(newer)
	keys := unionKeys(oldBundles, newBundles, bundleKey.less)
	for i, k := range keys {
		if err := progress.Step(ctx, reporter, progress.Progress{
			Phase: PhaseDiff, Done: i, Total: len(keys), Current: k.name,
		}); err != nil {
			return nil, err
		}
		o, inOld := oldBundles[k]
		n, inNew := newBundles[k]
		rep.Bundles = append(rep.Bundles, compareBundle(k, o, n, inOld, inNew))
	}
	reporter.Report(progress.Progress{Phase: PhaseDiff, Done: len(keys), Total: len(keys)})

	for _, f := range rep.Files {
		if f.Status == Added || f.Status == Modified {
			rep.UpdateSize += f.NewSize
		}
	}
	for _, b := range rep.Bundles {
		if b.Status == Added || b.Status == Modified {
			rep.UpdateSize += b.NewSize
		}
	}
	rep.Groups = aggregate(rep.Bundles)
	return rep, nil
}

type bundleKey struct {
	manifest string
	name     string
}

func (k bundleKey) less(o bundleKey) bool {
	if k.manifest != o.manifest {
		return k.manifest < o.manifest
	}
	return k.name < o.name
}

func compareBundle(k bundleKey, o, n store.BundleRecord, inOld, inNew bool) BundleDiff {
	d := BundleDiff{
		Entry:    compare(k.name, o.Hash, n.Hash, o.Size, n.Size, inOld, inNew),
		Manifest: k.manifest,
		Group:    n.Group,
		Raw:      n.Raw,
		Direct:   true,
	}
	if !inNew {
		d.Group, d.Raw = o.Group, o.Raw
	}
	if d.Group == "" {
		d.Group = o.Group
	}
	if d.Group == "" {
		d.Group = AutoGroup
	}

	if d.Status != Modified || len(o.Assets) == 0 || len(n.Assets) == 0 {
		return d
	}

	oldAssets := indexAssets(o.Assets)
	newAssets := indexAssets(n.Assets)
	direct := false
	for _, p := range unionKeys(oldAssets, newAssets, stringLess) {
		oa, aOld := oldAssets[p]
		na, aNew := newAssets[p]
		e := compare(p, oa.Hash, na.Hash, oa.Size, na.Size, aOld, aNew)
		if e.Status != Same {
			direct = true
		}
		d.Assets = append(d.Assets, e)
	}
	d.Direct = direct
	return d
}

func compare(name, oldHash, newHash string, oldSize, newSize int64, inOld, inNew bool) Entry {
	e := Entry{Name: name, OldHash: oldHash, NewHash: newHash, OldSize: oldSize, NewSize: newSize}
	switch {
	case !inOld:
		e.Status = Added
		e.OldHash, e.OldSize = "", 0
		e.ChangedSize = newSize
	case !inNew:
		e.Status = Removed
		e.NewHash, e.NewSize = "", 0
		e.ChangedSize = -oldSize
	case oldHash == newHash:
		e.Status = Same
	default:
		e.Status = Modified
		e.ChangedSize = newSize - oldSize
	}
	return e
}

func aggregate(bundles []BundleDiff) []GroupDiff {
	byName := make(map[string]*GroupDiff)
	for _, b := range bundles {
		g, ok := byName[b.Group]
		if !ok {
			g = &GroupDiff{Name: b.Group}
			byName[b.Group] = g
		}
		switch b.Status {
		case Added:
			g.Added++
		case Removed:
			g.Removed++
		case Modified:
			g.Modified++
		default:
			g.Same++
		}
		g.ChangedSize += b.ChangedSize
	}
	out := make([]GroupDiff, 0, len(byName))
	for _, g := range byName {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func indexFiles(files []store.FileInfo) map[string]store.FileInfo {
	m := make(map[string]store.FileInfo, len(files))
	for _, f := range files {
		m[f.Name] = f
	}
	return m
}

func indexBundles(b *store.BuildRecord) map[bundleKey]store.BundleRecord {
	m := make(map[bundleKey]store.BundleRecord)
	for _, mr := range b.Manifests {
		for _, br := range mr.Bundles {
			m[bundleKey{manifest: mr.Name, name: br.Name}] = br
		}
	}
	return m
}

func indexAssets(assets []store.AssetRecord) map[string]store.AssetRecord {
	m := make(map[string]store.AssetRecord, len(assets))
	for _, a := range assets {
		m[a.Path] = a
	}
	return m
}

func unionKeys[K comparable, V any](a, b map[K]V, less func(x, y K) bool) []K {
	seen := make(map[K]bool, len(a)+len(b))
	var keys []K
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

func stringLess(x, y string) bool { return x < y }
