// Package store defines the persisted packaging records: manifest files,
// the version container and build records.
package store

import "sort"

// Bundle is one packaged artifact inside a Manifest. IDs are sequential and
// only meaningful within their manifest.
type Bundle struct {
	ID           int      `yaml:"id"`
	Name         string   `yaml:"name"`
	Raw          bool     `yaml:"raw,omitempty"`
	Sources      []string `yaml:"sources"`
	Size         int64    `yaml:"size"`
	Hash         string   `yaml:"hash"`
	File         string   `yaml:"file"` // relative to the platform output dir
	Dependencies []int    `yaml:"dependencies,omitempty"`
}

// Manifest lists every bundle produced for one configured manifest.
type Manifest struct {
	Name    string   `yaml:"manifest"`
	Bundles []Bundle `yaml:"bundles"`
}

// Bundle returns the bundle with the given name.
func (m *Manifest) Bundle(name string) (Bundle, bool) {
	for _, b := range m.Bundles {
		if b.Name == name {
			return b, true
		}
	}
	return Bundle{}, false
}

// Files returns the artifact paths of every bundle.
func (m *Manifest) Files() []string {
	files := make([]string, 0, len(m.Bundles))
	for _, b := range m.Bundles {
		files = append(files, b.File)
	}
	return files
}

// HashSet maps bundle name to hash.
func (m *Manifest) HashSet() map[string]string {
	set := make(map[string]string, len(m.Bundles))
	for _, b := range m.Bundles {
		set[b.Name] = b.Hash
	}
	return set
}

// VersionEntry points at the published manifest file for one manifest name.
type VersionEntry struct {
	Manifest string `yaml:"manifest"`
	File     string `yaml:"file"`
	Hash     string `yaml:"hash"`
	Size     int64  `yaml:"size"`
}

// VersionContainer is the live pointer record of one output target.
type VersionContainer struct {
	Version   int            `yaml:"version"`
	Timestamp int64          `yaml:"timestamp"`
	Entries   []VersionEntry `yaml:"entries"`
}

// Entry returns the entry for a manifest name.
func (v *VersionContainer) Entry(manifest string) (VersionEntry, bool) {
	for _, e := range v.Entries {
		if e.Manifest == manifest {
			return e, true
		}
	}
	return VersionEntry{}, false
}

// SetEntry inserts or replaces the entry for e.Manifest, keeping entries
// sorted by manifest name.
func (v *VersionContainer) SetEntry(e VersionEntry) {
	for i := range v.Entries {
		if v.Entries[i].Manifest == e.Manifest {
			v.Entries[i] = e
			return
		}
	}
	v.Entries = append(v.Entries, e)
	sort.Slice(v.Entries, func(i, j int) bool { return v.Entries[i].Manifest < v.Entries[j].Manifest })
}

// FileInfo records the hash and size of a version or manifest file.
type FileInfo struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
	Size int64  `yaml:"size"`
}

// AssetRecord is the hash of one source asset inside a bundle.
type AssetRecord struct {
	Path string `yaml:"path"`
	Size int64  `yaml:"size"`
	Hash string `yaml:"hash"`
}

// BundleRecord is the history entry of one bundle.
type BundleRecord struct {
	Group      string        `yaml:"group,omitempty"`
	Name       string        `yaml:"name"`
	Size       int64         `yaml:"size"`
	Hash       string        `yaml:"hash"`
	SourceHash string        `yaml:"source_hash,omitempty"`
	Raw        bool          `yaml:"raw,omitempty"`
	Assets     []AssetRecord `yaml:"assets,omitempty"`
}

// ManifestRecord groups the bundle records of one manifest.
type ManifestRecord struct {
	Name    string         `yaml:"name"`
	Bundles []BundleRecord `yaml:"bundles"`
}

// Bundle returns the record of the named bundle.
func (m *ManifestRecord) Bundle(name string) (BundleRecord, bool) {
	for _, b := range m.Bundles {
		if b.Name == name {
			return b, true
		}
	}
	return BundleRecord{}, false
}

// BuildRecord is the immutable snapshot written with every published
// version.
type BuildRecord struct {
	Version   int              `yaml:"version"`
	Timestamp int64            `yaml:"timestamp"`
	BuildID   string           `yaml:"build_id,omitempty"`
	Platform  string           `yaml:"platform,omitempty"`
	Files     []FileInfo       `yaml:"files"`
	Manifests []ManifestRecord `yaml:"manifests"`
}

// Manifest returns the record of the named manifest.
func (b *BuildRecord) Manifest(name string) (*ManifestRecord, bool) {
	for i := range b.Manifests {
		if b.Manifests[i].Name == name {
			return &b.Manifests[i], true
		}
	}
	return nil, false
}

// Totals returns the number and combined size of every bundle and file in
// the record.
func (b *BuildRecord) Totals() (count int, size int64) {
	for _, f := range b.Files {
		count++
		size += f.Size
	}
	for _, m := range b.Manifests {
		for _, bundle := range m.Bundles {
			count++
			size += bundle.Size
		}
	}
	return count, size
}
