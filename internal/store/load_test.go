package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleManifest() *Manifest {
	return &Manifest{
		Name: "base",
		Bundles: []Bundle{
			{ID: 0, Name: "shared", Sources: []string{"shared/Tex.png"}, Size: 10, Hash: "h0", File: "h0.bundle"},
			{ID: 1, Name: "ui", Sources: []string{"UI/A.prefab", "UI/B.prefab"}, Size: 20, Hash: "h1", File: "h1.bundle", Dependencies: []int{0}},
			{ID: 2, Name: "abc.json", Raw: true, Sources: []string{"Raw/x.json"}, Size: 2, Hash: "h2", File: "data/abc.json"},
		},
	}
}

func TestSaveAndLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "base_x.manifest")

	if err := Save(path, sampleManifest()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.Name != "base" {
		t.Errorf("name = %q, want %q", loaded.Name, "base")
	}
	if len(loaded.Bundles) != 3 {
		t.Fatalf("bundles = %d, want 3", len(loaded.Bundles))
	}
	if got := loaded.Bundles[1].Dependencies; len(got) != 1 || got[0] != 0 {
		t.Errorf("dependencies = %v, want [0]", got)
	}
	if !loaded.Bundles[2].Raw {
		t.Error("raw flag lost")
	}

	// Verify temp file was cleaned up.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after save")
	}
}

func TestSaveAndLoadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.yaml")

	v := &VersionContainer{Version: 3, Timestamp: 1700000000}
	v.SetEntry(VersionEntry{Manifest: "levels", File: "l.manifest", Hash: "b", Size: 2})
	v.SetEntry(VersionEntry{Manifest: "base", File: "a.manifest", Hash: "a", Size: 1})
	v.SetEntry(VersionEntry{Manifest: "levels", File: "l2.manifest", Hash: "c", Size: 3})

	if err := Save(path, v); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadVersion(path)
	if err != nil {
		t.Fatalf("LoadVersion: %v", err)
	}
	if loaded.Version != 3 || loaded.Timestamp != 1700000000 {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Entries) != 2 || loaded.Entries[0].Manifest != "base" {
		t.Fatalf("entries = %+v", loaded.Entries)
	}
	e, ok := loaded.Entry("levels")
	if !ok || e.File != "l2.manifest" {
		t.Errorf("levels entry = %+v, %v", e, ok)
	}
}

func TestSaveAndLoadBuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build_1.yaml")

	b := &BuildRecord{
		Version:   1,
		Timestamp: 5,
		BuildID:   "id",
		Files:     []FileInfo{{Name: "version.yaml", Hash: "v", Size: 7}},
		Manifests: []ManifestRecord{{
			Name: "base",
			Bundles: []BundleRecord{{
				Group: "ui", Name: "ui", Size: 3, Hash: "h",
				Assets: []AssetRecord{{Path: "UI/A.prefab", Size: 3, Hash: "a"}},
			}},
		}},
	}
	if err := Save(path, b); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadBuild(path)
	if err != nil {
		t.Fatalf("LoadBuild: %v", err)
	}
	m, ok := loaded.Manifest("base")
	if !ok {
		t.Fatal("manifest base missing")
	}
	rec, ok := m.Bundle("ui")
	if !ok || len(rec.Assets) != 1 || rec.Assets[0].Path != "UI/A.prefab" {
		t.Errorf("bundle record = %+v", rec)
	}
	count, size := loaded.Totals()
	if count != 2 || size != 10 {
		t.Errorf("totals = %d, %d; want 2, 10", count, size)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.yaml")
	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadVersion(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing version file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadBuild("/nonexistent/build_1.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateManifest(t *testing.T) {
	if errs := ValidateManifest(sampleManifest()); len(errs) > 0 {
		t.Errorf("expected no errors, got: %v", errs)
	}

	m := &Manifest{Bundles: []Bundle{
		{ID: 0, Name: "a", Hash: "h", Dependencies: []int{0, 5}},
		{ID: 3, Name: "a"},
	}}
	errs := ValidateManifest(m)
	for _, want := range []string{"'manifest' is required", "depends on itself", "unknown dependency id 5", "out of sequence", "duplicate bundle name", "'hash' is required"} {
		if !containsSubstring(errs, want) {
			t.Errorf("expected %q in %v", want, errs)
		}
	}
}

func TestValidateVersion(t *testing.T) {
	v := &VersionContainer{Entries: []VersionEntry{{Manifest: "a"}, {Manifest: "a", File: "f"}}}
	errs := ValidateVersion(v)
	for _, want := range []string{"invalid version 0", "'file' is required", "duplicate manifest"} {
		if !containsSubstring(errs, want) {
			t.Errorf("expected %q in %v", want, errs)
		}
	}
}

func TestValidationErrorFormat(t *testing.T) {
	verr := &ValidationError{Kind: "manifest", Errors: []string{"error one", "error two"}}
	msg := verr.Error()
	if !strings.HasPrefix(msg, "manifest validation failed") || !strings.Contains(msg, "error two") {
		t.Errorf("error message missing details: %s", msg)
	}
}

func TestManifestHelpers(t *testing.T) {
	m := sampleManifest()
	if got := m.Files(); len(got) != 3 || got[2] != "data/abc.json" {
		t.Errorf("Files = %v", got)
	}
	if m.HashSet()["ui"] != "h1" {
		t.Errorf("HashSet = %v", m.HashSet())
	}
	if _, ok := m.Bundle("missing"); ok {
		t.Error("unexpected bundle")
	}
}

func containsSubstring(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
