package config

import "testing"

func TestMergeSettingsOverlayWins(t *testing.T) {
	no := false
	base := &Config{Version: 1, Settings: Settings{AssetRoot: "Assets", Platform: "android", HistoryKeep: 5}}
	overlay := &Config{Settings: Settings{Platform: "ios", HashOnlyNames: &no}}

	merged, err := Merge(base, overlay)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	s := merged.Settings
	if s.AssetRoot != "Assets" {
		t.Errorf("asset_root = %q, want base value", s.AssetRoot)
	}
	if s.Platform != "ios" {
		t.Errorf("platform = %q, want overlay value", s.Platform)
	}
	if s.HashOnly() {
		t.Error("overlay hash_only_names=false should win")
	}
	if s.HistoryKeep != 5 {
		t.Errorf("history_keep = %d, want 5", s.HistoryKeep)
	}
	if merged.Version != 1 {
		t.Errorf("version = %d, want 1", merged.Version)
	}
}

func TestMergeManifestsByName(t *testing.T) {
	base := &Config{Manifests: []Manifest{
		{Name: "base", Groups: []Group{{Name: "old"}}},
		{Name: "dlc"},
	}}
	overlay := &Config{Manifests: []Manifest{
		{Name: "base", Groups: []Group{{Name: "new"}}},
		{Name: "extra"},
	}}

	merged, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, m := range merged.Manifests {
		names = append(names, m.Name)
	}
	want := []string{"dlc", "base", "extra"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if merged.Manifests[1].Groups[0].Name != "new" {
		t.Error("overlay manifest should replace base manifest")
	}
}

func TestMergePlatformDefinitionsByName(t *testing.T) {
	base := &Config{PlatformDefinitions: []PlatformDefinition{{Name: "console", Folder: "A"}}}
	overlay := &Config{PlatformDefinitions: []PlatformDefinition{{Name: "console", Folder: "B"}}}

	merged, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.PlatformDefinitions) != 1 || merged.PlatformDefinitions[0].Folder != "B" {
		t.Errorf("got %+v", merged.PlatformDefinitions)
	}
}

func TestMergeVersionMismatch(t *testing.T) {
	if _, err := Merge(&Config{Version: 1}, &Config{Version: 2}); err == nil {
		t.Fatal("expected version mismatch error")
	}
}

func TestMergeNil(t *testing.T) {
	c := &Config{Version: 1}
	if got, _ := Merge(nil, c); got != c {
		t.Error("Merge(nil, c) should return c")
	}
	if got, _ := Merge(c, nil); got != c {
		t.Error("Merge(c, nil) should return c")
	}
}

func TestMergeAllEmpty(t *testing.T) {
	if _, err := MergeAll(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
