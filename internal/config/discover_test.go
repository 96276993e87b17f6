package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscoverPathsAllLevels(t *testing.T) {
	layers := DiscoverPaths(DiscoverOptions{
		ProjectPath:      "./bundlepack.yaml",
		SystemConfigPath: "/etc/bundlepack/bundlepack.yaml",
		UserConfigPath:   "/home/user/.config/bundlepack/bundlepack.yaml",
	})

	want := []ConfigLevel{LevelSystem, LevelUser, LevelProject}
	if len(layers) != len(want) {
		t.Fatalf("expected %d layers, got %d", len(want), len(layers))
	}
	for i, lvl := range want {
		if layers[i].Level != lvl {
			t.Errorf("layers[%d].Level = %q, want %q", i, layers[i].Level, lvl)
		}
	}
}

func TestDiscoverPathsDeduplicationKeepsHigherLevel(t *testing.T) {
	samePath, err := filepath.Abs("./bundlepack.yaml")
	if err != nil {
		t.Fatal(err)
	}

	layers := DiscoverPaths(DiscoverOptions{
		ProjectPath:      samePath,
		SystemConfigPath: samePath,
		UserConfigPath:   "/other/path/bundlepack.yaml",
	})

	if len(layers) != 2 {
		t.Fatalf("expected 2 layers (deduped), got %d", len(layers))
	}
	if layers[0].Level != LevelProject {
		t.Errorf("deduplicated layer level = %q, want %q", layers[0].Level, LevelProject)
	}
}

func TestDefaultConfigPathsContainConfigDir(t *testing.T) {
	if p := defaultSystemConfigPath(); !strings.Contains(p, configDirName) {
		t.Errorf("system path %q missing %q", p, configDirName)
	}
	if p := defaultUserConfigPath(); p != "" && !strings.Contains(p, configDirName) {
		t.Errorf("user path %q missing %q", p, configDirName)
	}
}

func TestEnvBoolTrue(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"1", true},
		{"true", true},
		{" TRUE ", true},
		{"0", false},
		{"", false},
		{"yes", false},
	}
	for _, tt := range tests {
		t.Setenv("BUNDLEPACK_TEST_BOOL", tt.val)
		if got := envBoolTrue("BUNDLEPACK_TEST_BOOL"); got != tt.want {
			t.Errorf("envBoolTrue(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}
