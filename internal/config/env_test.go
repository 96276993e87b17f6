package config

import "testing"

func TestApplyOverridesFromEnv(t *testing.T) {
	t.Setenv("BUNDLEPACK_PLATFORM", "ios")
	t.Setenv("BUNDLEPACK_HASH_ONLY_NAMES", "false")
	t.Setenv("BUNDLEPACK_OBFUSCATE", "true")

	cfg := validConfig()
	ApplyOverrides(cfg, NewOverrides())

	if cfg.Settings.Platform != "ios" {
		t.Errorf("platform = %q, want ios", cfg.Settings.Platform)
	}
	if cfg.Settings.HashOnly() {
		t.Error("hash-only names should be disabled by env")
	}
	if !cfg.Settings.Obfuscate {
		t.Error("obfuscate should be enabled by env")
	}
	if cfg.Settings.OutputRoot != "Build" {
		t.Errorf("unset override changed output_root to %q", cfg.Settings.OutputRoot)
	}
}

func TestApplyOverridesExplicitSet(t *testing.T) {
	v := NewOverrides()
	v.Set(KeyOutputRoot, "/tmp/out")

	cfg := validConfig()
	ApplyOverrides(cfg, v)
	if cfg.Settings.OutputRoot != "/tmp/out" {
		t.Errorf("output_root = %q", cfg.Settings.OutputRoot)
	}
}

func TestApplyOverridesNil(t *testing.T) {
	cfg := validConfig()
	ApplyOverrides(cfg, nil)
	if cfg.Settings.Platform != "android" {
		t.Error("nil overrides must not change config")
	}
}
