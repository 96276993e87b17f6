package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bianoble/bundlepack/internal/config"
)

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func TestInitCreatesConfig(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "bundlepack.yaml")
	withConfigPath(t, outPath)

	initForce = false
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != initTemplate {
		t.Error("config file does not hold the template")
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "bundlepack.yaml")
	if err := os.WriteFile(outPath, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}
	withConfigPath(t, outPath)

	initForce = false
	err := initCmd.RunE(initCmd, nil)
	if err == nil {
		t.Fatal("expected error when file exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error should mention 'already exists': %v", err)
	}
}

func TestInitForceOverwrites(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "bundlepack.yaml")
	if err := os.WriteFile(outPath, []byte("old content"), 0644); err != nil {
		t.Fatal(err)
	}
	withConfigPath(t, outPath)

	initForce = true
	defer func() { initForce = false }()
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "old content" {
		t.Error("file was not overwritten")
	}
}

func TestInitTemplateIsValidConfig(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "bundlepack.yaml")
	if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(outPath)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if len(cfg.Manifests) != 1 || cfg.Manifests[0].Groups[0].Mode != config.ModeByFolder {
		t.Errorf("manifests = %+v", cfg.Manifests)
	}
}
