package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"UI/Menu/Main.prefab", "ui_menu_main_prefab"},
		{`Textures\Hero Skin.png`, "textures_hero_skin_png"},
		{"shared", "shared"},
		{"", ""},
	}

	for _, tt := range tests {
		got := Sanitize(tt.in)
		if got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeIsPure(t *testing.T) {
	a := Sanitize("Shared/Tex.png")
	b := Sanitize("Shared/Tex.png")
	if a != b {
		t.Fatalf("Sanitize not deterministic: %q vs %q", a, b)
	}
}

func TestFileMatchesBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	content := []byte("bundle payload")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	hash, size, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if hash != Bytes(content) {
		t.Errorf("hash = %s, want %s", hash, Bytes(content))
	}
	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
}

func TestFileMissing(t *testing.T) {
	if _, _, err := File(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStringKnownDigest(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := String("abc"); got != want {
		t.Errorf("String(abc) = %s, want %s", got, want)
	}
}
