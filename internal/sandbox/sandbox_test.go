package sandbox

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func realRoot(t *testing.T, root string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestValidatePathWithinRoot(t *testing.T) {
	root := t.TempDir()

	resolved, err := ValidatePath(root, "History/version_1.yaml")
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}

	expected := filepath.Join(realRoot(t, root), "History/version_1.yaml")
	if resolved != expected {
		t.Errorf("got %q, want %q", resolved, expected)
	}
}

func TestValidatePathRejectsDotDot(t *testing.T) {
	root := t.TempDir()

	for _, rel := range []string{"../escape.bundle", "raw/../../escape.bundle"} {
		_, err := ValidatePath(root, rel)
		if err == nil {
			t.Fatalf("expected error for %q", rel)
		}
		if !strings.Contains(err.Error(), "outside the output root") {
			t.Errorf("unexpected error: %v", err)
		}
	}
}

func TestValidatePathRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	outsideDir := t.TempDir()

	if err := os.Symlink(outsideDir, filepath.Join(root, "escape-link")); err != nil {
		t.Fatalf("creating symlink: %v", err)
	}

	_, err := ValidatePath(root, "escape-link/file.bundle")
	if err == nil {
		t.Fatal("expected error for symlink escape")
	}
}

func TestSafeWriteCreatesAndOverwrites(t *testing.T) {
	root := t.TempDir()

	if err := SafeWrite(root, "sub/version.yaml", []byte("original"), 0644); err != nil {
		t.Fatalf("SafeWrite: %v", err)
	}
	if err := SafeWrite(root, "sub/version.yaml", []byte("updated"), 0644); err != nil {
		t.Fatalf("SafeWrite: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(realRoot(t, root), "sub/version.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "updated" {
		t.Errorf("content = %q, want %q", string(data), "updated")
	}
}

func TestSafeWriteRejectsEscape(t *testing.T) {
	if err := SafeWrite(t.TempDir(), "../escape.txt", []byte("bad"), 0644); err == nil {
		t.Fatal("expected error for escape attempt")
	}
}

func TestSafeCopy(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "intro.mp4")
	if err := os.WriteFile(src, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := SafeCopy(root, "raw/videos/intro.mp4", src); err != nil {
		t.Fatalf("SafeCopy: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(realRoot(t, root), "raw/videos/intro.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "video" {
		t.Errorf("content = %q", string(data))
	}
}

func TestSafeCopyMissingSource(t *testing.T) {
	if err := SafeCopy(t.TempDir(), "a.bin", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestSafeRename(t *testing.T) {
	root := t.TempDir()
	if err := SafeWrite(root, ".staging/ui", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := SafeRename(root, ".staging/ui", "abc.bundle"); err != nil {
		t.Fatalf("SafeRename: %v", err)
	}

	r := realRoot(t, root)
	if _, err := os.Stat(filepath.Join(r, "abc.bundle")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r, ".staging/ui")); !os.IsNotExist(err) {
		t.Error("source should be gone after rename")
	}
}

func TestSafeRemove(t *testing.T) {
	root := t.TempDir()
	if err := SafeWrite(root, "to-delete.bundle", []byte("bye"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := SafeRemove(root, "to-delete.bundle"); err != nil {
		t.Fatalf("SafeRemove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(realRoot(t, root), "to-delete.bundle")); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}
	if err := SafeRemove(root, "../escape.txt"); err == nil {
		t.Fatal("expected error for escape attempt")
	}
}

func TestSafeRemoveAllRefusesRoot(t *testing.T) {
	root := t.TempDir()
	if err := SafeRemoveAll(root, "."); err == nil {
		t.Fatal("expected refusal to remove the output root")
	}

	if err := SafeWrite(root, ".staging/a/b", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := SafeRemoveAll(root, ".staging"); err != nil {
		t.Fatalf("SafeRemoveAll: %v", err)
	}
	if _, err := os.Stat(filepath.Join(realRoot(t, root), ".staging")); !os.IsNotExist(err) {
		t.Error("staging tree should be removed")
	}
}

func TestSafeMkdirAll(t *testing.T) {
	root := t.TempDir()

	if err := SafeMkdirAll(root, "a/b/c", 0755); err != nil {
		t.Fatalf("SafeMkdirAll: %v", err)
	}
	info, err := os.Stat(filepath.Join(realRoot(t, root), "a/b/c"))
	if err != nil {
		t.Fatalf("directory should exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("should be a directory")
	}
}

func TestPruneEmptyDirs(t *testing.T) {
	root := t.TempDir()
	r := realRoot(t, root)

	for _, d := range []string{"empty/nested", "History", "full"} {
		if err := os.MkdirAll(filepath.Join(r, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(r, "full", "keep.bundle"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := PruneEmptyDirs(root, "History"); err != nil {
		t.Fatalf("PruneEmptyDirs: %v", err)
	}

	if _, err := os.Stat(filepath.Join(r, "empty")); !os.IsNotExist(err) {
		t.Error("empty tree should be pruned")
	}
	if _, err := os.Stat(filepath.Join(r, "History")); err != nil {
		t.Error("kept directory should survive")
	}
	if _, err := os.Stat(filepath.Join(r, "full")); err != nil {
		t.Error("non-empty directory should survive")
	}
}
