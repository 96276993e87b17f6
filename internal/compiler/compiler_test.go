package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/bundlepack/internal/depgraph"
	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/packager"
)

func assetTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func TestCompileEmbedsUnownedAndReportsOwned(t *testing.T) {
	root := assetTree(t, map[string]string{
		"G/A.prefab":     "a",
		"G/B.prefab":     "b",
		"shared/Tex.png": "tex",
		"Mat/M.mat":      "mat",
	})
	scanner := depgraph.MapScanner{
		"G/A.prefab": {"shared/Tex.png", "Mat/M.mat", "G/B.prefab"},
		"G/B.prefab": {"shared/Tex.png", "Code/X.cs"},
	}
	c := &Compiler{Scanner: scanner, ExcludedExtensions: []string{".cs"}}
	out := t.TempDir()

	res, err := c.Compile(context.Background(), out, []packager.BundleBuild{
		{Name: "g", Sources: []string{"G/A.prefab", "G/B.prefab"}},
		{Name: "shared", Sources: []string{"shared/Tex.png"}},
	}, packager.CompileOptions{AssetRoot: root})
	require.NoError(t, err)

	require.Contains(t, res, "g")
	assert.Equal(t, []string{"g", "shared"}, res["g"].Dependencies)
	assert.Empty(t, res["shared"].Dependencies)

	data, err := os.ReadFile(filepath.Join(out, "g"))
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Bytes(data), res["g"].Hash)

	entries, err := Entries(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"G/A.prefab", "G/B.prefab", "Mat/M.mat"}, entries)
}

func TestCompileDeterministic(t *testing.T) {
	root := assetTree(t, map[string]string{"UI/A.prefab": "a"})
	c := &Compiler{}
	builds := []packager.BundleBuild{{Name: "ui", Sources: []string{"UI/A.prefab"}}}

	first, err := c.Compile(context.Background(), t.TempDir(), builds, packager.CompileOptions{AssetRoot: root})
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), t.TempDir(), builds, packager.CompileOptions{AssetRoot: root})
	require.NoError(t, err)
	assert.Equal(t, first["ui"].Hash, second["ui"].Hash)
}

func TestCompileMissingSource(t *testing.T) {
	c := &Compiler{}
	_, err := c.Compile(context.Background(), t.TempDir(),
		[]packager.BundleBuild{{Name: "ui", Sources: []string{"UI/Missing.prefab"}}},
		packager.CompileOptions{AssetRoot: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundle 'ui'")
}

func TestEntriesRejectsGarbage(t *testing.T) {
	_, err := Entries([]byte("nope"))
	assert.Error(t, err)
}

func TestEntriesWithSpacesInPaths(t *testing.T) {
	root := assetTree(t, map[string]string{
		"My Folder/Hero Model.prefab": "hero",
		"My Folder/two  spaces.mat":   "mat 1 2",
	})
	c := &Compiler{}
	out := t.TempDir()
	_, err := c.Compile(context.Background(), out, []packager.BundleBuild{
		{Name: "my_folder", Sources: []string{"My Folder/Hero Model.prefab", "My Folder/two  spaces.mat"}},
	}, packager.CompileOptions{AssetRoot: root})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "my_folder"))
	require.NoError(t, err)
	entries, err := Entries(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"My Folder/Hero Model.prefab", "My Folder/two  spaces.mat"}, entries)
}

func TestEntriesRejectsBadSize(t *testing.T) {
	tests := []string{
		Magic + "bundle x\nentry a.png\n",
		Magic + "bundle x\nentry a.png -1\n",
		Magic + "bundle x\nentry a.png 9\nabc",
		Magic + "bundle x\nitem a.png 1\na",
	}
	for _, data := range tests {
		_, err := Entries([]byte(data))
		assert.Error(t, err, "%q", data)
	}
}
