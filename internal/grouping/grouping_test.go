package grouping

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/fingerprint"
	"github.com/bianoble/bundlepack/internal/source"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func newEngine(t *testing.T, files map[string]string) *Engine {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	settings := config.Settings{AssetRoot: root, OutputRoot: "out", Platform: "android"}.WithDefaults()
	return &Engine{
		Settings:    settings,
		Tree:        source.NewTree(root, settings.IgnoredExtensions),
		Platform:    "android",
		ProjectRoot: root,
	}
}

func bundles(as []Assignment) map[string]string {
	out := make(map[string]string)
	for _, a := range as {
		out[a.Source] = a.Bundle
	}
	return out
}

func TestPlanModes(t *testing.T) {
	e := newEngine(t, map[string]string{
		"UI/Menu/A.prefab":      "a",
		"UI/Menu/B.prefab":      "b",
		"UI/Menu/B.prefab.meta": "meta",
		"UI/Hud/C.prefab":       "c",
		"Levels/One.unity":      "scene",
		"Levels/Props/P.prefab": "p",
	})

	tests := []struct {
		name  string
		group config.Group
		want  map[string]string
	}{
		{
			name:  "individual",
			group: config.Group{Name: "g", Mode: config.ModeIndividual, Path: "UI/Hud"},
			want:  map[string]string{"UI/Hud/C.prefab": "ui_hud_c_prefab"},
		},
		{
			name:  "by folder",
			group: config.Group{Name: "g", Mode: config.ModeByFolder, Path: "UI"},
			want: map[string]string{
				"UI/Hud/C.prefab":  "ui_hud",
				"UI/Menu/A.prefab": "ui_menu",
				"UI/Menu/B.prefab": "ui_menu",
			},
		},
		{
			name:  "whole group with scene forced individual",
			group: config.Group{Name: "g", Mode: config.ModeWholeGroup, Path: "Levels", BundleName: "levels"},
			want: map[string]string{
				"Levels/One.unity":      "levels_one_unity",
				"Levels/Props/P.prefab": "levels",
			},
		},
		{
			name:  "single file selector",
			group: config.Group{Name: "g", Mode: config.ModeByFolder, Path: "UI/Menu/A.prefab"},
			want:  map[string]string{"UI/Menu/A.prefab": "ui_menu"},
		},
		{
			name:  "filter",
			group: config.Group{Name: "g", Mode: config.ModeIndividual, Path: "UI", Filter: []string{"Menu/**"}},
			want: map[string]string{
				"UI/Menu/A.prefab": "ui_menu_a_prefab",
				"UI/Menu/B.prefab": "ui_menu_b_prefab",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := e.Plan(context.Background(), []config.Group{tt.group})
			require.NoError(t, err)
			assert.Empty(t, plan.Problems)
			assert.Equal(t, tt.want, bundles(plan.Assignments))
		})
	}
}

func TestPlanRaw(t *testing.T) {
	e := newEngine(t, map[string]string{"Raw/config.json": "{}"})
	hash := fingerprint.Bytes([]byte("{}"))

	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "raw", Mode: config.ModeRaw, Path: "Raw", PlacementFolder: "data"},
	})
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 1)
	a := plan.Assignments[0]
	assert.True(t, a.Raw)
	assert.Equal(t, fingerprint.String("Raw/config.json:"+hash)+".json", a.Bundle)
	assert.Equal(t, "data", a.PlacementFolder)
	assert.Empty(t, a.ExternalOrigin)

	readable := false
	e.Settings.HashOnlyNames = &readable
	plan, err = e.Plan(context.Background(), []config.Group{
		{Name: "raw", Mode: config.ModeRaw, Path: "Raw"},
	})
	require.NoError(t, err)
	assert.Equal(t, "raw_config_"+hash+".json", plan.Assignments[0].Bundle)
}

func TestPlanRawIdenticalContentGetsDistinctNames(t *testing.T) {
	e := newEngine(t, map[string]string{
		"Raw/a.json":     "{}",
		"Raw/b.json":     "{}",
		"Raw/sub/a.json": "{}",
		"Other/a.json":   "{}",
	})
	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "raw", Mode: config.ModeRaw, Path: "Raw", PlacementFolder: "data"},
		{Name: "other", Mode: config.ModeRaw, Path: "Other", PlacementFolder: "other"},
	})
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 4)

	seen := make(map[string]string)
	for _, a := range plan.Assignments {
		prev, dup := seen[a.Bundle]
		assert.False(t, dup, "%s and %s share %s", prev, a.Source, a.Bundle)
		seen[a.Bundle] = a.Source
	}
}

func TestPlanRawExternal(t *testing.T) {
	e := newEngine(t, nil)
	ext := t.TempDir()
	writeFiles(t, ext, map[string]string{"video/intro.mp4": "mp4"})

	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "videos", Mode: config.ModeRaw, ExternalPath: ext, Path: "video"},
	})
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, filepath.Join(ext, "video", "intro.mp4"), plan.Assignments[0].ExternalOrigin)
}

func TestPlanSkipsInvalidGroups(t *testing.T) {
	e := newEngine(t, map[string]string{"UI/A.prefab": "a", "Raw/x.txt": "x"})

	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "missing", Mode: config.ModeIndividual, Path: "Nope"},
		{Name: "history", Mode: config.ModeRaw, Path: "Raw", PlacementFolder: "History"},
		{Name: "external", Mode: config.ModeRaw, Path: ".", ExternalPath: "does/not/exist"},
		{Name: "nameless", Mode: config.ModeWholeGroup, Path: "UI"},
		{Name: "ok", Mode: config.ModeIndividual, Path: "UI"},
	})
	require.NoError(t, err)
	require.Len(t, plan.Problems, 4)
	assert.Equal(t, "missing", plan.Problems[0].Group)
	assert.Contains(t, plan.Problems[1].Message, "history folder")
	assert.Contains(t, plan.Problems[2].Message, "external path")
	assert.Contains(t, plan.Problems[3].Error(), "bundle_name")
	assert.Equal(t, map[string]string{"UI/A.prefab": "ui_a_prefab"}, bundles(plan.Assignments))
}

func TestPlanDisabledAndPlatformFiltered(t *testing.T) {
	e := newEngine(t, map[string]string{"UI/A.prefab": "a", "Raw/x.txt": "x"})

	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "off", Mode: config.ModeIndividual, Path: "UI", Disabled: true},
		{Name: "ios-only", Mode: config.ModeRaw, Path: "Raw", Platforms: []string{"ios"}},
	})
	require.NoError(t, err)
	assert.Empty(t, plan.Assignments)
	assert.Empty(t, plan.Problems)
}

func TestPlanMatchedFolder(t *testing.T) {
	e := newEngine(t, map[string]string{
		"Levels/L1/Data/a.asset": "a",
		"Levels/L1/Art/b.png":    "b",
		"Levels/L2/Data/c.asset": "c",
		"Levels/L2/Data/d.asset": "d",
		"Levels/L2/Intro.unity":  "scene",
		"Levels/Shared/e.asset":  "e",
	})

	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "levels", Mode: config.ModeMatchedFolder, Path: "Levels", Match: "*/Data", Ascend: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Levels/L1/Art/b.png":    "levels_l1",
		"Levels/L1/Data/a.asset": "levels_l1",
		"Levels/L2/Data/c.asset": "levels_l2",
		"Levels/L2/Data/d.asset": "levels_l2",
		"Levels/L2/Intro.unity":  "levels_l2_intro_unity",
	}, bundles(plan.Assignments))
}

func TestPlanMatchedFolderAscendClamped(t *testing.T) {
	e := newEngine(t, map[string]string{
		"Levels/L1/Data/a.asset": "a",
		"Levels/L2/Data/c.asset": "c",
	})

	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "levels", Mode: config.ModeMatchedFolder, Path: "Levels", Match: "**/Data", Ascend: 5},
	})
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 2)
	for _, a := range plan.Assignments {
		assert.Equal(t, "levels", a.Bundle)
	}
}

func TestPlanPartition(t *testing.T) {
	e := newEngine(t, map[string]string{"UI/A.prefab": "a", "Raw/x.txt": "x", "Fx/f.prefab": "f"})

	plan, err := e.Plan(context.Background(), []config.Group{
		{Name: "ui", Mode: config.ModeByFolder, Path: "UI", Dependencies: true},
		{Name: "fx", Mode: config.ModeByFolder, Path: "Fx"},
		{Name: "raw", Mode: config.ModeRaw, Path: "Raw", Dependencies: true},
	})
	require.NoError(t, err)
	require.Len(t, plan.Dependent(), 1)
	assert.Equal(t, "UI/A.prefab", plan.Dependent()[0].Source)
	assert.Len(t, plan.Direct(), 2)
}

func TestBundleNameDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "ui_menu_a_prefab", BundleName("UI/Menu/A.prefab", config.ModeIndividual, ""))
		assert.Equal(t, "ui_menu", BundleName("./UI/Menu/A.prefab", config.ModeByFolder, ""))
		assert.Equal(t, "root", BundleName("A.prefab", config.ModeByFolder, ""))
		assert.Equal(t, "all", BundleName("UI/A.prefab", config.ModeWholeGroup, "all"))
		assert.Equal(t, "levels_v2_json", BundleName("UI/A.prefab", config.ModeWholeGroup, "Levels.v2.json"))
	}
}
