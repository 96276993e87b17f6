package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	configFileName = "bundlepack.yaml"
	configDirName  = "bundlepack"
)

// ConfigLevel is the precedence level of a configuration layer.
type ConfigLevel string

const (
	LevelSystem  ConfigLevel = "system"
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo describes one discovered layer and whether it was loaded.
type ConfigLayerInfo struct {
	Err    error
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// DiscoverOptions controls where layers are looked for. Empty system/user
// paths mean the OS default; a nonexistent path skips that layer.
type DiscoverOptions struct {
	ProjectPath      string
	SystemConfigPath string
	UserConfigPath   string
}

// DiscoverPaths returns the candidate layers from lowest precedence (system)
// to highest (project), de-duplicated by absolute path.
func DiscoverPaths(opts DiscoverOptions) []ConfigLayerInfo {
	candidates := []ConfigLayerInfo{
		{Level: LevelSystem, Path: firstNonEmpty(opts.SystemConfigPath, defaultSystemConfigPath())},
		{Level: LevelUser, Path: firstNonEmpty(opts.UserConfigPath, defaultUserConfigPath())},
		{Level: LevelProject, Path: opts.ProjectPath},
	}

	seen := make(map[string]int)
	var layers []ConfigLayerInfo
	for _, c := range candidates {
		if c.Path == "" {
			continue
		}
		abs, err := filepath.Abs(c.Path)
		if err != nil {
			abs = c.Path
		}
		// The same file reached twice keeps the higher precedence level.
		if idx, ok := seen[abs]; ok {
			layers[idx].Level = c.Level
			continue
		}
		seen[abs] = len(layers)
		layers = append(layers, c)
	}
	return layers
}

func defaultSystemConfigPath() string {
	if runtime.GOOS == "windows" {
		pd := os.Getenv("ProgramData")
		if pd == "" {
			pd = `C:\ProgramData`
		}
		return filepath.Join(pd, configDirName, configFileName)
	}
	return filepath.Join("/etc", configDirName, configFileName)
}

func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName, configFileName)
}

// EnvNoInherit reports whether BUNDLEPACK_NO_INHERIT asks for the project
// layer only.
func EnvNoInherit() bool {
	return envBoolTrue("BUNDLEPACK_NO_INHERIT")
}

func envBoolTrue(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
