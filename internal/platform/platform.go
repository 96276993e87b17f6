// Package platform maps build platforms to the output sub-folder that holds
// their bundles. Each platform has its own version lineage.
package platform

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bianoble/bundlepack/internal/config"
)

var builtinPlatforms = map[string]string{
	"android": "Android",
	"ios":     "iOS",
	"windows": "Windows",
	"macos":   "MacOS",
	"linux":   "Linux",
	"webgl":   "WebGL",
}

// Table resolves platform names to output folders.
type Table struct {
	folders map[string]string
}

// NewTable creates a Table with the built-in platforms and optional custom
// definitions, which win over built-ins of the same name.
func NewTable(customDefs []config.PlatformDefinition) *Table {
	folders := make(map[string]string, len(builtinPlatforms)+len(customDefs))
	for name, folder := range builtinPlatforms {
		folders[name] = folder
	}
	for _, pd := range customDefs {
		folders[strings.ToLower(pd.Name)] = pd.Folder
	}
	return &Table{folders: folders}
}

// Folder returns the output folder name for a platform. Names are matched
// case-insensitively.
func (t *Table) Folder(name string) (string, error) {
	folder, ok := t.folders[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown platform '%s' — define it in platform_definitions: [{name: %s, folder: %s}]", name, name, name)
	}
	return folder, nil
}

// OutputDir joins the configured output root with the platform folder.
func (t *Table) OutputDir(outputRoot, name string) (string, error) {
	folder, err := t.Folder(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(outputRoot, folder), nil
}

// Known returns every platform name, sorted.
func (t *Table) Known() []string {
	names := make([]string, 0, len(t.folders))
	for name := range t.folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCustom reports whether name comes only from a custom definition.
func (t *Table) IsCustom(name string) bool {
	name = strings.ToLower(name)
	_, builtin := builtinPlatforms[name]
	_, defined := t.folders[name]
	return defined && !builtin
}

// Allowed reports whether active is in allow. An empty allow-list admits
// every platform.
func Allowed(allow []string, active string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, p := range allow {
		if strings.EqualFold(p, active) {
			return true
		}
	}
	return false
}
