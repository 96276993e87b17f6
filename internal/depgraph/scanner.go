package depgraph

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/bundlepack/internal/source"
)

// Scanner reports the direct references of one asset. It must not return
// the transitive closure; Resolve walks it.
type Scanner interface {
	GetDependencies(path string) ([]string, error)
}

// MapScanner is an in-memory Scanner keyed by asset path.
type MapScanner map[string][]string

// GetDependencies returns the recorded references of path.
func (m MapScanner) GetDependencies(path string) ([]string, error) {
	return append([]string(nil), m[source.Clean(path)]...), nil
}

// LoadFile reads a YAML dependency listing:
//
//	UI/Menu/A.prefab:
//	  - Shared/Tex.png
//
// Paths are relative to the asset root.
func LoadFile(path string) (MapScanner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dependencies %s: %w", path, err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing dependencies %s: %w", path, err)
	}
	m := make(MapScanner, len(raw))
	for k, deps := range raw {
		cleaned := make([]string, 0, len(deps))
		for _, d := range deps {
			cleaned = append(cleaned, source.Clean(d))
		}
		sort.Strings(cleaned)
		m[source.Clean(k)] = cleaned
	}
	return m, nil
}
