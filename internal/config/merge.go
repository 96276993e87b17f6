package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base:
//   - version: must agree if both declare it (non-zero)
//   - settings: field by field, non-zero overlay values win
//   - manifests: merge by name, an overlay manifest replaces the base one
//   - platform_definitions: merge by name
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := &Config{}
	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}
	result.Settings = mergeSettings(base.Settings, overlay.Settings)
	result.Manifests = mergeNamed(base.Manifests, overlay.Manifests, func(m Manifest) string { return m.Name })
	result.PlatformDefinitions = mergeNamed(base.PlatformDefinitions, overlay.PlatformDefinitions, func(p PlatformDefinition) string { return p.Name })
	return result, nil
}

// MergeAll merges configs in order, lowest precedence first.
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0:
		*out = overlay
	case overlay == 0, base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d — all config layers must agree on version", base, overlay)
	}
	return nil
}

func mergeSettings(base, overlay Settings) Settings {
	out := base
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.AssetRoot, overlay.AssetRoot)
	pick(&out.OutputRoot, overlay.OutputRoot)
	pick(&out.Platform, overlay.Platform)
	pick(&out.ArtifactExtension, overlay.ArtifactExtension)
	pick(&out.HistoryFolder, overlay.HistoryFolder)
	pick(&out.EditorFolder, overlay.EditorFolder)
	pick(&out.SceneExtension, overlay.SceneExtension)
	pick(&out.DependenciesFile, overlay.DependenciesFile)
	pick(&out.UploadDir, overlay.UploadDir)

	if overlay.HashOnlyNames != nil {
		v := *overlay.HashOnlyNames
		out.HashOnlyNames = &v
	}
	if overlay.Obfuscate {
		out.Obfuscate = true
	}
	if overlay.ObfuscateOffset != 0 {
		out.ObfuscateOffset = overlay.ObfuscateOffset
	}
	if overlay.RecordAssetHashes {
		out.RecordAssetHashes = true
	}
	if overlay.HistoryKeep != 0 {
		out.HistoryKeep = overlay.HistoryKeep
	}
	if overlay.ExcludedExtensions != nil {
		out.ExcludedExtensions = overlay.ExcludedExtensions
	}
	if overlay.IgnoredExtensions != nil {
		out.IgnoredExtensions = overlay.IgnoredExtensions
	}
	return out
}

// mergeNamed keeps base entries the overlay does not redefine, followed by
// every overlay entry.
func mergeNamed[T any](base, overlay []T, name func(T) string) []T {
	if len(base) == 0 {
		return overlay
	}
	if len(overlay) == 0 {
		return base
	}

	overlayNames := make(map[string]bool, len(overlay))
	for _, o := range overlay {
		overlayNames[name(o)] = true
	}

	var result []T
	for _, b := range base {
		if !overlayNames[name(b)] {
			result = append(result, b)
		}
	}
	return append(result, overlay...)
}
