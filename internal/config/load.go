package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a bundlepack.yaml configuration file.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// Parse reads a configuration file without validating it. Layers parsed this
// way are merged before validation.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// HierarchicalResult is the merged config plus what was found at each level.
type HierarchicalResult struct {
	Config *Config
	Layers []ConfigLayerInfo
}

// LoadHierarchical loads system, user and project layers (lowest precedence
// first), merges them and validates the result. The project layer must
// exist; the others are optional. With BUNDLEPACK_NO_INHERIT set only the
// project layer is read.
func LoadHierarchical(opts DiscoverOptions) (*HierarchicalResult, error) {
	var layers []ConfigLayerInfo
	if EnvNoInherit() {
		layers = []ConfigLayerInfo{{Path: opts.ProjectPath, Level: LevelProject}}
	} else {
		layers = DiscoverPaths(opts)
	}

	var configs []*Config
	for i := range layers {
		l := &layers[i]
		cfg, err := Parse(l.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && l.Level != LevelProject {
				continue
			}
			l.Err = err
			return nil, fmt.Errorf("loading %s config: %w", l.Level, err)
		}
		l.Loaded = true
		configs = append(configs, cfg)
	}

	merged, err := MergeAll(configs)
	if err != nil {
		return nil, err
	}
	if errs := Validate(merged); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &HierarchicalResult{Config: merged, Layers: layers}, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for structural correctness and returns a list of
// messages (empty if valid). Path-level problems of individual groups are
// not reported here: the grouping engine reports them and skips the group.
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	errs = append(errs, validateSettings(cfg.Settings)...)

	if len(cfg.Manifests) == 0 {
		errs = append(errs, "at least one manifest is required")
	}

	manifestNames := make(map[string]bool)
	for i, m := range cfg.Manifests {
		prefix := fmt.Sprintf("manifest[%d]", i)
		if m.Name != "" {
			prefix = fmt.Sprintf("manifest '%s'", m.Name)
		}

		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		} else if manifestNames[m.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate manifest name '%s'", prefix, m.Name))
		} else {
			manifestNames[m.Name] = true
		}

		if len(m.Groups) == 0 {
			errs = append(errs, fmt.Sprintf("%s: at least one group is required", prefix))
		}

		groupNames := make(map[string]bool)
		for j, g := range m.Groups {
			gprefix := fmt.Sprintf("%s group[%d]", prefix, j)
			if g.Name != "" {
				gprefix = fmt.Sprintf("%s group '%s'", prefix, g.Name)
			}

			if g.Name == "" {
				errs = append(errs, fmt.Sprintf("%s: 'name' is required", gprefix))
			} else if groupNames[g.Name] {
				errs = append(errs, fmt.Sprintf("%s: duplicate group name '%s'", gprefix, g.Name))
			} else {
				groupNames[g.Name] = true
			}

			errs = append(errs, validateGroup(g, gprefix)...)
		}
	}

	for i, pd := range cfg.PlatformDefinitions {
		prefix := fmt.Sprintf("platform_definition[%d]", i)
		if pd.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		}
		if pd.Folder == "" {
			errs = append(errs, fmt.Sprintf("%s: 'folder' is required", prefix))
		}
	}

	return errs
}

func validateSettings(s Settings) []string {
	var errs []string

	if s.AssetRoot == "" {
		errs = append(errs, "settings: 'asset_root' is required")
	}
	if s.OutputRoot == "" {
		errs = append(errs, "settings: 'output_root' is required")
	}
	if s.Platform == "" {
		errs = append(errs, "settings: 'platform' is required — add 'platform: <name>' or set BUNDLEPACK_PLATFORM")
	}
	if s.ArtifactExtension != "" && !strings.HasPrefix(s.ArtifactExtension, ".") {
		errs = append(errs, fmt.Sprintf("settings: artifact_extension '%s' must start with '.'", s.ArtifactExtension))
	}
	if s.HistoryFolder != "" && (strings.ContainsAny(s.HistoryFolder, `/\`) || s.HistoryFolder == "." || s.HistoryFolder == "..") {
		errs = append(errs, fmt.Sprintf("settings: history_folder '%s' must be a single folder name", s.HistoryFolder))
	}
	if s.ObfuscateOffset < 0 {
		errs = append(errs, fmt.Sprintf("settings: obfuscate_offset %d must not be negative", s.ObfuscateOffset))
	}
	if s.HistoryKeep < 0 {
		errs = append(errs, fmt.Sprintf("settings: history_keep %d must not be negative", s.HistoryKeep))
	}
	if s.UploadDir != "" && s.OutputRoot != "" && within(s.OutputRoot, s.UploadDir) {
		errs = append(errs, fmt.Sprintf("settings: upload_dir '%s' must not be inside output_root '%s'", s.UploadDir, s.OutputRoot))
	}

	return errs
}

func validateGroup(g Group, prefix string) []string {
	var errs []string

	switch g.Mode {
	case ModeIndividual, ModeByFolder, ModeWholeGroup, ModeRaw, ModeMatchedFolder:
	case "":
		errs = append(errs, fmt.Sprintf("%s: 'mode' is required — must be one of: %s", prefix, modeList()))
	default:
		errs = append(errs, fmt.Sprintf("%s: unknown mode '%s' — must be one of: %s", prefix, g.Mode, modeList()))
	}

	if g.Ascend < 0 {
		errs = append(errs, fmt.Sprintf("%s: 'ascend' must not be negative", prefix))
	}
	if g.Mode != ModeRaw && (g.PlacementFolder != "" || g.ExternalPath != "" || len(g.Platforms) > 0) {
		errs = append(errs, fmt.Sprintf("%s: placement_folder, external_path and platforms apply to mode 'raw' only", prefix))
	}

	return errs
}

func modeList() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// within reports whether child is parent or lies below it.
func within(parent, child string) bool {
	p, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	c, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p, c)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
