package config

// Config represents the bundlepack.yaml configuration file.
type Config struct {
	Version             int                  `yaml:"version"`
	Settings            Settings             `yaml:"settings"`
	Manifests           []Manifest           `yaml:"manifests"`
	PlatformDefinitions []PlatformDefinition `yaml:"platform_definitions,omitempty"`
}

// Settings are the engine-wide switches handed to the grouping engine and
// the packager at construction.
type Settings struct {
	AssetRoot          string   `yaml:"asset_root"`
	OutputRoot         string   `yaml:"output_root"`
	Platform           string   `yaml:"platform"`
	HashOnlyNames      *bool    `yaml:"hash_only_names,omitempty"`
	ArtifactExtension  string   `yaml:"artifact_extension,omitempty"`
	Obfuscate          bool     `yaml:"obfuscate,omitempty"`
	ObfuscateOffset    int      `yaml:"obfuscate_offset,omitempty"`
	HistoryFolder      string   `yaml:"history_folder,omitempty"`
	EditorFolder       string   `yaml:"editor_folder,omitempty"`
	SceneExtension     string   `yaml:"scene_extension,omitempty"`
	ExcludedExtensions []string `yaml:"excluded_extensions,omitempty"`
	IgnoredExtensions  []string `yaml:"ignored_extensions,omitempty"`
	DependenciesFile   string   `yaml:"dependencies_file,omitempty"`
	RecordAssetHashes  bool     `yaml:"record_asset_hashes,omitempty"`
	UploadDir          string   `yaml:"upload_dir,omitempty"`
	HistoryKeep        int      `yaml:"history_keep,omitempty"`
}

// Manifest is one configured release group. Every packaging run rebuilds
// the whole manifest.
type Manifest struct {
	Name   string  `yaml:"name"`
	Groups []Group `yaml:"groups"`
}

// Mode selects how a group's sources are assigned to bundles.
type Mode string

const (
	ModeIndividual    Mode = "individual"
	ModeByFolder      Mode = "by_folder"
	ModeWholeGroup    Mode = "whole_group"
	ModeRaw           Mode = "raw"
	ModeMatchedFolder Mode = "matched_folder"
)

// Modes lists every supported mode in declaration order.
var Modes = []Mode{ModeIndividual, ModeByFolder, ModeWholeGroup, ModeRaw, ModeMatchedFolder}

// Group selects source items and describes how they are bundled.
type Group struct {
	Name         string   `yaml:"name"`
	Mode         Mode     `yaml:"mode"`
	Path         string   `yaml:"path"`
	Filter       []string `yaml:"filter,omitempty"`
	Dependencies bool     `yaml:"dependencies,omitempty"`
	Disabled     bool     `yaml:"disabled,omitempty"`

	// Whole-group mode.
	BundleName string `yaml:"bundle_name,omitempty"`

	// Raw mode.
	PlacementFolder string   `yaml:"placement_folder,omitempty"`
	Platforms       []string `yaml:"platforms,omitempty"`
	ExternalPath    string   `yaml:"external_path,omitempty"`

	// Matched-folder mode.
	Match  string `yaml:"match,omitempty"`
	Ascend int    `yaml:"ascend,omitempty"`
}

// PlatformDefinition adds a custom platform or overrides a built-in one.
type PlatformDefinition struct {
	Name   string `yaml:"name"`
	Folder string `yaml:"folder"`
}

// Defaults applied by WithDefaults.
const (
	DefaultArtifactExtension = ".bundle"
	DefaultHistoryFolder     = "History"
	DefaultEditorFolder      = "Editor"
	DefaultSceneExtension    = ".unity"
	DefaultObfuscateOffset   = 32
)

// DefaultExcludedExtensions never become dependencies: code, binaries,
// sprite atlases, baked lighting and timeline data.
var DefaultExcludedExtensions = []string{".cs", ".dll", ".spriteatlas", ".lighting", ".playable"}

// DefaultIgnoredExtensions are never enumerated as sources.
var DefaultIgnoredExtensions = []string{".meta"}

// HashOnly reports whether artifact names carry only the content hash.
// Unset means true.
func (s Settings) HashOnly() bool {
	return s.HashOnlyNames == nil || *s.HashOnlyNames
}

// WithDefaults returns a copy of s with every empty field filled in.
func (s Settings) WithDefaults() Settings {
	if s.ArtifactExtension == "" {
		s.ArtifactExtension = DefaultArtifactExtension
	}
	if s.HistoryFolder == "" {
		s.HistoryFolder = DefaultHistoryFolder
	}
	if s.EditorFolder == "" {
		s.EditorFolder = DefaultEditorFolder
	}
	if s.SceneExtension == "" {
		s.SceneExtension = DefaultSceneExtension
	}
	if s.ObfuscateOffset == 0 {
		s.ObfuscateOffset = DefaultObfuscateOffset
	}
	if s.ExcludedExtensions == nil {
		s.ExcludedExtensions = append([]string(nil), DefaultExcludedExtensions...)
	}
	if s.IgnoredExtensions == nil {
		s.IgnoredExtensions = append([]string(nil), DefaultIgnoredExtensions...)
	}
	return s
}

// ManifestNames returns the configured manifest names in order.
func (c *Config) ManifestNames() []string {
	names := make([]string, 0, len(c.Manifests))
	for _, m := range c.Manifests {
		names = append(names, m.Name)
	}
	return names
}

// FindManifest returns the manifest with the given name.
func (c *Config) FindManifest(name string) (Manifest, bool) {
	for _, m := range c.Manifests {
		if m.Name == name {
			return m, true
		}
	}
	return Manifest{}, false
}
