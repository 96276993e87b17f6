package store

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := load(path, "manifest", &m); err != nil {
		return nil, err
	}
	if errs := ValidateManifest(&m); len(errs) > 0 {
		return nil, &ValidationError{Kind: "manifest", Errors: errs}
	}
	return &m, nil
}

// LoadVersion reads and validates a version container.
func LoadVersion(path string) (*VersionContainer, error) {
	var v VersionContainer
	if err := load(path, "version file", &v); err != nil {
		return nil, err
	}
	if errs := ValidateVersion(&v); len(errs) > 0 {
		return nil, &ValidationError{Kind: "version file", Errors: errs}
	}
	return &v, nil
}

// LoadBuild reads a build record.
func LoadBuild(path string) (*BuildRecord, error) {
	var b BuildRecord
	if err := load(path, "build record", &b); err != nil {
		return nil, err
	}
	if b.Version < 1 {
		return nil, &ValidationError{Kind: "build record", Errors: []string{fmt.Sprintf("invalid version %d", b.Version)}}
	}
	return &b, nil
}

// Marshal encodes any record as YAML.
func Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}
	return data, nil
}

// Save writes a record atomically using a temp file and rename.
func Save(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	return nil
}

func load(path, kind string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", kind, path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s %s: %w", kind, path, err)
	}
	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Kind   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed:\n  - %s", e.Kind, strings.Join(e.Errors, "\n  - "))
}

// ValidateManifest checks ids, names and dependency edges.
func ValidateManifest(m *Manifest) []string {
	var errs []string
	if m.Name == "" {
		errs = append(errs, "'manifest' is required")
	}
	names := make(map[string]bool)
	for i, b := range m.Bundles {
		prefix := fmt.Sprintf("bundle[%d]", i)
		if b.ID != i {
			errs = append(errs, fmt.Sprintf("%s: id %d out of sequence", prefix, b.ID))
		}
		if b.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		} else if names[b.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate bundle name '%s'", prefix, b.Name))
		}
		names[b.Name] = true
		if b.Hash == "" {
			errs = append(errs, fmt.Sprintf("%s: 'hash' is required", prefix))
		}
		for _, d := range b.Dependencies {
			if d == b.ID {
				errs = append(errs, fmt.Sprintf("%s: depends on itself", prefix))
			} else if d < 0 || d >= len(m.Bundles) {
				errs = append(errs, fmt.Sprintf("%s: unknown dependency id %d", prefix, d))
			}
		}
	}
	return errs
}

// ValidateVersion checks a version container.
func ValidateVersion(v *VersionContainer) []string {
	var errs []string
	if v.Version < 1 {
		errs = append(errs, fmt.Sprintf("invalid version %d", v.Version))
	}
	seen := make(map[string]bool)
	for i, e := range v.Entries {
		prefix := fmt.Sprintf("entry[%d]", i)
		if e.Manifest == "" {
			errs = append(errs, fmt.Sprintf("%s: 'manifest' is required", prefix))
		} else if seen[e.Manifest] {
			errs = append(errs, fmt.Sprintf("%s: duplicate manifest '%s'", prefix, e.Manifest))
		}
		seen[e.Manifest] = true
		if e.File == "" {
			errs = append(errs, fmt.Sprintf("%s: 'file' is required", prefix))
		}
	}
	return errs
}
