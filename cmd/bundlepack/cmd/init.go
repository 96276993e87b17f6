package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default bundlepack.yaml scaffold.
// It includes a working manifest and commented-out alternatives.
const initTemplate = `# bundlepack configuration
version: 1

settings:
  asset_root: Assets
  output_root: Build
  platform: android
  # hash_only_names: true        # false prefixes artifact names with the bundle name
  # artifact_extension: .bundle
  # obfuscate: false             # prepend deterministic padding to new artifacts
  # obfuscate_offset: 32
  # history_folder: History
  # history_keep: 0              # 0 keeps every recorded version
  # dependencies_file: dependencies.yaml
  # record_asset_hashes: false   # per-asset hashes enable indirect-change detection
  # upload_dir: Upload           # stage changed files per version for upload

manifests:
  - name: base
    groups:
      # One bundle per folder, shared dependencies split out
      - name: prefabs
        mode: by_folder
        path: Prefabs
        dependencies: true

      # One bundle per file
      # - name: scenes
      #   mode: individual
      #   path: Scenes
      #   filter: ["*.unity"]

      # Everything in one named bundle
      # - name: ui
      #   mode: whole_group
      #   path: UI
      #   bundle_name: ui

      # Copied verbatim under a content-hash name
      # - name: configs
      #   mode: raw
      #   path: Configs
      #   placement_folder: data
      #   platforms: [android, ios]

      # Folders containing a match, optionally ascending
      # - name: characters
      #   mode: matched_folder
      #   path: Characters
      #   match: "*.controller"
      #   ascend: 1

# platform_definitions:
#   - name: android
#     folder: AndroidGL
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter bundlepack.yaml configuration",
	Long: `Creates a bundlepack.yaml file in the current directory with a
well-commented template including a by_folder manifest and documented
alternatives for every grouping mode.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Point asset_root and the groups at your assets")
		info("  2. Run 'bundlepack package --dry-run' to review the bundle plan")
		info("  3. Run 'bundlepack package' to publish the first version")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
