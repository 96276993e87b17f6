package cmd

import (
	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/spf13/cobra"
)

var (
	packageManifests []string
	packageDryRun    bool
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Package manifests and publish a new version when anything changed",
	Long: `Groups the configured sources into bundles, splits shared dependencies
into their own bundles, compiles only bundles whose content changed and
publishes a new version when any manifest's bundle set differs from the
live one. Packaging every manifest also retires manifests that are no
longer configured.

Use --manifest to package a subset and --dry-run to print the bundle plan
without writing anything. Interrupting the dependency scan writes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}

		eng := &engine.PackageEngine{Workspace: ws, Reporter: newReporter()}
		opts := engine.PackageOptions{Manifests: packageManifests, DryRun: packageDryRun}
		result, err := eng.Package(cmd.Context(), opts)
		if err != nil {
			if cancelled(err) {
				return nil
			}
			return err
		}

		for _, p := range result.Problems {
			errorf("%s (group skipped)", p.Error())
		}

		if packageDryRun {
			info("Dry run; no files written.")
			for _, plan := range result.Plans {
				info("\n%s: %d assignment(s), %d auto-grouped, %d duplicate(s) dropped",
					plan.Name, len(plan.Assignments), plan.AutoGrouped, plan.Dropped)
				for _, a := range plan.Assignments {
					kind := "bundle"
					if a.Raw {
						kind = "raw"
					}
					info("  %-6s %-40s %s", kind, a.Bundle, a.Source)
				}
			}
			return nil
		}

		for _, m := range result.Manifests {
			info("  %-20s %d bundle(s), %d placed, %d post-processed", m.Name, m.Bundles, m.Placed, m.Processed)
			if m.AutoGrouped > 0 {
				detail("%d shared dependencies split into their own bundles", m.AutoGrouped)
			}
		}

		if !result.Changed {
			info("\nNo changes; version %d is current.", result.Version)
		} else {
			if result.Previous == 0 {
				info("\nPublished version %d.", result.Version)
			} else {
				info("\nPublished version %d (was %d).", result.Version, result.Previous)
			}
			for _, r := range result.Reasons {
				detail("%s", r)
			}
			for _, f := range result.Written {
				detail("written  %s", f)
			}
		}

		for _, f := range result.Removed {
			detail("removed  %s", f)
		}
		if n := len(result.Removed); n > 0 {
			info("Removed %d stale file(s).", n)
		}
		for _, e := range result.GCErrors {
			errorf("cleanup: %s", e)
		}

		if result.Upload != nil {
			info("Staged %d file(s), %s, for upload in %s", len(result.Upload.Files), humanSize(result.Upload.Bytes), result.Upload.Dir)
		}
		return nil
	},
}

func init() {
	packageCmd.Flags().StringSliceVar(&packageManifests, "manifest", nil, "manifest to package (repeatable; default all)")
	packageCmd.Flags().BoolVar(&packageDryRun, "dry-run", false, "print the bundle plan without writing")
	rootCmd.AddCommand(packageCmd)
}
