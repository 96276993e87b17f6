package cmd

import (
	"fmt"

	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/bianoble/bundlepack/internal/snapdiff"
	"github.com/spf13/cobra"
)

var (
	diffFrom    int
	diffTo      int
	diffListing bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two recorded versions",
	Long: `Classifies every bundle and published file of two recorded versions as
added, removed, modified or unchanged, aggregates the result per group and
reports the download size of the update.

--to defaults to the current version and --from to the one before it.
With --listing a unified diff of both versions' bundle listings follows.
Bundles marked "indirect" were rebuilt although none of their own assets
changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}

		eng := &engine.HistoryEngine{Workspace: ws, Reporter: newReporter()}
		report, err := eng.Diff(cmd.Context(), diffFrom, diffTo)
		if err != nil {
			if cancelled(err) {
				return nil
			}
			return err
		}

		info("Version %d -> %d", report.OldVersion, report.NewVersion)
		info("  before: %d item(s), %s", report.OldCount, humanSize(report.OldSize))
		info("  after:  %d item(s), %s", report.NewCount, humanSize(report.NewSize))
		info("  update: %s", humanSize(report.UpdateSize))

		if len(report.Groups) > 0 {
			fmt.Printf("\n%-24s %6s %8s %9s %6s %10s\n", "GROUP", "ADDED", "REMOVED", "MODIFIED", "SAME", "CHANGED")
			for _, g := range report.Groups {
				fmt.Printf("%-24s %6d %8d %9d %6d %10s\n", g.Name, g.Added, g.Removed, g.Modified, g.Same, humanSize(g.ChangedSize))
			}
		}

		changed := report.Changed()
		if len(changed) > 0 {
			info("")
		}
		for _, b := range changed {
			note := ""
			if b.Status == snapdiff.Modified && !b.Direct {
				note = " (indirect)"
			}
			info("  %-9s %s/%s%s", b.Status, b.Manifest, b.Name, note)
			for _, a := range b.Assets {
				if a.Status != snapdiff.Same {
					detail("  %-9s %s", a.Status, a.Name)
				}
			}
		}
		for _, f := range report.Files {
			if f.Status != snapdiff.Same {
				detail("%-9s %s", f.Status, f.Name)
			}
		}
		if len(changed) == 0 {
			info("\nNo bundle changes.")
		}

		if diffListing {
			listing, err := eng.Listing(report.OldVersion, report.NewVersion)
			if err != nil {
				return err
			}
			fmt.Print("\n" + listing)
		}
		return nil
	},
}

func init() {
	diffCmd.Flags().IntVar(&diffFrom, "from", 0, "older version (default: the one before --to)")
	diffCmd.Flags().IntVar(&diffTo, "to", 0, "newer version (default: current)")
	diffCmd.Flags().BoolVar(&diffListing, "listing", false, "append a unified diff of the bundle listings")
	rootCmd.AddCommand(diffCmd)
}
