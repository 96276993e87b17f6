package cmd

import (
	"fmt"

	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/spf13/cobra"
)

var purgeKeep int

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove recorded history older than the newest versions",
	Long: `Deletes the version and build records of every version except the newest
--keep ones. The current version is always kept. Without --keep the
settings.history_keep value is used; 0 there keeps everything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}

		eng := &engine.HistoryEngine{Workspace: ws}
		result, err := eng.Purge(purgeKeep)
		if err != nil {
			return err
		}

		if len(result.Removed) == 0 {
			info("Nothing to purge.")
			return nil
		}
		for _, v := range result.Removed {
			detail("removed version %d", v)
		}
		info("Purged %d version(s), kept %d.", len(result.Removed), len(result.Kept))

		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				errorf("%s", e)
			}
			return fmt.Errorf("%d error(s) during purge", len(result.Errors))
		}
		return nil
	},
}

func init() {
	purgeCmd.Flags().IntVar(&purgeKeep, "keep", 0, "number of newest versions to keep")
	rootCmd.AddCommand(purgeCmd)
}
