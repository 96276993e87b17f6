package cmd

import (
	"fmt"
	"time"

	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}

		eng := &engine.HistoryEngine{Workspace: ws}
		entries, err := eng.History()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			info("No versions recorded.")
			return nil
		}

		fmt.Printf("  %-8s %-20s %-8s %-10s %s\n", "VERSION", "PUBLISHED", "ITEMS", "SIZE", "BUILD")
		for _, h := range entries {
			marker := " "
			if h.Current {
				marker = "*"
			}
			published := "-"
			if h.Timestamp > 0 {
				published = time.Unix(h.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s %-8d %-20s %-8d %-10s %s\n", marker, h.Version, published, h.Bundles, humanSize(h.Size), h.BuildID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
