package cmd

import (
	"fmt"
	"time"

	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live version of the active platform",
	Long: `Shows the active platform and output folder, the live version with its
manifest entries and their state (ok, drifted, missing), the number of
recorded versions, the staged upload size and the known platforms.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}

		eng := &engine.StatusEngine{Workspace: ws}
		s, err := eng.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("platform:  %s\n", s.Platform)
		fmt.Printf("output:    %s\n", s.OutputDir)
		if s.Version == 0 {
			fmt.Println("version:   (nothing published)")
		} else {
			fmt.Printf("version:   %d (%s)\n", s.Version, time.Unix(s.Timestamp, 0).UTC().Format(time.RFC3339))
		}
		fmt.Printf("history:   %d version(s)\n", s.Versions)
		if s.UploadDir != "" {
			fmt.Printf("upload:    %s (%s)\n", s.UploadDir, humanSize(s.UploadSize))
		}

		if len(s.Entries) > 0 {
			fmt.Printf("\n%-20s %-8s %-10s %s\n", "MANIFEST", "BUNDLES", "SIZE", "STATE")
			for _, e := range s.Entries {
				fmt.Printf("%-20s %-8d %-10s %s\n", e.Manifest, e.Bundles, humanSize(e.Size), e.State)
			}
		}

		if verbose {
			fmt.Println("\nPlatforms:")
			for _, p := range s.Platforms {
				marker := " "
				if p.Active {
					marker = "*"
				}
				custom := ""
				if p.IsCustom {
					custom = " (custom)"
				}
				fmt.Printf(" %s %-15s -> %s%s\n", marker, p.Name, p.Folder, custom)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
