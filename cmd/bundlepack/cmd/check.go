package cmd

import (
	"fmt"

	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that published files match the live version",
	Long: `Hashes every manifest file and compiled bundle referenced by the live
version and compares it against the recorded hash. Raw files are checked for
presence and size. Exit 0 if everything matches; exit non-zero on drift.
Suitable for CI pipelines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}

		eng := &engine.CheckEngine{Workspace: ws}
		result, err := eng.Check(cmd.Context())
		if err != nil {
			if cancelled(err) {
				return nil
			}
			return err
		}

		if result.Version == 0 {
			info("Nothing published yet.")
			return nil
		}
		if result.Clean {
			info("All %d file(s) of version %d match.", result.Checked, result.Version)
			return nil
		}

		for _, d := range result.Drifted {
			info("  drifted   %s", d.Path)
			detail("expected: %s", d.Expected)
			detail("actual:   %s", d.Actual)
		}
		for _, m := range result.Missing {
			info("  missing   %s", m)
		}

		total := len(result.Drifted) + len(result.Missing)
		return fmt.Errorf("check failed: %d file(s) out of sync", total)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
