package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanDryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean [scope]",
	Short: "Remove generated context artifacts",
	Long: `Deletes the .context.yaml of every directory under scope (default: the whole
project). Index files are left in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		res, err := client.Clean(commandContext(cmd), scopeArg(args), cleanDryRun)
		if err != nil {
			return err
		}

		if cleanDryRun {
			info("Dry run — no files removed.")
		}
		for _, id := range res.Removed {
			info("  removed  %s", id)
		}
		for _, f := range res.Failed {
			errorf("%s: %s", f.ID, f.Err)
		}

		info("")
		info("Clean complete: %d removed, %d errors.", len(res.Removed), len(res.Failed))
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d artifact(s) could not be removed", len(res.Failed))
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "show what would be removed without deleting")
	rootCmd.AddCommand(cleanCmd)
}
