package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent regenerate runs for this project",
	Long: `Shows the most recent regenerate runs recorded for the project: when each
ran, its scope and mode, how many directories were updated or failed, and how
long it took. Use --verbose to list the failures of each run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		runs, err := client.History(commandContext(cmd), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			info("No runs recorded.")
			return nil
		}

		fmt.Printf("%-8s  %-16s %-6s %-20s %7s %6s  %s\n", "RUN", "WHEN", "MODE", "SCOPE", "UPDATED", "FAILED", "TOOK")
		for _, r := range runs {
			fmt.Printf("%-8s  %-16s %-6s %-20s %7d %6d  %s\n",
				shortID(r.ID), humanTime(r.Started), r.Mode, r.Scope, r.Updated, r.Failed,
				r.Duration().Round(time.Millisecond))
			for _, f := range r.Failures {
				detail("%s: %s", f.TargetID, f.Message)
			}
			if r.IndexErr != "" {
				detail("index: %s", r.IndexErr)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
