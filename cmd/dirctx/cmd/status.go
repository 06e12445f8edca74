package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/dirctx/internal/fingerprint"
	"github.com/bianoble/dirctx/pkg/dirctx"
)

var statusMode string

var statusCmd = &cobra.Command{
	Use:   "status [scope]",
	Short: "Show the freshness of every directory's context artifact",
	Long: `Shows each directory under scope with its wave, freshness (fresh, stale,
missing) and when its artifact was last written, and whether a regenerate run
in --mode would rebuild it. Nothing is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		plan, err := client.Plan(commandContext(cmd), scopeArg(args), dirctx.Mode(statusMode))
		if err != nil {
			return err
		}

		printPlan(plan)

		counts := plan.Counts()
		info("")
		info("%d fresh, %d stale, %d missing; %d would be rebuilt in %s mode.",
			counts[fingerprint.Fresh], counts[fingerprint.Stale], counts[fingerprint.Missing],
			plan.RebuildCount(), plan.Mode)
		return nil
	},
}

// printPlan prints one table row per plan entry.
func printPlan(plan *dirctx.Plan) {
	fmt.Printf("%-40s %-5s %-8s %-16s %s\n", "DIRECTORY", "WAVE", "STATE", "UPDATED", "ACTION")
	for _, e := range plan.Entries {
		id := e.ID
		if len(id) > 40 {
			id = "..." + id[len(id)-37:]
		}
		action := "keep"
		switch {
		case e.Err != nil:
			action = "error: " + e.Err.Error()
		case e.Rebuild:
			action = "rebuild"
		}
		state := e.State.String()
		if e.Unsupported {
			state = "newer"
		}
		fmt.Printf("%-40s %-5d %-8s %-16s %s\n", id, e.Wave, state, humanTime(e.LastUpdated), action)
	}
}

func init() {
	statusCmd.Flags().StringVar(&statusMode, "mode", "stale", "mode to evaluate: all, stale or force")
	rootCmd.AddCommand(statusCmd)
}
