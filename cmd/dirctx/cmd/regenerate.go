package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/dirctx/pkg/dirctx"
)

var (
	regenMode        string
	regenDryRun      bool
	regenLockTimeout time.Duration
)

var regenerateCmd = &cobra.Command{
	Use:     "regenerate [scope]",
	Aliases: []string{"regen"},
	Short:   "Rebuild context artifacts, children before parents",
	Long: `Scans the project and rebuilds the .context.yaml of every directory under
scope (default: the whole project). Directories are processed in waves: a
directory is rebuilt only after all of its children.

Modes:
  stale  rebuild only directories whose files changed or that have no artifact (default)
  all    rebuild every directory
  force  like all, and also overwrite artifacts written by a newer dirctx

A failing directory never stops the run; the command exits non-zero when any
directory failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		summary, err := client.Regenerate(commandContext(cmd), dirctx.RegenerateOptions{
			Scope:       scopeArg(args),
			Mode:        dirctx.Mode(regenMode),
			DryRun:      regenDryRun,
			LockTimeout: regenLockTimeout,
		})
		if err != nil {
			return err
		}

		if summary.Plan != nil {
			info("Dry run — no files written.")
			printPlan(summary.Plan)
			info("")
			info("%d of %d director%s would be rebuilt.", summary.Plan.RebuildCount(), len(summary.Plan.Entries), plural(len(summary.Plan.Entries), "y", "ies"))
			return nil
		}

		for _, t := range summary.Transitions {
			info("  updated  %s (%s)", t.ID, t.From)
		}
		for _, id := range summary.Skipped {
			detail("fresh    %s", id)
		}
		for _, f := range summary.Failed {
			errorf("%s: %s", f.ID, f.Err)
		}
		if summary.IndexErr != nil {
			errorf("index: %s", summary.IndexErr)
		}

		info("")
		info("Regenerate complete: %d updated, %d fresh, %d failed in %s (%d wave%s).",
			len(summary.Updated), len(summary.Skipped), len(summary.Failed),
			summary.Finished.Sub(summary.Started).Round(time.Millisecond), summary.Waves, plural(summary.Waves, "", "s"))

		if len(summary.Failed) > 0 {
			return fmt.Errorf("%d director%s failed", len(summary.Failed), plural(len(summary.Failed), "y", "ies"))
		}
		if summary.IndexErr != nil {
			return fmt.Errorf("writing index: %w", summary.IndexErr)
		}
		return nil
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	f := regenerateCmd.Flags()
	f.StringVar(&regenMode, "mode", "stale", "which directories to rebuild: all, stale or force")
	f.BoolVar(&regenDryRun, "dry-run", false, "show what would be rebuilt without writing")
	f.Int("concurrency", 0, "workers per wave (default from config)")
	f.DurationVar(&regenLockTimeout, "lock-timeout", dirctx.DefaultLockTimeout, "how long to wait for another run to finish")
	_ = overrides.BindPFlag("concurrency", f.Lookup("concurrency"))

	rootCmd.AddCommand(regenerateCmd)
}
