package cmd

import (
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/dirctx/internal/watch"
	"github.com/bianoble/dirctx/pkg/dirctx"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate stale artifacts whenever sources change",
	Long: `Watches every scanned directory and, after a quiet period, runs a stale-mode
regenerate. New directories are picked up after each run. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		info("Watching %s (Ctrl-C to stop)", client.Root())
		return client.Watch(ctx, watchDebounce, func(changed []string, s *dirctx.Summary) error {
			detail("changed: %s", strings.Join(changed, ", "))
			for _, id := range s.Updated {
				info("  updated  %s", id)
			}
			for _, f := range s.Failed {
				errorf("%s: %s", f.ID, f.Err)
			}
			if s.IndexErr != nil {
				errorf("index: %s", s.IndexErr)
			}
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before regenerating")
	rootCmd.AddCommand(watchCmd)
}
