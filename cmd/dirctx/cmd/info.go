package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/dirctx/internal/cache"
	"github.com/bianoble/dirctx/internal/history"
	"github.com/bianoble/dirctx/internal/index"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about dirctx configuration and tools",
	Long: `Displays the dirctx version, the config chain, the effective settings,
cache directory and size, history location and known index tools (built-in
and custom).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		cfg := client.Config()

		fmt.Printf("dirctx %s\n", version)
		fmt.Printf("  project root:  %s\n", client.Root())

		layers := client.Layers()
		if len(layers) > 0 {
			fmt.Println("  config chain:")
			for _, layer := range layers {
				status := "not found"
				switch {
				case layer.Err != nil:
					status = "error: " + layer.Err.Error()
				case layer.Loaded:
					status = "loaded"
				}
				fmt.Printf("    %-10s %s (%s)\n", string(layer.Level)+":", layer.Path, status)
			}
		} else {
			fmt.Println("  config:        defaults")
		}

		fmt.Printf("  artifact file: %s\n", cfg.ArtifactFile)
		fmt.Printf("  max depth:     %d\n", cfg.Depth())
		fmt.Printf("  concurrency:   %d\n", cfg.Concurrency)

		if cfg.Cache.Disabled {
			fmt.Println("  cache:         disabled")
		} else {
			dir := cfg.Cache.Dir
			if dir == "" {
				dir = cache.DefaultDir()
			}
			fmt.Printf("  cache dir:     %s\n", dir)
			if c, err := cache.New(dir); err == nil {
				if size, entries, err := c.Size(); err == nil {
					fmt.Printf("  cache size:    %s (%d entries)\n", humanSize(size), entries)
				}
			}
		}

		if cfg.History.IsEnabled() {
			path := cfg.History.Path
			if path == "" {
				path = history.DefaultPath()
			}
			fmt.Printf("  history:       %s\n", path)
		} else {
			fmt.Println("  history:       disabled")
		}

		tm := index.NewToolMap(cfg.Index.ToolDefinitions)
		enabled := make(map[string]bool, len(cfg.Index.Tools))
		for _, t := range cfg.Index.Tools {
			enabled[t] = cfg.Index.IsEnabled()
		}

		fmt.Println("\nIndex tools:")
		for _, name := range tm.KnownTools() {
			file, _ := tm.Resolve(name)
			var notes string
			if tm.IsCustom(name) {
				notes += " (custom)"
			}
			if enabled[name] {
				notes += " [enabled]"
			}
			fmt.Printf("  %-15s → %s%s\n", name, file, notes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
