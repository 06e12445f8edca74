package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default dirctx.yaml scaffold. Every setting is shown
// with its default value.
const initTemplate = `# dirctx configuration
version: 1

# Deepest directory level scanned; the project root is level 0.
max_depth: 8

# Directories rebuilt in parallel within one wave. 1 is fully sequential.
concurrency: 1

# Per-directory artifact file name.
artifact_file: .context.yaml

# Ignore files read from the project root, in order. Later files win.
ignore_files: [.gitignore, .contextignore]

# Extra gitignore-style patterns applied after the ignore files.
# ignore:
#   - "testdata/"
#   - "*.pb.go"
#   - "!keep/"

# Extra source extensions and exact file names.
# extensions: [.tf, .hcl]
# filenames: [Justfile]

index:
  enabled: true
  # Built-in tools: generic (CONTEXT_INDEX.md), codex (AGENTS.md),
  # claude-code (CLAUDE.md), copilot (.github/copilot-instructions.md)
  tools: [generic]
  # template: docs/index.tmpl
  # tool_definitions:
  #   - name: my-agent
  #     file: docs/MY_AGENT.md

history:
  enabled: true
  # path: /custom/history.db

# cache:
#   disabled: false
#   dir: /custom/cache
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter dirctx.yaml configuration",
	Long: `Creates a dirctx.yaml file in the project root with every setting documented
at its default value.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if outPath == "" {
			outPath = filepath.Join(rootDir, "dirctx.yaml")
		}
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Add directories agents should skip to .contextignore")
		info("  2. Run 'dirctx status' to see what would be generated")
		info("  3. Run 'dirctx regenerate' to write the artifacts")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
