package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bianoble/dirctx/internal/config"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	rootDir    string
	configPath string
	noInherit  bool
	verbose    bool
	quiet      bool
	noColor    bool
)

// overrides collects DIRCTX_* environment values and the flags bound onto
// config keys.
var overrides = config.NewViper()

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "dirctx",
	Short: "Per-directory context files for coding agents",
	Long: `dirctx keeps a small .context.yaml in every source directory of a project.
Each file lists the directory's source files, their exported signatures and a
summary of every child directory, so an agent can orient itself without reading
the whole tree. Artifacts are rebuilt children-first and only when the files
they describe have changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogger()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dirctx %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func configureLogger() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: noColor, DisableTimestamp: true})
	switch {
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootDir, "root", "C", ".", "project root to operate on")
	pf.StringVar(&configPath, "config", "", "path to config file (default: dirctx.yaml in the project root)")
	pf.BoolVar(&noInherit, "no-inherit", false, "ignore system and user config files")
	pf.BoolVar(&verbose, "verbose", false, "detailed output")
	pf.BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.Int("max-depth", 0, "deepest directory level to scan (root is 0)")
	pf.Bool("no-cache", false, "disable the extraction cache")

	_ = overrides.BindPFlag("max_depth", pf.Lookup("max-depth"))
	_ = overrides.BindPFlag("cache.disabled", pf.Lookup("no-cache"))

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
