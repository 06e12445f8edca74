package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bianoble/dirctx/pkg/dirctx"
)

// newClient builds a library client from the global flags.
func newClient() (*dirctx.Client, error) {
	return dirctx.New(dirctx.Options{
		ProjectRoot: rootDir,
		ConfigPath:  configPath,
		NoInherit:   noInherit,
		Overrides:   overrides,
		Log:         logger,
	})
}

// commandContext returns the command's context, or Background when the
// command is invoked directly rather than through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// scopeArg returns the optional scope positional argument.
func scopeArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func humanSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// humanTime renders t relative to now, or "never" for the zero time.
func humanTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
