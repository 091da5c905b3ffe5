package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute builds the root command and runs it with ctx.
//
// Logging goes to stderr at info level, or debug level with --verbose (-v).
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
	}

	return root.ExecuteContext(ctx)
}
