// planstack turns checkbox todos in markdown notes into stacked Google
// Calendar events and keeps the two sides reconciled.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/planstack/pkg/logger"
)

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "planstack",
		Short: "Plan your day by syncing markdown todos into calendar slots",
		Long: `planstack reads checkbox todos carrying duration estimates, for example

  - [ ] Write the quarterly report(1h30m)

and mirrors them into Google Calendar as back-to-back events starting at a
configurable time of day. Completed todos get their event annotated with the
estimated and actual duration; todos removed from the document get their
event deleted again.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(verbose)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
