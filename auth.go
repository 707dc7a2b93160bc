package main

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/planstack/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize planstack against Google Calendar",
	Long: `Runs the OAuth consent flow in your browser and caches the resulting token
in the config directory. Any previously cached token is discarded first, so
this also serves to re-authorize with a different account.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.Wipe(); err != nil {
			return err
		}
		return auth.Authorize(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
