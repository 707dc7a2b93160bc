package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/planstack/pkg/google"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List calendars visible to the authorized account",
	Long: `Prints the id and name of every calendar the authorized account can see.
Use an id from this list with 'planstack config set calendar <id>'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := google.New(cmd.Context(), "primary", "")
		if err != nil {
			return err
		}
		infos, err := client.Calendars()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSUMMARY")
		for _, info := range infos {
			summary := info.Summary
			if info.Primary {
				summary += " (primary)"
			}
			fmt.Fprintf(w, "%s\t%s\n", info.ID, summary)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}
