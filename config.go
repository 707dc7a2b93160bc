package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/planstack/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change planstack settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Keys:
  calendar   calendar id events are synced into ("primary" or an id from 'planstack calendars')
  start      first slot of the day, as HH:MM
  timezone   IANA zone attached to event times, or "" to let the calendar's zone apply`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "calendar":
			cfg.CalendarID = value
		case "start":
			t, err := time.Parse("15:04", value)
			if err != nil {
				return errors.Errorf("start must be HH:MM, got %q", value)
			}
			cfg.StartHour = t.Hour()
			cfg.StartMinute = t.Minute()
		case "timezone":
			cfg.TimeZone = value
		default:
			return errors.Errorf("unknown setting %q", key)
		}

		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("%s updated\n", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
