package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Prints the next ride, its slug and when signup opens.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		start, target := cfg.NextRide(time.Now())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config:       %s\n", path)
		fmt.Fprintf(out, "Ride:         %s (%s)\n", target.Date.Format("Monday 2006-01-02"), target.Slug())
		fmt.Fprintf(out, "Signup opens: %s\n", start.Format("Monday 2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Participants: %d enabled\n", countEnabled(cfg.Participants()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nextCmd)
}
