package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sattelclub/internal/config"
)

var initDir string

var initCmd = &cobra.Command{
	Use:   "init [--dir <directory>]",
	Short: "Writes the default config file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := initDir
		if dir == "" {
			dirs := config.SearchDirs()
			if len(dirs) == 0 {
				return fail(ExitError, fmt.Errorf("no config directory available"))
			}
			dir = dirs[0]
		}
		path, err := config.WriteDefault(dir)
		if err != nil {
			return fail(ExitError, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDir, "dir", "", "directory to write the config to (default: working directory)")
	rootCmd.AddCommand(initCmd)
}
