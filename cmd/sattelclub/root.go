package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sattelclub/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "sattelclub",
	Short:         "sattelclub signs riders up for the next group ride.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file (default: search the working and user config directories)")
}

// loadConfig loads the configuration. When no file exists a default one is
// written to the first search directory and an error is returned.
func loadConfig(stderr io.Writer) (*config.Config, string, error) {
	cfg, path, err := config.Load(configPath)
	if err == nil {
		return cfg, path, nil
	}
	if !errors.Is(err, config.ErrNotFound) {
		return nil, "", fail(ExitError, err)
	}

	dirs := config.SearchDirs()
	if len(dirs) == 0 {
		return nil, "", fail(ExitError, err)
	}
	written, werr := config.WriteDefault(dirs[0])
	if werr != nil {
		return nil, "", fail(ExitError, fmt.Errorf("%v; %w", err, werr))
	}
	fmt.Fprintf(stderr, "No config found. A default config was written to %s\n", written)
	fmt.Fprintln(stderr, "Edit it and run again.")
	return nil, "", fail(ExitError, nil)
}
