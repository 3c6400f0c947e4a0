// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "goeventhub",
	Short: "GoEventHub is a web application for event registration and check-in",
	Long: `GoEventHub is a web application to publish events, let attendees
register for them and check them in at the door with QR codes.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory containing main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config and initializes the global logger.
func loadConfig(devMode bool) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	if devMode {
		cfg.DevMode = true
	}

	return logger.Init(cfg.Log)
}
