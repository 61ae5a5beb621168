package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/adminfeed/internal/model"
)

var version = "dev"

var (
	configPath string
	envFile    string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:           "adminfeed",
	Short:         "Watch a site's admin API for new contacts and portfolio items",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file with ADMINFEED_* overrides")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")

	rootCmd.AddCommand(serveCmd, watchCmd, setupCmd, notificationsCmd, analyticsCmd, refreshCmd, statusCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads the .env file, then the YAML config with env overrides.
func loadConfig() (*model.AppConfig, error) {
	if err := model.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
