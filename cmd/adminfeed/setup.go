package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/adminfeed/internal/credential"
	"github.com/nhle/adminfeed/internal/model"
	configview "github.com/nhle/adminfeed/internal/ui/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the API endpoint, token and poll intervals",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		form := configview.NewForm(cfg)
		if err := form.Build().Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				printWarning("Setup cancelled, nothing saved")
				return nil
			}
			return fmt.Errorf("running setup form: %w", err)
		}

		return saveSetup(form, cfg)
	},
}

// saveSetup applies the form, writes the config file and stores a new
// API token when one was entered.
func saveSetup(form *configview.Form, cfg *model.AppConfig) error {
	if err := form.Apply(cfg); err != nil {
		return err
	}
	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	printSuccess("Saved config to %s", configPath)

	if token := strings.TrimSpace(form.Token); token != "" {
		if err := credential.Set(credential.KeyAPIToken, token); err != nil {
			return fmt.Errorf("storing API token: %w", err)
		}
		printSuccess("Stored API token in the system keyring")
	}
	return nil
}
