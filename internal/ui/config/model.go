// Package config is the interactive setup form for the console.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/adminfeed/internal/model"
)

// Form holds the editable setup values as strings bound to huh inputs.
type Form struct {
	BaseURL           string
	Token             string
	DetectionInterval string
	AnalyticsInterval string
	Port              string
	LogLevel          string
}

// NewForm pre-fills a Form from cfg. The token is never pre-filled.
func NewForm(cfg *model.AppConfig) *Form {
	return &Form{
		BaseURL:           cfg.API.BaseURL,
		DetectionInterval: strconv.Itoa(cfg.Poll.DetectionIntervalSec),
		AnalyticsInterval: strconv.Itoa(cfg.Poll.AnalyticsIntervalSec),
		Port:              strconv.Itoa(cfg.Server.Port),
		LogLevel:          cfg.Log.Level,
	}
}

// Build returns the huh form bound to f.
func (f *Form) Build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("Root of the site's admin REST API").
				Placeholder("https://studio.example.com/api").
				Value(&f.BaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API token").
				Description("Bearer token for the admin API (leave empty to keep the stored one)").
				EchoMode(huh.EchoModePassword).
				Value(&f.Token),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Detection interval (seconds)").
				Description("How often contacts and portfolio items are checked for new entries").
				Value(&f.DetectionInterval).
				Validate(validatePositive("Detection interval")),
			huh.NewInput().
				Title("Analytics interval (seconds)").
				Value(&f.AnalyticsInterval).
				Validate(validatePositive("Analytics interval")),
			huh.NewInput().
				Title("Local API port").
				Value(&f.Port).
				Validate(validatePort),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&f.LogLevel),
		),
	)
}

// Apply copies the form values into cfg. It fails on values the
// validators would have rejected.
func (f *Form) Apply(cfg *model.AppConfig) error {
	if err := validateURL(f.BaseURL); err != nil {
		return err
	}
	detection, err := parsePositive("Detection interval", f.DetectionInterval)
	if err != nil {
		return err
	}
	analytics, err := parsePositive("Analytics interval", f.AnalyticsInterval)
	if err != nil {
		return err
	}
	if err := validatePort(f.Port); err != nil {
		return err
	}
	port, _ := strconv.Atoi(strings.TrimSpace(f.Port))

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	cfg.Poll.DetectionIntervalSec = detection
	cfg.Poll.AnalyticsIntervalSec = analytics
	cfg.Server.Port = port
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	return nil
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com/api)")
	}
	return nil
}

func validatePositive(fieldName string) func(string) error {
	return func(s string) error {
		_, err := parsePositive(fieldName, s)
		return err
	}
}

func parsePositive(fieldName, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", fieldName)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", fieldName)
	}
	return n, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
