package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config
// keys, e.g. ADMINFEED_API_BASE_URL for api.base_url.
const EnvPrefix = "ADMINFEED"

// APIConfig describes the upstream admin REST API.
type APIConfig struct {
	// BaseURL is the root URL of the site's REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single upstream request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// PollConfig holds the two independent polling cadences.
type PollConfig struct {
	DetectionIntervalSec int `mapstructure:"detection_interval_sec" yaml:"detection_interval_sec"`
	AnalyticsIntervalSec int `mapstructure:"analytics_interval_sec" yaml:"analytics_interval_sec"`
}

// ServerConfig holds settings for the local admin HTTP surface.
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// StorageConfig holds the location of local persisted state.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DatabasePath returns the SQLite file holding all local state.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.Storage.DataDir, "adminfeed.db")
}

// LogPath returns the file the terminal console logs to.
func (c *AppConfig) LogPath() string {
	return filepath.Join(c.Storage.DataDir, "adminfeed.log")
}

// Validate reports configuration values the daemon cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url must be set"))
	}
	if c.Poll.DetectionIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("poll.detection_interval_sec must be positive, got %d", c.Poll.DetectionIntervalSec))
	}
	if c.Poll.AnalyticsIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("poll.analytics_interval_sec must be positive, got %d", c.Poll.AnalyticsIntervalSec))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/adminfeed/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "adminfeed", "config.yaml")
}

// defaultDataDir returns ~/.local/share/adminfeed, or ./data when the
// home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", "adminfeed")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:5000/api",
			TimeoutSec: 30,
		},
		Poll: PollConfig{
			DetectionIntervalSec: 30,
			AnalyticsIntervalSec: 5,
		},
		Server:  ServerConfig{Port: 4100},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("poll.detection_interval_sec", d.Poll.DetectionIntervalSec)
	v.SetDefault("poll.analytics_interval_sec", d.Poll.AnalyticsIntervalSec)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process
// environment without overriding variables that are already set. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with ADMINFEED_ override file values. If
// the file does not exist, defaults plus environment overrides are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("poll", cfg.Poll)
	v.Set("server", cfg.Server)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
