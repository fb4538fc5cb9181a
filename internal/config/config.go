package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AppName    = "Newsdeck"
	AppVersion = "1.0.0"
)

// UserAgent identifies newsdeck on direct feed fetches.
var UserAgent = AppName + "/" + AppVersion + " (+feed reader)"

// Chrome headers for the browser-profile fallback route (must match the
// azuretls Chrome profile version).
const (
	ChromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
	ChromeSecChUa   = `"Google Chrome";v="135", "Chromium";v="135", "Not-A.Brand";v="8"`
)

// Config holds runtime configuration, read by viper from config.yaml or
// NEWSDECK_* environment variables.
type Config struct {
	DataDir           string        `mapstructure:"data_dir"`
	RelayURLs         []string      `mapstructure:"relay_urls"`
	ProxyURL          string        `mapstructure:"proxy_url"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	SyncCheckInterval time.Duration `mapstructure:"sync_check_interval"`
	MaxSyncAge        time.Duration `mapstructure:"max_sync_age"`
	SettingsBlobName  string        `mapstructure:"settings_blob_name"`
	LogLevel          string        `mapstructure:"log_level"`
}

// Load reads configuration from the given directory, falling back to
// environment variables and defaults. A missing config file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("NEWSDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("relay_urls", []string{})
	v.SetDefault("proxy_url", "")
	v.SetDefault("fetch_timeout", 20*time.Second)
	v.SetDefault("sync_check_interval", time.Hour)
	v.SetDefault("max_sync_age", 24*time.Hour)
	v.SetDefault("settings_blob_name", "newsdeck-settings.json")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 20 * time.Second
	}
	if cfg.SyncCheckInterval <= 0 {
		cfg.SyncCheckInterval = time.Hour
	}
	if cfg.MaxSyncAge <= 0 {
		cfg.MaxSyncAge = 24 * time.Hour
	}

	return cfg, nil
}
