// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures all run configuration. It is read once at startup and
// never mutated during a run.
type Config struct {
	AutoSaveInterval int     `mapstructure:"auto_save_interval"`
	RequestDelay     float64 `mapstructure:"request_delay"`
	InputFile        string  `mapstructure:"input_file"`
	URLColumn        string  `mapstructure:"url_column"`
	StartFrom        int     `mapstructure:"start_from"`
	TimeoutSeconds   int     `mapstructure:"timeout"`
	MaxRetries       int     `mapstructure:"max_retries"`
	UserAgent        string  `mapstructure:"user_agent"`
	OutputDir        string  `mapstructure:"output_dir"`
	LogDir           string  `mapstructure:"log_dir"`
	Development      bool    `mapstructure:"development"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Load builds a Config from an optional config file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auto_save_interval", 1000)
	v.SetDefault("request_delay", 1.0)
	v.SetDefault("input_file", "input/urls.xlsx")
	v.SetDefault("url_column", "url")
	v.SetDefault("start_from", 0)
	v.SetDefault("timeout", 30)
	v.SetDefault("max_retries", 3)
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("output_dir", "output")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("development", false)
}

// bindEnv maps the operator-facing environment variables onto config keys.
// The names are part of the external interface and are bound verbatim.
func bindEnv(v *viper.Viper) {
	for key, env := range map[string]string{
		"auto_save_interval": "AUTO_SAVE_INTERVAL",
		"request_delay":      "REQUEST_DELAY",
		"input_file":         "INPUT_FILE",
		"url_column":         "URL_COLUMN",
		"start_from":         "START_FROM",
		"timeout":            "TIMEOUT",
		"max_retries":        "MAX_RETRIES",
		"user_agent":         "USER_AGENT",
		"output_dir":         "OUTPUT_DIR",
		"log_dir":            "LOG_DIR",
	} {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key, env)
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.AutoSaveInterval <= 0 {
		return fmt.Errorf("auto_save_interval must be > 0")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request_delay must be >= 0")
	}
	if c.InputFile == "" {
		return fmt.Errorf("input_file must be set")
	}
	if c.URLColumn == "" {
		return fmt.Errorf("url_column must be set")
	}
	if c.StartFrom < 0 {
		return fmt.Errorf("start_from must be >= 0")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be > 0")
	}
	return nil
}

// Timeout converts the configured timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay converts the configured inter-request delay into a duration.
func (c Config) Delay() time.Duration {
	return time.Duration(c.RequestDelay * float64(time.Second))
}
