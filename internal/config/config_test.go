package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.AutoSaveInterval)
	assert.Equal(t, 1.0, cfg.RequestDelay)
	assert.Equal(t, "input/urls.xlsx", cfg.InputFile)
	assert.Equal(t, "url", cfg.URLColumn)
	assert.Equal(t, 0, cfg.StartFrom)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Contains(t, cfg.UserAgent, "Mozilla/5.0")
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "logs", cfg.LogDir)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("AUTO_SAVE_INTERVAL", "50")
	t.Setenv("REQUEST_DELAY", "0.25")
	t.Setenv("INPUT_FILE", "data/links.csv")
	t.Setenv("URL_COLUMN", "profile_url")
	t.Setenv("START_FROM", "120")
	t.Setenv("TIMEOUT", "10")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("USER_AGENT", "test-agent/1.0")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("LOG_DIR", "/tmp/logs")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.AutoSaveInterval)
	assert.Equal(t, 0.25, cfg.RequestDelay)
	assert.Equal(t, "data/links.csv", cfg.InputFile)
	assert.Equal(t, "profile_url", cfg.URLColumn)
	assert.Equal(t, 120, cfg.StartFrom)
	assert.Equal(t, 10, cfg.TimeoutSeconds)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "test-agent/1.0", cfg.UserAgent)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "/tmp/logs", cfg.LogDir)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "request_delay: 2.5\nurl_column: link\nmax_retries: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.RequestDelay)
	assert.Equal(t, "link", cfg.URLColumn)
	assert.Equal(t, 4, cfg.MaxRetries)
	// Untouched keys keep defaults.
	assert.Equal(t, 1000, cfg.AutoSaveInterval)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		AutoSaveInterval: 1000,
		RequestDelay:     1.0,
		InputFile:        "input/urls.xlsx",
		URLColumn:        "url",
		TimeoutSeconds:   30,
		MaxRetries:       3,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero auto save interval", func(c *Config) { c.AutoSaveInterval = 0 }},
		{"negative request delay", func(c *Config) { c.RequestDelay = -1 }},
		{"empty input file", func(c *Config) { c.InputFile = "" }},
		{"empty url column", func(c *Config) { c.URLColumn = "" }},
		{"negative start from", func(c *Config) { c.StartFrom = -1 }},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()

	cfg := Config{TimeoutSeconds: 30, RequestDelay: 1.5}
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 1500*time.Millisecond, cfg.Delay())
}
