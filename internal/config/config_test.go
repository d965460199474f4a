package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 20, cfg.Import.MaxCategories)
	assert.Equal(t, 200, cfg.Import.MaxProducts)
	assert.Equal(t, 100, cfg.Import.MaxArticles)
	assert.Equal(t, 8, cfg.Import.FeaturedCount)
	assert.Equal(t, 3, cfg.Fetcher.MaxRetries)
	assert.Equal(t, 25*time.Second, cfg.Fetcher.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Fetcher.Delay)
	assert.Equal(t, 10, cfg.Fetcher.MaxRedirects)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown fetcher", func(c *Config) { c.Fetcher.Type = "carrier-pigeon" }},
		{"zero timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"zero retries", func(c *Config) { c.Fetcher.MaxRetries = 0 }},
		{"negative cap", func(c *Config) { c.Import.MaxProducts = -1 }},
		{"relative base url", func(c *Config) { c.Import.BaseURL = "/shop" }},
		{"ftp base url", func(c *Config) { c.Import.BaseURL = "ftp://okkyno.com" }},
		{"unknown store", func(c *Config) { c.Store.Type = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Store.Type = "postgres" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad api mode", func(c *Config) { c.API.Mode = "prod" }},
		{"zero fallback category", func(c *Config) { c.Import.FallbackCategoryID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "okkyno.yaml")
	yaml := `
import:
  base_url: https://garden.example.com
  max_products: 5
fetcher:
  delay: 0s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("OKKYNO_IMPORT_MAX_ARTICLES", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://garden.example.com", cfg.Import.BaseURL)
	assert.Equal(t, 5, cfg.Import.MaxProducts)
	assert.Equal(t, 7, cfg.Import.MaxArticles)
	assert.Equal(t, time.Duration(0), cfg.Fetcher.Delay)
	assert.Equal(t, 20, cfg.Import.MaxCategories)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
