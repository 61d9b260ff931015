package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok && v != ""
}

func (m mapSource) GetWithDefault(key, defaultValue string) string {
	if v, ok := m.Get(key); ok {
		return v
	}
	return defaultValue
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(mapSource{})
	require.NoError(t, err)

	assert.Equal(t, "quote-service", cfg.AppName)
	assert.Equal(t, 15, cfg.FirstPageItems)
	assert.Equal(t, 30, cfg.SubsequentPageItems)
	assert.Equal(t, "quotes", cfg.BlobContainer)
	assert.Equal(t, "quote-generated", cfg.ServiceBusTopic)
	assert.False(t, cfg.BlobEnabled())
	assert.False(t, cfg.ServiceBusEnabled())
	assert.False(t, cfg.NewRelicEnabled)
	assert.False(t, cfg.JWTConfig().Enabled())

	doc := cfg.DocumentConfig()
	assert.Equal(t, 15, doc.Capacity.FirstPage)
	assert.Equal(t, "Panel Kitchens", doc.CompanyName)

	retry := cfg.RetryConfig()
	assert.Equal(t, 3, retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, retry.InitialDelay)
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := LoadConfig(mapSource{
		"FIRST_PAGE_ITEMS":      "12",
		"SUBSEQUENT_PAGE_ITEMS": "25",
		"COMPANY_NAME":          "Acme",
		"ASSET_LOGO":            "acme.png",
		"NEW_RELIC_LICENSE_KEY": "key",
		"HTTP_RATE_LIMIT":       "2.5",
		"JWT_SECRET":            "0123456789abcdef0123456789abcdef",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.DocumentConfig().Capacity.FirstPage)
	assert.Equal(t, 25, cfg.DocumentConfig().Capacity.SubsequentPage)
	assert.Equal(t, "Acme", cfg.DocumentConfig().CompanyName)
	assert.Equal(t, "acme.png", cfg.AssetFiles().Logo)
	assert.True(t, cfg.NewRelicEnabled)
	assert.Equal(t, 2.5, cfg.HTTPRateLimit)
	assert.Equal(t, 12*time.Hour, cfg.JWTConfig().TokenTTL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]mapSource{
		"zero capacity":   {"FIRST_PAGE_ITEMS": "0"},
		"negative later":  {"SUBSEQUENT_PAGE_ITEMS": "-1"},
		"port":            {"HTTP_PORT": "70000"},
		"short secret":    {"JWT_SECRET": "short"},
		"tier":            {"BLOB_ACCESS_TIER": "Lukewarm"},
		"retry attempts":  {"RETRY_MAX_ATTEMPTS": "0"},
		"catalog cache":   {"CATALOG_CACHE_SIZE": "0"},
		"negative limits": {"HTTP_RATE_LIMIT": "-1"},
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(src)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.yaml")
	content := "http_port: 9090\nCOMPANY_NAME: Panel\ncatalog_path: /data/catalog.csv\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("HTTP_PORT", "")
	t.Setenv("COMPANY_NAME", "")
	t.Setenv("CATALOG_PATH", "")

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "Panel", cfg.CompanyName)
	assert.Equal(t, "/data/catalog.csv", cfg.CatalogPath)

	t.Setenv("HTTP_PORT", "7070")
	cfg, err = LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTPPort)
}

func TestNewFileConfigSource_Errors(t *testing.T) {
	_, err := NewFileConfigSource(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("a = 1"), 0o600))
	_, err = NewFileConfigSource(path)
	assert.Error(t, err)
}
