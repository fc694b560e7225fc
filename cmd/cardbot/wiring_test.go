package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/cardbot/config"
	"github.com/alejandrodnm/cardbot/internal/adapters/cache"
	"github.com/alejandrodnm/cardbot/internal/strategy"
)

func testConfig(mode string) *config.Config {
	cfg := config.Default()
	cfg.Analysis.Mode = mode
	cfg.Cache.DSN = ":memory:"
	return cfg
}

func TestSelectStrategy_ByMode(t *testing.T) {
	tests := []struct {
		mode string
		want strategy.Kind
	}{
		{mode: config.ModeMarketplace, want: strategy.KindMarketplace},
		{mode: config.ModeCatalog, want: strategy.KindCatalog},
		{mode: config.ModeCrossSource, want: strategy.KindCrossSource},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := testConfig(tt.mode)
			cfg.API.EbayAppID = "app"
			cfg.API.CatalogAPIKey = "key"

			d, err := buildDeps(cfg)
			require.NoError(t, err)
			defer d.Close()

			s, err := selectStrategy(cfg, d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Kind())
		})
	}
}

func TestSelectStrategy_MissingSource(t *testing.T) {
	cfg := testConfig(config.ModeCatalog)
	cfg.API.EbayAppID = "app"

	d, err := buildDeps(cfg)
	require.NoError(t, err)
	defer d.Close()

	_, err = selectStrategy(cfg, d)
	require.Error(t, err)
}

func TestBuildDeps_CacheDisabled(t *testing.T) {
	cfg := testConfig(config.ModeCatalog)
	cfg.API.CatalogAPIKey = "key"
	cfg.Cache.Enabled = false

	d, err := buildDeps(cfg)
	require.NoError(t, err)
	defer d.Close()

	assert.Nil(t, d.store)
	assert.NotNil(t, d.catalog)
	assert.Nil(t, d.scraper, "scraper only built for cross-source")
	assert.Nil(t, d.exporter)
}

func TestSplitTerms(t *testing.T) {
	assert.Equal(t, []string{"luka prizm", "jordan fleer"}, splitTerms(" luka prizm, ,jordan fleer "))
	assert.Nil(t, splitTerms(""))
}

func TestRetries(t *testing.T) {
	assert.Equal(t, -1, retries(0), "0 disables retries")
	assert.Equal(t, -1, retries(-2))
	assert.Equal(t, 4, retries(4))
}

func TestCLI_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EBAY_APP_ID", "")
	t.Setenv("SPORTSCARDPRO_API_KEY", "")

	assert.Equal(t, 1, cli([]string{"-config", filepath.Join(dir, "missing.yaml")}))
	assert.Equal(t, 2, cli([]string{"-not-a-flag"}))

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("analysis:\n  min_sold_samples: 0\n"), 0o644))
	assert.Equal(t, 1, cli([]string{"-config", invalid}))

	// lote vacío con la caché SQLite abierta: debe salir limpio y cerrar la caché
	dbPath := filepath.Join(dir, "cache.db")
	valid := filepath.Join(dir, "valid.yaml")
	yaml := "analysis:\n  mode: catalog\napi:\n  catalog_api_key: key\ncache:\n  enabled: true\n  dsn: \"" + dbPath + "\"\nsearch:\n  terms: []\n"
	require.NoError(t, os.WriteFile(valid, []byte(yaml), 0o644))
	assert.Equal(t, 0, cli([]string{"-config", valid}))

	store, err := cache.NewSQLiteStore(dbPath, 0)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
