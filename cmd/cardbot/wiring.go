package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cardbot/config"
	"github.com/alejandrodnm/cardbot/internal/adapters/cache"
	"github.com/alejandrodnm/cardbot/internal/adapters/ebay"
	"github.com/alejandrodnm/cardbot/internal/adapters/export"
	"github.com/alejandrodnm/cardbot/internal/adapters/httpclient"
	"github.com/alejandrodnm/cardbot/internal/adapters/notify"
	"github.com/alejandrodnm/cardbot/internal/adapters/pricecharting"
	"github.com/alejandrodnm/cardbot/internal/adapters/scrape"
	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/alejandrodnm/cardbot/internal/ports"
	"github.com/alejandrodnm/cardbot/internal/strategy"
)

// deps agrupa los adapters construidos desde la config.
// Las fuentes sin credenciales quedan a nil.
type deps struct {
	ebay     *ebay.Client
	catalog  ports.CatalogProvider
	scraper  *scrape.Scraper
	store    *cache.SQLiteStore
	notifier ports.Notifier
	exporter ports.Exporter
}

func buildDeps(cfg *config.Config) (*deps, error) {
	d := &deps{notifier: notify.NewConsole(0)}

	if cfg.Export.CSVPath != "" {
		d.exporter = export.NewCSV(cfg.Export.CSVPath)
	}

	if cfg.API.EbayAppID != "" {
		d.ebay = ebay.NewClient(ebay.Config{
			AppID:       cfg.API.EbayAppID,
			Environment: cfg.API.EbayEnvironment,
			BaseURL:     cfg.API.EbayBaseURL,
			HTTP: httpclient.Options{
				Timeout:       cfg.APITimeout(),
				RatePerMinute: cfg.API.EbayRatePerMin,
				MaxRetries:    retries(cfg.API.MaxRetries),
			},
		})
	}

	if cfg.API.CatalogAPIKey != "" {
		var catalog ports.CatalogProvider = pricecharting.NewClient(pricecharting.Config{
			APIKey:  cfg.API.CatalogAPIKey,
			BaseURL: cfg.API.CatalogBaseURL,
			HTTP: httpclient.Options{
				Timeout:       cfg.APITimeout(),
				RatePerMinute: cfg.API.CatalogRatePerMin,
				MaxRetries:    retries(cfg.API.MaxRetries),
			},
		})

		if cfg.Cache.Enabled {
			store, err := cache.NewSQLiteStore(cfg.Cache.DSN, 0)
			if err != nil {
				return nil, fmt.Errorf("open catalog cache %q: %w", cfg.Cache.DSN, err)
			}
			d.store = store
			cached, err := cache.NewCachedCatalog(catalog, store, cfg.Cache.LRUSize, cfg.CacheTTL())
			if err != nil {
				store.Close()
				return nil, err
			}
			catalog = cached
		}
		d.catalog = catalog
	}

	if cfg.Analysis.Mode == config.ModeCrossSource {
		s, err := scrape.New(scrape.Config{
			BaseURL:          cfg.Scraper.BaseURL,
			CategoryID:       cfg.Scraper.CategoryID,
			Delay:            cfg.ScrapeDelay(),
			Timeout:          time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
			UserAgent:        cfg.Scraper.UserAgent,
			ExcludedKeywords: cfg.Scraper.ExcludedKeywords,
		})
		if err != nil {
			d.Close()
			return nil, err
		}
		d.scraper = s
	}

	return d, nil
}

// Close libera la caché persistente si está abierta.
func (d *deps) Close() {
	if d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		slog.Warn("failed to close catalog cache", "err", err)
	}
}

// buildRegistry registra las estrategias cuyas fuentes están disponibles.
func buildRegistry(cfg *config.Config, d *deps) (strategy.Registry, error) {
	policy, err := domain.ParseTierPolicy(cfg.Analysis.TierPolicy)
	if err != nil {
		return nil, err
	}
	params := cfg.Params()
	filters := cfg.SearchFilters()

	reg := strategy.NewRegistry()
	if d.ebay != nil {
		reg.Register(strategy.NewMarketplace(d.ebay, d.ebay, strategy.MarketplaceConfig{
			Params:   params,
			Filters:  filters,
			SoldDays: cfg.Analysis.SoldDays,
		}))
	}
	if d.catalog != nil {
		reg.Register(strategy.NewCatalog(d.catalog, strategy.CatalogConfig{
			Params: params,
			Policy: policy,
			Hints: strategy.QueryHints{
				Player: cfg.Search.Player,
				Year:   cfg.Search.Year,
				Set:    cfg.Search.Set,
				Sport:  cfg.Search.Sport,
			},
			Limit: cfg.API.MaxResults,
		}))
	}
	if d.catalog != nil && d.scraper != nil {
		reg.Register(strategy.NewCrossSource(d.catalog, d.scraper, strategy.CrossSourceConfig{
			Params:       params,
			Policy:       policy,
			Vocabulary:   cfg.MatchVocabulary(),
			Filters:      filters,
			CatalogLimit: cfg.Search.CatalogLimit,
			ListingLimit: cfg.Search.ScrapeLimit,
		}))
	}
	return reg, nil
}

// selectStrategy devuelve la estrategia del modo configurado.
func selectStrategy(cfg *config.Config, d *deps) (strategy.Strategy, error) {
	kind, err := strategy.ParseKind(cfg.Analysis.Mode)
	if err != nil {
		return nil, err
	}
	reg, err := buildRegistry(cfg, d)
	if err != nil {
		return nil, err
	}
	s, ok := reg.Get(kind)
	if !ok {
		return nil, fmt.Errorf("mode %q has no configured data source", kind)
	}
	return s, nil
}

// retries traduce el max_retries de la config (0 = sin reintentos) al
// convenio de httpclient (0 = default, < 0 = sin reintentos).
func retries(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}
