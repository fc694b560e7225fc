package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// Modos de análisis soportados.
const (
	ModeMarketplace = "marketplace"
	ModeCatalog     = "catalog"
	ModeCrossSource = "cross-source"
)

// Config es la configuración completa de cardbot.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Search   SearchConfig   `yaml:"search"`
	Filters  FiltersConfig  `yaml:"filters"`
	API      APIConfig      `yaml:"api"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Cache    CacheConfig    `yaml:"cache"`
	Export   ExportConfig   `yaml:"export"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig controla el motor de oportunidades.
type AnalysisConfig struct {
	Mode               string  `yaml:"mode"` // marketplace | catalog | cross-source
	DiscountThreshold  float64 `yaml:"discount_threshold"`
	MinSoldSamples     int     `yaml:"min_sold_samples"`
	RecencyWeight      float64 `yaml:"recency_weight"`
	MinMatchConfidence float64 `yaml:"min_match_confidence"`
	SoldDays           int     `yaml:"sold_days"`
	TierPolicy         string  `yaml:"tier_policy"` // max | ungraded | graded-9 | tier:psa-10 | ...
	Workers            int     `yaml:"workers"`     // 1 = secuencial; <= 0 usa NumCPU*2
	// Vocabularios del matcher cross-source. Vacío = vocabulario por defecto.
	MatchExcluded   []string `yaml:"match_excluded"`
	MatchIndicators []string `yaml:"match_indicators"`
}

// SearchConfig define qué se busca.
type SearchConfig struct {
	Terms        []string `yaml:"terms"`
	Categories   []string `yaml:"categories"` // solo se usa la primera
	ListingType  string   `yaml:"listing_type"`
	Player       string   `yaml:"player"`
	Year         string   `yaml:"year"`
	Set          string   `yaml:"set"`
	Sport        string   `yaml:"sport"`
	CatalogLimit int      `yaml:"catalog_limit"` // entradas de catálogo en cross-source
	ScrapeLimit  int      `yaml:"scrape_limit"`  // anuncios scrapeados en cross-source
}

// FiltersConfig son los filtros de precio y condición.
type FiltersConfig struct {
	MinPrice  float64 `yaml:"min_price"` // 0 = sin filtro
	MaxPrice  float64 `yaml:"max_price"` // 0 = sin filtro
	Condition string  `yaml:"condition"` // New | Used | Not Specified
}

// APIConfig contiene credenciales y límites de las APIs.
type APIConfig struct {
	EbayAppID         string `yaml:"ebay_app_id"`
	EbayEnvironment   string `yaml:"ebay_environment"` // sandbox | production
	EbayBaseURL       string `yaml:"ebay_base_url"`    // opcional, sobreescribe el del environment
	EbayRatePerMin    int    `yaml:"ebay_rate_per_min"`
	CatalogAPIKey     string `yaml:"catalog_api_key"`
	CatalogBaseURL    string `yaml:"catalog_base_url"`
	CatalogRatePerMin int    `yaml:"catalog_rate_per_min"`
	MaxResults        int    `yaml:"max_results"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxRetries        int    `yaml:"max_retries"`
}

// ScraperConfig controla el scraper HTML del marketplace.
type ScraperConfig struct {
	BaseURL          string   `yaml:"base_url"`
	CategoryID       string   `yaml:"category_id"`
	DelaySeconds     float64  `yaml:"delay_seconds"`
	TimeoutSeconds   int      `yaml:"timeout_seconds"`
	UserAgent        string   `yaml:"user_agent"`
	ExcludedKeywords []string `yaml:"excluded_keywords"`
}

// CacheConfig controla la caché de respuestas del catálogo.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	Minutes int    `yaml:"minutes"`
	LRUSize int    `yaml:"lru_size"`
}

// ExportConfig controla la exportación a CSV.
type ExportConfig struct {
	CSVPath string `yaml:"csv_path"` // vacío = no exportar
}

// MetricsConfig controla el endpoint de Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // vacío = sin servidor de métricas
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse interpreta un YAML ya leído sobre los defaults y aplica env.
// Las keys ausentes conservan su default; un cero explícito se respeta
// y llega tal cual a Validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default devuelve una configuración con todos los defaults aplicados.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// MatchVocabulary devuelve los vocabularios del matcher, con los defaults
// para las listas no configuradas.
func (c *Config) MatchVocabulary() domain.MatchVocabulary {
	v := domain.DefaultMatchVocabulary()
	if len(c.Analysis.MatchExcluded) > 0 {
		v.Excluded = append([]string(nil), c.Analysis.MatchExcluded...)
	}
	if len(c.Analysis.MatchIndicators) > 0 {
		v.IndicatorTerms = append([]string(nil), c.Analysis.MatchIndicators...)
	}
	return v
}

// Params devuelve los umbrales del motor.
func (c *Config) Params() domain.AnalysisParams {
	return domain.AnalysisParams{
		DiscountThreshold:  c.Analysis.DiscountThreshold,
		MinSoldSamples:     c.Analysis.MinSoldSamples,
		RecencyWeight:      c.Analysis.RecencyWeight,
		MinMatchConfidence: c.Analysis.MinMatchConfidence,
	}
}

// SearchFilters construye los filtros que se pasan a las fuentes.
func (c *Config) SearchFilters() domain.SearchFilters {
	f := domain.SearchFilters{
		Condition:   c.Filters.Condition,
		ListingType: c.Search.ListingType,
		MaxResults:  c.API.MaxResults,
	}
	if len(c.Search.Categories) > 0 {
		f.CategoryID = c.Search.Categories[0]
	}
	if c.Filters.MinPrice > 0 {
		v := decimal.NewFromFloat(c.Filters.MinPrice)
		f.MinPrice = &v
	}
	if c.Filters.MaxPrice > 0 {
		v := decimal.NewFromFloat(c.Filters.MaxPrice)
		f.MaxPrice = &v
	}
	return f
}

// APITimeout devuelve el timeout HTTP de las APIs.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// ScrapeDelay devuelve la pausa entre requests del scraper.
func (c *Config) ScrapeDelay() time.Duration {
	return time.Duration(c.Scraper.DelaySeconds * float64(time.Second))
}

// CacheTTL devuelve la validez de la caché del catálogo.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.Minutes) * time.Minute
}

// Validate detecta configuraciones incoherentes antes de arrancar.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := domain.ParseTierPolicy(c.Analysis.TierPolicy); err != nil {
		errs = append(errs, fmt.Errorf("tier policy: %w", err))
	}
	if c.Analysis.SoldDays <= 0 {
		errs = append(errs, errors.New("sold days must be positive"))
	}

	switch c.Analysis.Mode {
	case ModeMarketplace:
		if c.API.EbayAppID == "" {
			errs = append(errs, errors.New("marketplace mode requires EBAY_APP_ID"))
		}
	case ModeCatalog, ModeCrossSource:
		if c.API.CatalogAPIKey == "" {
			errs = append(errs, fmt.Errorf("%s mode requires SPORTSCARDPRO_API_KEY", c.Analysis.Mode))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown analysis mode %q", c.Analysis.Mode))
	}

	if env := c.API.EbayEnvironment; env != "sandbox" && env != "production" {
		errs = append(errs, fmt.Errorf("ebay environment must be sandbox or production, got %q", env))
	}
	if c.Filters.MinPrice < 0 || c.Filters.MaxPrice < 0 {
		errs = append(errs, errors.New("price filters cannot be negative"))
	}
	if c.Filters.MaxPrice > 0 && c.Filters.MinPrice > c.Filters.MaxPrice {
		errs = append(errs, fmt.Errorf("min price (%.2f) cannot exceed max price (%.2f)", c.Filters.MinPrice, c.Filters.MaxPrice))
	}
	if c.Scraper.DelaySeconds < 0 {
		errs = append(errs, errors.New("scraper delay cannot be negative"))
	}
	if u, err := url.Parse(c.Scraper.BaseURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("scraper base URL %q must include a host", c.Scraper.BaseURL))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EBAY_APP_ID"); v != "" {
		cfg.API.EbayAppID = v
	}
	if v := os.Getenv("EBAY_ENVIRONMENT"); v != "" {
		cfg.API.EbayEnvironment = strings.ToLower(v)
	}
	if v := os.Getenv("SPORTSCARDPRO_API_KEY"); v != "" {
		cfg.API.CatalogAPIKey = v
	}
	if v := os.Getenv("CARDBOT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults rellena los campos vacíos. Solo se aplica sobre la config
// base de Default, antes de leer el YAML.
func setDefaults(cfg *Config) {
	def := domain.DefaultAnalysisParams()
	if cfg.Analysis.Mode == "" {
		cfg.Analysis.Mode = ModeMarketplace
	}
	if cfg.Analysis.DiscountThreshold == 0 {
		cfg.Analysis.DiscountThreshold = def.DiscountThreshold
	}
	if cfg.Analysis.MinSoldSamples == 0 {
		cfg.Analysis.MinSoldSamples = def.MinSoldSamples
	}
	if cfg.Analysis.RecencyWeight == 0 {
		cfg.Analysis.RecencyWeight = def.RecencyWeight
	}
	if cfg.Analysis.MinMatchConfidence == 0 {
		cfg.Analysis.MinMatchConfidence = def.MinMatchConfidence
	}
	if cfg.Analysis.SoldDays == 0 {
		cfg.Analysis.SoldDays = 30
	}
	if cfg.Analysis.TierPolicy == "" {
		cfg.Analysis.TierPolicy = "max"
	}
	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = 1
	}
	if cfg.Search.ListingType == "" {
		cfg.Search.ListingType = "all"
	}
	if cfg.Search.CatalogLimit <= 0 {
		cfg.Search.CatalogLimit = 10
	}
	if cfg.Search.ScrapeLimit <= 0 {
		cfg.Search.ScrapeLimit = 30
	}
	if cfg.API.EbayEnvironment == "" {
		cfg.API.EbayEnvironment = "sandbox"
	}
	if cfg.API.EbayRatePerMin <= 0 {
		cfg.API.EbayRatePerMin = 50
	}
	if cfg.API.CatalogBaseURL == "" {
		cfg.API.CatalogBaseURL = "https://www.pricecharting.com"
	}
	if cfg.API.CatalogRatePerMin <= 0 {
		cfg.API.CatalogRatePerMin = 60
	}
	if cfg.API.MaxResults <= 0 {
		cfg.API.MaxResults = 100
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 30
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = 3
	}
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = "https://www.ebay.com"
	}
	if cfg.Scraper.CategoryID == "" {
		cfg.Scraper.CategoryID = "212" // Sports Trading Cards
	}
	if cfg.Scraper.DelaySeconds == 0 {
		cfg.Scraper.DelaySeconds = 2
	}
	if cfg.Scraper.TimeoutSeconds <= 0 {
		cfg.Scraper.TimeoutSeconds = 30
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if len(cfg.Scraper.ExcludedKeywords) == 0 {
		cfg.Scraper.ExcludedKeywords = []string{"funko", "pop", "magic", "pokemon", "yugioh", "comic", "game", "jersey"}
	}
	if cfg.Cache.DSN == "" {
		cfg.Cache.DSN = "cardbot.db"
	}
	if cfg.Cache.Minutes <= 0 {
		cfg.Cache.Minutes = 60
	}
	if cfg.Cache.LRUSize <= 0 {
		cfg.Cache.LRUSize = 256
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
