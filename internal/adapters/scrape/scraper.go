package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/cardbot/internal/adapters/httpclient"
	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/gocolly/colly/v2"
)

const (
	defaultCategory   = "212"
	defaultLimit      = 50
	defaultMaxRetries = 2
	searchPath        = "/sch/i.html"
	sortPriceAsc      = "15"
)

// Config configura el scraper de búsquedas del marketplace.
type Config struct {
	BaseURL          string
	CategoryID       string
	Delay            time.Duration
	Timeout          time.Duration
	UserAgent        string
	ExcludedKeywords []string
	MaxRetries       int // < 0 = sin reintentos
}

// Scraper busca anuncios activos en las páginas de resultados del
// marketplace. Implementa ports.ActiveProvider.
type Scraper struct {
	cfg       Config
	base      *url.URL
	collector *colly.Collector
	Metrics   *Metrics
}

// New crea un Scraper. Todas las búsquedas comparten el mismo backend,
// así que el delay de LimitRule se respeta entre términos.
func New(cfg Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("scrape.New: parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("scrape.New: base url must include a host")
	}
	if cfg.CategoryID == "" {
		cfg.CategoryID = defaultCategory
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	if cfg.Timeout > 0 {
		collector.SetRequestTimeout(cfg.Timeout)
	}
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("scrape.New: configure rate limits: %w", err)
	}

	return &Scraper{
		cfg:       cfg,
		base:      parsed,
		collector: collector,
		Metrics:   NewMetrics(),
	}, nil
}

// FetchActive descarga una página de resultados y devuelve hasta
// filters.MaxResults anuncios ordenados por precio ascendente.
func (s *Scraper) FetchActive(ctx context.Context, query string, filters domain.SearchFilters) ([]domain.ListingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape.FetchActive: %w", err)
	}
	limit := filters.MaxResults
	if limit <= 0 {
		limit = defaultLimit
	}
	listingType := "FixedPrice"
	if strings.EqualFold(filters.ListingType, "auction") {
		listingType = "Auction"
	}

	var (
		mu       sync.Mutex
		records  []domain.ListingRecord
		fetchErr error
		reached  bool
	)

	c := s.collector.Clone()
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Ctx.Put("start", time.Now())
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
		s.Metrics.IncRequest("started")
	})
	c.OnResponse(func(r *colly.Response) {
		mu.Lock()
		reached = true
		fetchErr = nil
		mu.Unlock()
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	})
	c.OnHTML(itemSelector, func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if len(records) >= limit {
			return
		}
		if rec, ok := parseItem(e, listingType); ok {
			records = append(records, rec)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		reached = true
		mu.Unlock()

		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		classified := httpclient.Classify(err, statusCode)
		category := httpclient.ErrorTypeLabel(classified)
		s.Metrics.IncError(category)

		if r != nil && r.Request != nil && s.retry(r, statusCode) && ctx.Err() == nil {
			slog.Warn("retrying search page", "query", query, "category", category)
			if rerr := r.Request.Retry(); rerr == nil {
				return
			}
		}

		mu.Lock()
		fetchErr = classified
		mu.Unlock()
		slog.Error("search page error", "query", query, "category", category, "err", err)
	})

	// con errores HTTP Visit también devuelve error, incluso si un reintento
	// terminó bien; el resultado lo deciden los callbacks
	visitErr := c.Visit(s.searchURL(query, filters))
	c.Wait()
	if visitErr != nil && !reached {
		return nil, fmt.Errorf("scrape.FetchActive: %q: visit: %w", query, visitErr)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape.FetchActive: %w", err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("scrape.FetchActive: %q: %w", query, fetchErr)
	}

	s.Metrics.AddListings(len(records))
	slog.Debug("scraped listings", "query", query, "count", len(records))
	return records, nil
}

// searchURL arma la URL de búsqueda: categoría, exclusiones, filtros de
// precio y orden por precio ascendente.
func (s *Scraper) searchURL(query string, f domain.SearchFilters) string {
	category := f.CategoryID
	if category == "" {
		category = s.cfg.CategoryID
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(s.base.String(), "/"))
	b.WriteString(searchPath)
	b.WriteString("?_nkw=" + url.QueryEscape(query))
	b.WriteString("&_sacat=" + url.QueryEscape(category))
	b.WriteString("&LH_TitleDesc=1&_in_kw=1")

	if len(s.cfg.ExcludedKeywords) > 0 {
		excluded := make([]string, 0, len(s.cfg.ExcludedKeywords))
		for _, kw := range s.cfg.ExcludedKeywords {
			excluded = append(excluded, url.QueryEscape(kw))
		}
		b.WriteString("&_ex_kw=" + strings.Join(excluded, "+"))
	}

	if strings.EqualFold(f.ListingType, "auction") {
		b.WriteString("&LH_Auction=1")
	} else {
		b.WriteString("&LH_BIN=1")
	}
	if f.MinPrice != nil && f.MinPrice.IsPositive() {
		b.WriteString("&_udlo=" + strconv.FormatInt(f.MinPrice.IntPart(), 10))
	}
	if f.MaxPrice != nil && f.MaxPrice.IsPositive() {
		b.WriteString("&_udhi=" + strconv.FormatInt(f.MaxPrice.IntPart(), 10))
	}
	b.WriteString("&_sop=" + sortPriceAsc)
	return b.String()
}

// retry anota el intento en el contexto de la request y dice si se
// puede reintentar.
func (s *Scraper) retry(r *colly.Response, statusCode int) bool {
	if !retryable(statusCode) {
		return false
	}
	attempt, _ := r.Ctx.GetAny("attempt").(int)
	if attempt >= s.cfg.MaxRetries {
		return false
	}
	r.Ctx.Put("attempt", attempt+1)
	s.Metrics.IncRetries()
	return true
}

// retryable reintenta errores de red, 429 y 5xx.
func retryable(statusCode int) bool {
	return statusCode == 0 || statusCode == http.StatusTooManyRequests || statusCode >= 500
}
