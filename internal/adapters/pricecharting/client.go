package pricecharting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alejandrodnm/cardbot/internal/adapters/httpclient"
	"github.com/alejandrodnm/cardbot/internal/domain"
)

const (
	DefaultBaseURL   = "https://www.pricecharting.com"
	defaultUserAgent = "cardbot/1.0"
)

// ErrInvalidKey indica que la API rechazó la clave (401/403).
var ErrInvalidKey = errors.New("invalid catalog API key, check SPORTSCARDPRO_API_KEY")

// Config configura el cliente del catálogo de precios.
type Config struct {
	APIKey  string
	BaseURL string
	HTTP    httpclient.Options
}

// Client busca cartas en el catálogo de PriceCharting / SportsCardsPro.
// Implementa ports.CatalogProvider.
type Client struct {
	http    *httpclient.Client
	apiKey  string
	baseURL string
}

// NewClient crea un Client. Sin BaseURL usa el endpoint público.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = defaultUserAgent
	}
	return &Client{
		http:    httpclient.New(cfg.HTTP),
		apiKey:  cfg.APIKey,
		baseURL: base,
	}
}

// SearchCatalog busca productos por texto libre. La API devuelve como mucho
// 20 productos y no admite paginación; limit se aplica en cliente.
func (c *Client) SearchCatalog(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		slog.Warn("empty catalog query")
		return nil, nil
	}

	v := url.Values{}
	v.Set("t", c.apiKey)
	v.Set("q", query)
	u := c.baseURL + "/api/products?" + v.Encode()

	var resp productsResponse
	if err := c.http.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("pricecharting.SearchCatalog: %w", describe(err))
	}
	if resp.Status != "success" {
		msg := resp.ErrorMessage
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("pricecharting.SearchCatalog: api status %q: %s", resp.Status, msg)
	}

	products := resp.Products
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	entries := mapProducts(products)
	slog.Debug("catalog search", "query", query, "count", len(entries))
	return entries, nil
}

// describe traduce los errores de autenticación a ErrInvalidKey.
func describe(err error) error {
	var unauthorized httpclient.ErrUnauthorized
	var forbidden httpclient.ErrForbidden
	if errors.As(err, &unauthorized) || errors.As(err, &forbidden) {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return err
}
