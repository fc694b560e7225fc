package ebay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/cardbot/internal/adapters/httpclient"
	"github.com/alejandrodnm/cardbot/internal/domain"
)

const (
	ProductionURL = "https://svcs.ebay.com/services/search/FindingService/v1"
	SandboxURL    = "https://svcs.sandbox.ebay.com/services/search/FindingService/v1"

	opFindItemsAdvanced  = "findItemsAdvanced"
	opFindCompletedItems = "findCompletedItems"
	serviceVersion       = "1.0.0"
	maxEntriesPerPage    = 100
)

// conditionIDs traduce las condiciones de SearchFilters a los IDs de eBay.
var conditionIDs = map[string]string{
	"New":           "1000",
	"Used":          "3000",
	"Not Specified": "0",
}

// listingTypes traduce all|auction|fixed al filtro ListingType de eBay.
var listingTypes = map[string]string{
	"auction": "Auction",
	"fixed":   "FixedPrice",
}

// Config configura el cliente de la Finding API.
type Config struct {
	AppID       string
	Environment string // production | sandbox
	BaseURL     string // opcional, sustituye al endpoint del entorno
	HTTP        httpclient.Options
}

// Client consulta ventas completadas y anuncios activos en la Finding API.
// Implementa ports.SoldProvider y ports.ActiveProvider.
type Client struct {
	http       *httpclient.Client
	appID      string
	baseURL    string
	production bool
	now        func() time.Time
}

// NewClient crea un Client. Sin BaseURL se usa el endpoint del entorno.
func NewClient(cfg Config) *Client {
	production := strings.EqualFold(cfg.Environment, "production")
	base := cfg.BaseURL
	if base == "" {
		base = SandboxURL
		if production {
			base = ProductionURL
		}
	}
	return &Client{
		http:       httpclient.New(cfg.HTTP),
		appID:      cfg.AppID,
		baseURL:    base,
		production: production,
		now:        time.Now,
	}
}

// WithClock sustituye el reloj usado para el corte de días de ventas.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// FetchActive devuelve los anuncios activos que coinciden con la query.
func (c *Client) FetchActive(ctx context.Context, query string, filters domain.SearchFilters) ([]domain.ListingRecord, error) {
	items, err := c.find(ctx, opFindItemsAdvanced, query, filters)
	if err != nil {
		return nil, fmt.Errorf("ebay.FetchActive: %w", err)
	}
	records := mapItems(items, false)
	slog.Debug("ebay active listings", "query", query, "count", len(records))
	return records, nil
}

// FetchSold devuelve las ventas completadas de los últimos daysBack días.
// Las ventas sin endTime se conservan; el estimador las trata como
// peso base.
func (c *Client) FetchSold(ctx context.Context, query string, daysBack int, filters domain.SearchFilters) ([]domain.ListingRecord, error) {
	items, err := c.find(ctx, opFindCompletedItems, query, filters)
	if err != nil {
		return nil, fmt.Errorf("ebay.FetchSold: %w", err)
	}
	records := mapItems(items, true)

	if daysBack > 0 {
		cutoff := c.now().UTC().Add(-time.Duration(daysBack) * 24 * time.Hour)
		kept := records[:0]
		for _, r := range records {
			if ts, ok := r.SaleTime(); ok && ts.Before(cutoff) {
				continue
			}
			kept = append(kept, r)
		}
		records = kept
	}
	slog.Debug("ebay sold listings", "query", query, "days", daysBack, "count", len(records))
	return records, nil
}

func (c *Client) find(ctx context.Context, op, query string, filters domain.SearchFilters) ([]findingItem, error) {
	u := c.baseURL + "?" + c.buildParams(op, query, filters).Encode()

	var resp findingResponse
	if err := c.http.GetJSON(ctx, u, &resp); err != nil {
		var server httpclient.ErrServer
		if c.production && errors.As(err, &server) {
			return nil, fmt.Errorf("%s: %w (production keys may still be pending activation)", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if msg := errorText(resp.ErrorMessage); msg != "" {
		return nil, fmt.Errorf("%s: api error: %s", op, msg)
	}
	body, ok := resp.body()
	if !ok {
		return nil, nil
	}
	if msg := errorText(body.ErrorMessage); msg != "" {
		return nil, fmt.Errorf("%s: api error: %s", op, msg)
	}
	if ack := first(body.Ack); ack == "Failure" {
		return nil, fmt.Errorf("%s: api ack %s", op, ack)
	}
	return body.items(), nil
}

// buildParams arma los parámetros de la Finding API. Los itemFilter se
// numeran en orden: SoldItemsOnly, precios, condición y tipo de anuncio.
// Condición y tipo solo se aplican a anuncios activos.
func (c *Client) buildParams(op, query string, f domain.SearchFilters) url.Values {
	entries := f.MaxResults
	if entries <= 0 || entries > maxEntriesPerPage {
		entries = maxEntriesPerPage
	}

	v := url.Values{}
	v.Set("OPERATION-NAME", op)
	v.Set("SERVICE-VERSION", serviceVersion)
	v.Set("SECURITY-APPNAME", c.appID)
	v.Set("RESPONSE-DATA-FORMAT", "JSON")
	v.Set("REST-PAYLOAD", "")
	v.Set("keywords", query)
	v.Set("paginationInput.entriesPerPage", strconv.Itoa(entries))
	if f.CategoryID != "" {
		v.Set("categoryId", f.CategoryID)
	}

	idx := 0
	add := func(name, value string) {
		v.Set(fmt.Sprintf("itemFilter(%d).name", idx), name)
		v.Set(fmt.Sprintf("itemFilter(%d).value", idx), value)
		idx++
	}

	sold := op == opFindCompletedItems
	if sold {
		add("SoldItemsOnly", "true")
	}
	if f.MinPrice != nil {
		add("MinPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		add("MaxPrice", f.MaxPrice.String())
	}
	if !sold {
		if id, ok := conditionIDs[f.Condition]; ok {
			add("Condition", id)
		}
		if lt, ok := listingTypes[strings.ToLower(f.ListingType)]; ok {
			add("ListingType", lt)
		}
	}
	return v
}
