package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/alejandrodnm/cardbot/internal/ports"
)

const (
	catalogSeller      = "Sports Card Pro"
	catalogListingType = "Market Data"
	catalogCondition   = "Raw"
)

// QueryHints son campos extra que se añaden al término para afinar la búsqueda.
type QueryHints struct {
	Player string
	Year   string
	Set    string
	Sport  string
}

// BuildQuery une el término con los hints no vacíos.
func BuildQuery(term string, h QueryHints) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{term, h.Player, h.Year, h.Set, h.Sport} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CatalogConfig configura la estrategia de solo catálogo.
type CatalogConfig struct {
	Params domain.AnalysisParams
	Policy domain.TierPolicy
	Hints  QueryHints
	Limit  int
}

// Catalog compara, dentro del propio catálogo, el precio sin gradar de cada
// carta con su valor según la TierPolicy.
type Catalog struct {
	catalog ports.CatalogProvider
	cfg     CatalogConfig
}

// NewCatalog crea la estrategia.
func NewCatalog(catalog ports.CatalogProvider, cfg CatalogConfig) *Catalog {
	return &Catalog{catalog: catalog, cfg: cfg}
}

// Kind implementa Strategy.
func (s *Catalog) Kind() Kind {
	return KindCatalog
}

// Analyze implementa Strategy.
func (s *Catalog) Analyze(ctx context.Context, term string, _ time.Time) ([]domain.Opportunity, error) {
	query := BuildQuery(term, s.cfg.Hints)
	if query == "" {
		return nil, nil
	}

	entries, err := s.catalog.SearchCatalog(ctx, query, s.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("strategy.Catalog: search %q: %w", query, err)
	}
	entries = domain.ApplyTierPolicy(entries, s.cfg.Policy)

	opps := make([]domain.Opportunity, 0)
	for _, e := range entries {
		listing := catalogListing(e)
		opp, ok := domain.Evaluate(listing, listing.Price, domain.CatalogStats(e.Value), s.cfg.Params.DiscountThreshold)
		if !ok {
			continue
		}
		opp.Term = term
		opps = append(opps, opp)
	}
	return domain.SortByDiscount(opps), nil
}

// catalogListing representa una entrada de catálogo como si fuera un anuncio
// a su precio sin gradar.
func catalogListing(e domain.CatalogEntry) domain.ListingRecord {
	return domain.ListingRecord{
		ItemID:      e.ID,
		Title:       e.Title,
		Price:       e.Price(domain.TierUngraded),
		Condition:   catalogCondition,
		URL:         e.URL,
		ImageURL:    e.Image,
		Seller:      catalogSeller,
		ListingType: catalogListingType,
		Source:      domain.SourceCatalogAPI,
	}
}
