package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/alejandrodnm/cardbot/internal/ports"
)

// CrossSourceConfig configura la estrategia de matching entre fuentes.
type CrossSourceConfig struct {
	Params       domain.AnalysisParams
	Policy       domain.TierPolicy
	Vocabulary   domain.MatchVocabulary
	Filters      domain.SearchFilters
	CatalogLimit int
	ListingLimit int
}

// CrossSource toma valores de un catálogo y los compara con anuncios de otra
// fuente que no comparten identificador, emparejándolos por título.
type CrossSource struct {
	catalog  ports.CatalogProvider
	listings ports.ActiveProvider
	cfg      CrossSourceConfig
}

// NewCrossSource crea la estrategia.
func NewCrossSource(catalog ports.CatalogProvider, listings ports.ActiveProvider, cfg CrossSourceConfig) *CrossSource {
	return &CrossSource{catalog: catalog, listings: listings, cfg: cfg}
}

// Kind implementa Strategy.
func (s *CrossSource) Kind() Kind {
	return KindCrossSource
}

// Analyze implementa Strategy. El catálogo se consulta primero: sin entradas
// no se hace el scrape.
func (s *CrossSource) Analyze(ctx context.Context, term string, _ time.Time) ([]domain.Opportunity, error) {
	entries, err := s.catalog.SearchCatalog(ctx, term, s.cfg.CatalogLimit)
	if err != nil {
		return nil, fmt.Errorf("strategy.CrossSource: search catalog %q: %w", term, err)
	}
	if len(entries) == 0 {
		slog.Debug("no catalog entries", "term", term)
		return nil, nil
	}
	entries = domain.ApplyTierPolicy(entries, s.cfg.Policy)

	filters := s.cfg.Filters
	filters.MaxResults = s.cfg.ListingLimit
	listings, err := s.listings.FetchActive(ctx, term, filters)
	if err != nil {
		return nil, fmt.Errorf("strategy.CrossSource: fetch listings %q: %w", term, err)
	}
	if len(listings) == 0 {
		slog.Debug("no listings to match", "term", term)
		return nil, nil
	}

	opps := domain.MatchAndDetect(listings, entries, s.cfg.Params, s.cfg.Vocabulary)
	return domain.WithTerm(opps, term), nil
}
