package strategy

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/alejandrodnm/cardbot/internal/ports"
)

// MarketplaceConfig configura la estrategia de ventas comparables.
type MarketplaceConfig struct {
	Params   domain.AnalysisParams
	Filters  domain.SearchFilters
	SoldDays int
}

// Marketplace estima el valor con las ventas completadas y lo compara con
// los anuncios activos del mismo marketplace.
type Marketplace struct {
	sold   ports.SoldProvider
	active ports.ActiveProvider
	cfg    MarketplaceConfig
}

// NewMarketplace crea la estrategia con sus dos fuentes.
func NewMarketplace(sold ports.SoldProvider, active ports.ActiveProvider, cfg MarketplaceConfig) *Marketplace {
	return &Marketplace{sold: sold, active: active, cfg: cfg}
}

// Kind implementa Strategy.
func (s *Marketplace) Kind() Kind {
	return KindMarketplace
}

// Analyze implementa Strategy. Los dos fetch van en paralelo; si cualquiera
// falla, el término entero falla.
func (s *Marketplace) Analyze(ctx context.Context, term string, now time.Time) ([]domain.Opportunity, error) {
	var active, sold []domain.ListingRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.active.FetchActive(gctx, term, s.cfg.Filters)
		if err != nil {
			return fmt.Errorf("fetch active: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sold, err = s.sold.FetchSold(gctx, term, s.cfg.SoldDays, s.cfg.Filters)
		if err != nil {
			return fmt.Errorf("fetch sold: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("strategy.Marketplace: %q: %w", term, err)
	}

	return domain.WithTerm(domain.FindOpportunities(active, sold, s.cfg.Params, now), term), nil
}
