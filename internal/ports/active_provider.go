package ports

import (
	"context"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// ActiveProvider obtiene anuncios activos (sin timestamp de venta).
type ActiveProvider interface {
	FetchActive(ctx context.Context, query string, filters domain.SearchFilters) ([]domain.ListingRecord, error)
}
