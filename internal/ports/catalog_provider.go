package ports

import (
	"context"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// CatalogProvider busca entradas en una fuente de precios de catálogo.
type CatalogProvider interface {
	// SearchCatalog devuelve como máximo limit entradas con precios por tier.
	// Value queda sin rellenar: lo decide la TierPolicy del caller.
	SearchCatalog(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error)
}
