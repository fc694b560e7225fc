package ports

import (
	"context"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// SoldProvider obtiene ventas completadas de un marketplace.
type SoldProvider interface {
	// FetchSold devuelve las ventas de los últimos daysBack días para la búsqueda.
	// Sin resultados devuelve un slice vacío, nunca error; el error queda para
	// fallos de transporte o de parseo.
	FetchSold(ctx context.Context, query string, daysBack int, filters domain.SearchFilters) ([]domain.ListingRecord, error)
}
