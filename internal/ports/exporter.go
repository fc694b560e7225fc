package ports

import (
	"context"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// Exporter vuelca el resultado del lote a un destino externo (CSV, ...).
type Exporter interface {
	Export(ctx context.Context, result domain.BatchResult) error
}
