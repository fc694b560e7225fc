package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// CatalogStore guarda respuestas del catálogo para no repetir llamadas a la API.
type CatalogStore interface {
	// Get devuelve las entradas guardadas para la key, y el momento en que se
	// guardaron, si no son más antiguas que maxAge.
	Get(ctx context.Context, key string, maxAge time.Duration) ([]domain.CatalogEntry, time.Time, bool, error)

	// Put guarda (o reemplaza) las entradas de la key.
	Put(ctx context.Context, key string, entries []domain.CatalogEntry) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
