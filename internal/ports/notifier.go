package ports

import (
	"context"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// Notifier presenta el resultado del lote al usuario.
type Notifier interface {
	// Notify muestra las oportunidades por término y el resumen.
	// En la implementación de consola, imprime tablas formateadas.
	Notify(ctx context.Context, result domain.BatchResult) error
}
