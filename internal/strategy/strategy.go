package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// Kind identifica el tipo de fuente con el que se analiza un término.
// Se elige una vez al arrancar, nunca según el tipo concreto del cliente.
type Kind string

const (
	KindMarketplace Kind = "marketplace"  // ventas + anuncios del marketplace
	KindCatalog     Kind = "catalog"      // solo precios de catálogo
	KindCrossSource Kind = "cross-source" // catálogo + anuncios scrapeados, unidos por matching
)

// ParseKind interpreta el nombre de un modo de análisis.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMarketplace, KindCatalog, KindCrossSource:
		return k, nil
	default:
		return "", fmt.Errorf("strategy.ParseKind: unknown kind %q", s)
	}
}

// Strategy define el contrato para analizar un término de búsqueda.
// Cada estrategia encapsula una combinación distinta de fuentes.
type Strategy interface {
	// Kind devuelve el identificador único de la estrategia.
	Kind() Kind

	// Analyze busca los datos del término y devuelve las oportunidades admitidas
	// ordenadas por descuento. Un error significa fallo de la fuente, no
	// "sin resultados".
	Analyze(ctx context.Context, term string, now time.Time) ([]domain.Opportunity, error)
}

// Registry mantiene las estrategias disponibles indexadas por tipo.
type Registry map[Kind]Strategy

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Strategy) {
	r[s.Kind()] = s
}

// Get devuelve la estrategia por tipo.
func (r Registry) Get(k Kind) (Strategy, bool) {
	s, ok := r[k]
	return s, ok
}
