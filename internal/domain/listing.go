package domain

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Source identifica de dónde viene un registro. Es la procedencia de una Opportunity,
// no un cambio de forma: todas las oportunidades tienen la misma estructura.
type Source string

const (
	SourceMarketplaceAPI    Source = "marketplace-api"
	SourceMarketplaceScrape Source = "marketplace-scrape"
	SourceCatalogAPI        Source = "catalog-api"
)

// ListingRecord es una instancia observada de un item: un anuncio activo,
// una venta completada o una entrada de catálogo normalizada.
type ListingRecord struct {
	ItemID      string
	Title       string
	Price       decimal.Decimal // misma moneda para todos los registros, el core no convierte
	Shipping    decimal.Decimal // envío/fees conocidos (0 si se desconocen)
	Condition   string
	URL         string
	ImageURL    string
	Seller      string
	ListingType string
	Timestamp   *time.Time // fin de la venta; nil para anuncios activos
	Source      Source
}

// TotalCost devuelve precio + envío, el coste real de comprar el item.
func (l ListingRecord) TotalCost() decimal.Decimal {
	return l.Price.Add(l.Shipping)
}

// SaleTime devuelve el timestamp normalizado a UTC y si es utilizable.
// Un timestamp nil o zero se trata como ausente.
func (l ListingRecord) SaleTime() (time.Time, bool) {
	if l.Timestamp == nil || l.Timestamp.IsZero() {
		return time.Time{}, false
	}
	return l.Timestamp.UTC(), true
}

// SearchFilters son los filtros que se pasan a las fuentes de datos.
// Los punteros nil significan "sin filtro".
type SearchFilters struct {
	CategoryID  string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Condition   string // New | Used | Not Specified
	ListingType string // all | auction | fixed
	MaxResults  int
}

// TruncateTitle recorta un título a maxLen runas con "..." al final.
func TruncateTitle(title string, maxLen int) string {
	if maxLen <= 3 || utf8.RuneCountInString(title) <= maxLen {
		return title
	}
	r := []rune(title)
	return string(r[:maxLen-3]) + "..."
}
