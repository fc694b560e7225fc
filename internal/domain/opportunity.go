package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Opportunity es un anuncio activo cuyo precio queda suficientemente por debajo
// del valor de mercado estimado. Se construye una vez por análisis y no se muta.
type Opportunity struct {
	Term            string // término de búsqueda que lo produjo
	Listing         ListingRecord
	Stats           MarketValueStats
	ComparisonPrice decimal.Decimal // precio comparado: Price, o TotalCost en modo cross-source
	DiscountPct     float64         // (value - price) / value × 100
	PotentialProfit decimal.Decimal // value - price
	ProfitMarginPct float64         // profit / price × 100
	Match           *MatchCandidate // solo en modo cross-source
}

// MarketValue devuelve el valor de mercado usado para admitir la oportunidad.
func (o Opportunity) MarketValue() decimal.Decimal {
	return o.Stats.Value
}

// MatchScore devuelve el score del match, o 0 si no hubo matching.
func (o Opportunity) MatchScore() float64 {
	if o.Match == nil {
		return 0
	}
	return o.Match.Score
}

// DiscountPct calcula (value - price) / value × 100 en decimal.
// ok=false si value o price no son positivos (el registro se salta).
func DiscountPct(value, price decimal.Decimal) (decimal.Decimal, bool) {
	if !value.IsPositive() || !price.IsPositive() {
		return decimal.Zero, false
	}
	return value.Sub(price).Div(value).Mul(hundred), true
}

// Evaluate decide si un anuncio es una oportunidad frente a stats.
// El predicado de admisión es discount >= threshold; los anuncios que no lo
// cumplen no son errores, simplemente no son oportunidades.
func Evaluate(listing ListingRecord, price decimal.Decimal, stats MarketValueStats, threshold float64) (Opportunity, bool) {
	discount, ok := DiscountPct(stats.Value, price)
	if !ok {
		return Opportunity{}, false
	}
	if discount.LessThan(decimal.NewFromFloat(threshold)) {
		return Opportunity{}, false
	}

	profit := stats.Value.Sub(price)
	return Opportunity{
		Listing:         listing,
		Stats:           stats,
		ComparisonPrice: price,
		DiscountPct:     discount.InexactFloat64(),
		PotentialProfit: profit,
		ProfitMarginPct: profit.Div(price).Mul(hundred).InexactFloat64(),
	}, true
}

// FindOpportunities estima el valor con las ventas y evalúa cada anuncio activo.
// Devuelve las oportunidades ordenadas por descuento descendente; vacío si no
// hay datos suficientes para estimar.
func FindOpportunities(active, sold []ListingRecord, p AnalysisParams, now time.Time) []Opportunity {
	stats, ok := EstimateMarketValue(sold, p.MinSoldSamples, p.RecencyWeight, now)
	if !ok {
		return nil
	}

	opps := make([]Opportunity, 0)
	for _, l := range active {
		if opp, ok := Evaluate(l, l.Price, stats, p.DiscountThreshold); ok {
			opps = append(opps, opp)
		}
	}
	return SortByDiscount(opps)
}

// SortByDiscount ordena por DiscountPct descendente. Los empates mantienen su orden.
func SortByDiscount(opps []Opportunity) []Opportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].DiscountPct > opps[j].DiscountPct
	})
	return opps
}

// WithTerm devuelve copias de las oportunidades etiquetadas con el término.
func WithTerm(opps []Opportunity, term string) []Opportunity {
	out := make([]Opportunity, len(opps))
	for i, o := range opps {
		o.Term = term
		out[i] = o
	}
	return out
}
