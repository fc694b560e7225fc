package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BatchResult es el resultado de analizar un lote de términos de búsqueda.
// Los términos sin oportunidades no aparecen en ByTerm.
type BatchResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	ByTerm    map[string][]Opportunity
	Failed    []string // términos cuyo fetch falló (tratados como sin oportunidades)
	Summary   Summary
}

// Summary son las estadísticas agregadas del lote.
type Summary struct {
	TotalDeals           int
	AvgDiscount          float64
	TotalPotentialProfit decimal.Decimal
	AvgPotentialProfit   decimal.Decimal
	MaxDiscount          float64
	MaxProfit            decimal.Decimal
}

// All devuelve todas las oportunidades del lote, ordenadas por descuento.
// Los términos se recorren en orden alfabético para que el resultado sea estable.
func (b BatchResult) All() []Opportunity {
	terms := b.Terms()
	var all []Opportunity
	for _, t := range terms {
		all = append(all, b.ByTerm[t]...)
	}
	return SortByDiscount(all)
}

// Terms devuelve los términos con oportunidades en orden alfabético.
func (b BatchResult) Terms() []string {
	terms := make([]string, 0, len(b.ByTerm))
	for t := range b.ByTerm {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Summarize calcula el resumen sobre la unión de oportunidades.
// Con lista vacía devuelve todo a cero en vez de dividir por cero.
func Summarize(opps []Opportunity) Summary {
	if len(opps) == 0 {
		return Summary{
			TotalPotentialProfit: decimal.Zero,
			AvgPotentialProfit:   decimal.Zero,
			MaxProfit:            decimal.Zero,
		}
	}

	s := Summary{
		TotalDeals:           len(opps),
		TotalPotentialProfit: decimal.Zero,
		MaxDiscount:          opps[0].DiscountPct,
		MaxProfit:            opps[0].PotentialProfit,
	}
	var sumDiscount float64
	for _, o := range opps {
		sumDiscount += o.DiscountPct
		s.TotalPotentialProfit = s.TotalPotentialProfit.Add(o.PotentialProfit)
		if o.DiscountPct > s.MaxDiscount {
			s.MaxDiscount = o.DiscountPct
		}
		if o.PotentialProfit.GreaterThan(s.MaxProfit) {
			s.MaxProfit = o.PotentialProfit
		}
	}
	n := decimal.NewFromInt(int64(len(opps)))
	s.AvgDiscount = sumDiscount / float64(len(opps))
	s.AvgPotentialProfit = s.TotalPotentialProfit.Div(n)
	return s
}
