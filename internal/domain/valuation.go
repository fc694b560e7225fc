package domain

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// recencyTimeConstantDays es la constante de tiempo del decaimiento exponencial.
const recencyTimeConstantDays = 30.0

// ValuationBasis indica de dónde sale el valor de mercado.
type ValuationBasis string

const (
	BasisSoldComps ValuationBasis = "sold-comps"
	BasisCatalog   ValuationBasis = "catalog"
)

// MarketValueStats es la estimación de valor de un item. Se recalcula en cada llamada.
type MarketValueStats struct {
	Value         decimal.Decimal // estimación puntual: WeightedValue si existe, si no Mean
	Mean          decimal.Decimal
	Median        decimal.Decimal
	StdDev        decimal.Decimal
	Min           decimal.Decimal
	Max           decimal.Decimal
	SampleSize    int
	WeightedValue decimal.NullDecimal
	Basis         ValuationBasis
}

// CatalogStats construye stats a partir de un único valor de catálogo.
// No hay ventas detrás, por eso SampleSize es 0.
func CatalogStats(value decimal.Decimal) MarketValueStats {
	return MarketValueStats{
		Value:  value,
		Mean:   value,
		Median: value,
		StdDev: decimal.Zero,
		Min:    value,
		Max:    value,
		Basis:  BasisCatalog,
	}
}

// AnalysisParams agrupa los umbrales del motor de oportunidades.
type AnalysisParams struct {
	DiscountThreshold  float64 // % mínimo de descuento para admitir una oportunidad
	MinSoldSamples     int     // ventas con precio > 0 necesarias para estimar
	RecencyWeight      float64 // (0,1], más alto = decae más rápido
	MinMatchConfidence float64 // score mínimo (exclusivo) para aceptar un match
}

// DefaultAnalysisParams devuelve los valores por defecto del motor.
func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		DiscountThreshold:  20.0,
		MinSoldSamples:     5,
		RecencyWeight:      0.7,
		MinMatchConfidence: 0.3,
	}
}

// Validate detecta configuraciones mal formadas. Es el único error que devuelve el core.
func (p AnalysisParams) Validate() error {
	var errs []error
	if p.MinSoldSamples <= 0 {
		errs = append(errs, errors.New("min sold samples must be positive"))
	}
	if p.RecencyWeight <= 0 || p.RecencyWeight > 1 {
		errs = append(errs, errors.New("recency weight must be in (0, 1]"))
	}
	if p.DiscountThreshold < 0 || math.IsNaN(p.DiscountThreshold) {
		errs = append(errs, errors.New("discount threshold cannot be negative"))
	}
	if p.MinMatchConfidence < 0 || p.MinMatchConfidence > 1 {
		errs = append(errs, errors.New("min match confidence must be in [0, 1]"))
	}
	return errors.Join(errs...)
}

// EstimateMarketValue calcula el valor de mercado a partir de ventas históricas.
// Devuelve ok=false cuando hay menos de minSamples ventas con precio > 0:
// no es un error, el caller simplemente salta el item.
//
// El valor final es el promedio ponderado por recencia si algún registro tiene
// timestamp; si no, la media simple.
func EstimateMarketValue(sold []ListingRecord, minSamples int, recencyWeight float64, now time.Time) (MarketValueStats, bool) {
	usable := make([]ListingRecord, 0, len(sold))
	for _, r := range sold {
		if r.Price.IsPositive() {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 || len(usable) < minSamples {
		return MarketValueStats{}, false
	}

	prices := make([]decimal.Decimal, len(usable))
	for i, r := range usable {
		prices[i] = r.Price
	}

	stats := MarketValueStats{
		Mean:       mean(prices),
		Median:     median(prices),
		Min:        decimal.Min(prices[0], prices[1:]...),
		Max:        decimal.Max(prices[0], prices[1:]...),
		SampleSize: len(prices),
		Basis:      BasisSoldComps,
	}
	stats.StdDev = populationStdDev(prices, stats.Mean)

	if w, ok := weightedAverage(usable, recencyWeight, now); ok {
		stats.WeightedValue = decimal.NullDecimal{Decimal: w, Valid: true}
		stats.Value = w
	} else {
		stats.Value = stats.Mean
	}
	return stats, true
}

// RecencyWeight devuelve exp(-weight * ageDays / 30).
// Timestamps en el futuro cuentan como edad 0.
func RecencyWeight(saleTime, now time.Time, weight float64) float64 {
	ageDays := now.UTC().Sub(saleTime.UTC()).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-weight * ageDays / recencyTimeConstantDays)
}

// weightedAverage calcula Σ(p·w)/Σw sobre los registros con timestamp.
func weightedAverage(records []ListingRecord, recencyWeight float64, now time.Time) (decimal.Decimal, bool) {
	sumPW := decimal.Zero
	sumW := decimal.Zero
	dated := 0
	for _, r := range records {
		ts, ok := r.SaleTime()
		if !ok {
			continue
		}
		w := decimal.NewFromFloat(RecencyWeight(ts, now, recencyWeight))
		sumPW = sumPW.Add(r.Price.Mul(w))
		sumW = sumW.Add(w)
		dated++
	}
	if dated == 0 || !sumW.IsPositive() {
		return decimal.Zero, false
	}
	return sumPW.Div(sumW), true
}

func mean(prices []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(prices[0], prices[1:]...).Div(decimal.NewFromInt(int64(len(prices))))
}

func median(prices []decimal.Decimal) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

// populationStdDev usa la definición poblacional (divide por n), igual que np.std.
func populationStdDev(prices []decimal.Decimal, mu decimal.Decimal) decimal.Decimal {
	sumSq := decimal.Zero
	for _, p := range prices {
		d := p.Sub(mu)
		sumSq = sumSq.Add(d.Mul(d))
	}
	variance := sumSq.Div(decimal.NewFromInt(int64(len(prices))))
	if variance.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
}
