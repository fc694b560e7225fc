package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// GradeTier es un nivel de gradación con precio propio en el catálogo.
type GradeTier string

const (
	TierUngraded GradeTier = "ungraded"
	TierGraded7  GradeTier = "graded-7"
	TierGraded8  GradeTier = "graded-8"
	TierGraded9  GradeTier = "graded-9"
	TierPSA10    GradeTier = "psa-10"
	TierBGS10    GradeTier = "bgs-10"
)

// AllTiers lista los tiers conocidos en orden de gradación creciente.
var AllTiers = []GradeTier{TierUngraded, TierGraded7, TierGraded8, TierGraded9, TierPSA10, TierBGS10}

// CatalogEntry es un registro de una fuente de precios de catálogo.
// No comparte identificador con los anuncios del marketplace.
type CatalogEntry struct {
	ID     string
	Title  string
	Player string // nombre del jugador / producto
	Set    string
	Year   string
	Sport  string
	URL    string
	Image  string
	Prices map[GradeTier]decimal.Decimal
	Value  decimal.Decimal // valor de mercado elegido por la TierPolicy
}

// Price devuelve el precio de un tier, o cero si no existe.
func (c CatalogEntry) Price(t GradeTier) decimal.Decimal {
	if p, ok := c.Prices[t]; ok {
		return p
	}
	return decimal.Zero
}

// TierPolicy decide qué precio del catálogo se usa como valor de mercado.
// El modo por defecto (Tier vacío) toma el máximo entre todos los tiers.
type TierPolicy struct {
	Tier GradeTier
}

// MaxTierPolicy toma el máximo de todos los tiers ("máximo potencial").
var MaxTierPolicy = TierPolicy{}

// ParseTierPolicy interpreta "max" o un tier, con o sin prefijo "tier:"
// ("tier:psa-10" y "psa-10" son equivalentes).
func ParseTierPolicy(s string) (TierPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(s, "tier:"); ok {
		s = strings.TrimSpace(rest)
		if s == "" || s == "max" {
			return TierPolicy{}, errors.New("domain.ParseTierPolicy: tier: prefix without tier name")
		}
	}
	if s == "" || s == "max" {
		return MaxTierPolicy, nil
	}
	for _, t := range AllTiers {
		if string(t) == s {
			return TierPolicy{Tier: t}, nil
		}
	}
	return TierPolicy{}, fmt.Errorf("domain.ParseTierPolicy: unknown tier %q", s)
}

// String devuelve "max" o el nombre del tier.
func (p TierPolicy) String() string {
	if p.Tier == "" {
		return "max"
	}
	return string(p.Tier)
}

// ValueOf calcula el valor de mercado de una entrada según la política.
func (p TierPolicy) ValueOf(c CatalogEntry) decimal.Decimal {
	if p.Tier != "" {
		return c.Price(p.Tier)
	}
	best := decimal.Zero
	for _, t := range AllTiers {
		if v := c.Price(t); v.GreaterThan(best) {
			best = v
		}
	}
	return best
}

// ApplyTierPolicy rellena Value en cada entrada y devuelve el slice modificado.
func ApplyTierPolicy(entries []CatalogEntry, p TierPolicy) []CatalogEntry {
	for i := range entries {
		entries[i].Value = p.ValueOf(entries[i])
	}
	return entries
}
