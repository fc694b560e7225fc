package pricecharting

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/shopspring/decimal"
)

const cardURLPrefix = "https://www.sportscardspro.com/card/"

var (
	yearRe  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	hundred = decimal.NewFromInt(100)
)

// sports se buscan en orden en el nombre del set.
var sports = []string{"Basketball", "Baseball", "Football", "Hockey", "Soccer"}

// mapProducts convierte productos del catálogo a domain.CatalogEntry.
// Value queda sin rellenar: lo decide la TierPolicy del llamador.
func mapProducts(raw []product) []domain.CatalogEntry {
	entries := make([]domain.CatalogEntry, 0, len(raw))
	for _, p := range raw {
		entries = append(entries, mapProduct(p))
	}
	return entries
}

func mapProduct(p product) domain.CatalogEntry {
	e := domain.CatalogEntry{
		ID:     p.ID,
		Title:  p.ProductName + " - " + p.ConsoleName,
		Player: p.ProductName,
		Set:    p.ConsoleName,
		Year:   yearRe.FindString(p.ConsoleName),
		Sport:  sportOf(p.ConsoleName),
		Prices: map[domain.GradeTier]decimal.Decimal{
			domain.TierUngraded: pennies(p.LoosePrice),
			domain.TierGraded7:  pennies(p.CIBPrice),
			domain.TierGraded8:  pennies(p.NewPrice),
			domain.TierGraded9:  pennies(p.GradedPrice),
			domain.TierPSA10:    pennies(p.ManualOnly),
			domain.TierBGS10:    pennies(p.BGS10Price),
		},
	}
	if p.ID != "" {
		e.URL = cardURLPrefix + p.ID
	}
	return e
}

// pennies convierte centavos a dólares. Un valor ausente o ilegible es 0.
func pennies(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d.Div(hundred)
}

func sportOf(set string) string {
	s := strings.ToLower(set)
	for _, sport := range sports {
		if strings.Contains(s, strings.ToLower(sport)) {
			return sport
		}
	}
	return ""
}
