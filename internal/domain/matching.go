package domain

import (
	"strings"
)

// Pesos del score de matching entre un anuncio y una entrada de catálogo.
const (
	matchWeightPlayer   = 0.5
	matchWeightSet      = 0.3
	matchWeightYear     = 0.2
	matchWeightTerm     = 0.05
	matchMaxTermBonus   = 0.2
	matchMaxScore       = 1.0
	matchTermBonusSlots = int(matchMaxTermBonus / matchWeightTerm)
)

// DefaultIndicatorTerms son términos que indican que el título es de una carta.
var DefaultIndicatorTerms = []string{
	"card", "rookie", "rc", "prizm", "chrome", "topps", "panini", "fleer", "psa", "bgs",
}

// DefaultExcludedTerms marcan títulos que no son cartas deportivas.
var DefaultExcludedTerms = []string{
	"funko", "pop", "vinyl", "figure",
	"magic the gathering", "mtg", "magic card",
	"pokemon", "yugioh", "yu-gi-oh",
	"video game", "xbox", "playstation", "nintendo", "switch",
	"comic book", "graphic novel", "paperback",
	"jersey", "autograph photo", "signed photo",
	"bobblehead", "plush", "toy",
}

// MatchCandidate empareja un anuncio con una entrada de catálogo.
type MatchCandidate struct {
	Score        float64 // [0, 1]
	Listing      ListingRecord
	CatalogEntry CatalogEntry
}

// MatchVocabulary contiene los vocabularios del matcher.
type MatchVocabulary struct {
	IndicatorTerms []string
	Excluded       []string
}

// DefaultMatchVocabulary devuelve los vocabularios por defecto.
func DefaultMatchVocabulary() MatchVocabulary {
	return MatchVocabulary{
		IndicatorTerms: append([]string(nil), DefaultIndicatorTerms...),
		Excluded:       append([]string(nil), DefaultExcludedTerms...),
	}
}

// IsExcluded devuelve true si el título contiene algún término excluido.
func (v MatchVocabulary) IsExcluded(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range v.Excluded {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// MatchScore puntúa cuánto se parece un título a una entrada de catálogo.
//
//	+0.5 jugador contenido en el título
//	+0.3 algún token del set contenido en el título
//	+0.2 año contenido en el título
//	+0.05 por término indicador distinto, máximo +0.2
//
// El resultado se limita a 1.0.
func (v MatchVocabulary) MatchScore(title string, entry CatalogEntry) float64 {
	t := strings.ToLower(title)
	player := strings.ToLower(strings.TrimSpace(entry.Player))
	set := strings.ToLower(entry.Set)
	year := strings.ToLower(strings.TrimSpace(entry.Year))

	score := 0.0
	if player != "" && strings.Contains(t, player) {
		score += matchWeightPlayer
	}
	for _, tok := range strings.Fields(set) {
		if strings.Contains(t, tok) {
			score += matchWeightSet
			break
		}
	}
	if year != "" && strings.Contains(t, year) {
		score += matchWeightYear
	}

	seen := make(map[string]struct{}, len(v.IndicatorTerms))
	found := 0
	for _, term := range v.IndicatorTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if strings.Contains(t, term) {
			found++
		}
	}
	if found > matchTermBonusSlots {
		found = matchTermBonusSlots
	}
	score += float64(found) * matchWeightTerm

	if score > matchMaxScore {
		score = matchMaxScore
	}
	return score
}

// BestMatch evalúa el anuncio contra todas las entradas y se queda con la de
// mayor score (la primera en caso de empate). Solo acepta el match si el score
// supera minConfidence. Es una decisión greedy por anuncio: varias copias en
// venta pueden apuntar a la misma entrada de catálogo.
func (v MatchVocabulary) BestMatch(listing ListingRecord, entries []CatalogEntry, minConfidence float64) (MatchCandidate, bool) {
	var best MatchCandidate
	found := false
	for _, e := range entries {
		s := v.MatchScore(listing.Title, e)
		if !found || s > best.Score {
			best = MatchCandidate{Score: s, Listing: listing, CatalogEntry: e}
			found = true
		}
	}
	if !found || best.Score <= minConfidence {
		return MatchCandidate{}, false
	}
	return best, true
}

// MatchAndDetect reconcilia anuncios de una fuente con el catálogo de otra.
// Los títulos excluidos se descartan antes de puntuar; cada match aceptado se
// evalúa con el valor del catálogo frente al coste total del anuncio.
func MatchAndDetect(listings []ListingRecord, entries []CatalogEntry, p AnalysisParams, v MatchVocabulary) []Opportunity {
	opps := make([]Opportunity, 0)
	if len(entries) == 0 {
		return opps
	}
	for _, l := range listings {
		if v.IsExcluded(l.Title) {
			continue
		}
		m, ok := v.BestMatch(l, entries, p.MinMatchConfidence)
		if !ok {
			continue
		}
		opp, ok := Evaluate(l, l.TotalCost(), CatalogStats(m.CatalogEntry.Value), p.DiscountThreshold)
		if !ok {
			continue
		}
		match := m
		opp.Match = &match
		opps = append(opps, opp)
	}
	return SortByDiscount(opps)
}
