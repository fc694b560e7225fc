package scrape

import (
	"regexp"
	"strings"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/gocolly/colly/v2"
	"github.com/shopspring/decimal"
)

const (
	itemSelector      = "li.s-item"
	titleSelector     = "div.s-item__title"
	priceSelector     = "span.s-item__price"
	linkSelector      = "a.s-item__link"
	imageSelector     = "img.s-item__image-img"
	conditionSelector = "span.SECONDARY_INFO"
	shippingSelector  = "span.s-item__shipping"

	placeholderTitle = "Shop on eBay"
	unknownCondition = "Unknown"
)

var (
	shippingRe = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)
	itemIDRe   = regexp.MustCompile(`/itm/(?:[^/?]+/)?(\d+)`)
)

// parseItem extrae un anuncio de un <li class="s-item">. Devuelve false
// para placeholders, items sin título o sin precio positivo.
func parseItem(e *colly.HTMLElement, listingType string) (domain.ListingRecord, bool) {
	title := e.ChildText(titleSelector)
	if title == "" || strings.Contains(title, placeholderTitle) {
		return domain.ListingRecord{}, false
	}

	price, ok := parsePrice(e.ChildText(priceSelector))
	if !ok || !price.IsPositive() {
		return domain.ListingRecord{}, false
	}

	link := e.ChildAttr(linkSelector, "href")
	condition := e.ChildText(conditionSelector)
	if condition == "" {
		condition = unknownCondition
	}

	return domain.ListingRecord{
		ItemID:      itemID(link),
		Title:       title,
		Price:       price,
		Shipping:    parseShipping(e.ChildText(shippingSelector)),
		Condition:   condition,
		URL:         link,
		ImageURL:    e.ChildAttr(imageSelector, "src"),
		ListingType: listingType,
		Source:      domain.SourceMarketplaceScrape,
	}, true
}

// parsePrice interpreta "$1,234.56" o rangos "$100.00 to $200.00"
// (se toma el extremo inferior).
func parsePrice(text string) (decimal.Decimal, bool) {
	text = strings.NewReplacer("$", "", ",", "").Replace(text)
	if lo, _, found := strings.Cut(text, " to "); found {
		text = lo
	}
	p, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, false
	}
	return p, true
}

// parseShipping devuelve el coste de envío; gratis o ilegible es 0.
func parseShipping(text string) decimal.Decimal {
	if text == "" || strings.Contains(strings.ToLower(text), "free") {
		return decimal.Zero
	}
	m := shippingRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero
	}
	c, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return c
}

func itemID(link string) string {
	if m := itemIDRe.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}
