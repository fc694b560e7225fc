package ebay

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/shopspring/decimal"
)

const defaultCondition = "Not Specified"

// mapItems convierte los items de la Finding API a domain.ListingRecord.
// Los items sin precio válido se descartan con un warning.
func mapItems(raw []findingItem, sold bool) []domain.ListingRecord {
	records := make([]domain.ListingRecord, 0, len(raw))
	for _, it := range raw {
		r, err := mapItem(it, sold)
		if err != nil {
			slog.Warn("skipping ebay item", "item_id", first(it.ItemID), "err", err)
			continue
		}
		records = append(records, r)
	}
	return records
}

// mapItem convierte un item. En ventas completadas el precio es el
// convertedCurrentPrice y el timestamp es el endTime del anuncio.
func mapItem(it findingItem, sold bool) (domain.ListingRecord, error) {
	price, err := itemPrice(it, sold)
	if err != nil {
		return domain.ListingRecord{}, err
	}

	r := domain.ListingRecord{
		ItemID:    first(it.ItemID),
		Title:     first(it.Title),
		Price:     price,
		Shipping:  shippingCost(it),
		Condition: defaultCondition,
		URL:       first(it.ViewItemURL),
		ImageURL:  first(it.GalleryURL),
		Source:    domain.SourceMarketplaceAPI,
	}
	if len(it.Condition) > 0 {
		if c := first(it.Condition[0].ConditionDisplayName); c != "" {
			r.Condition = c
		}
	}
	if len(it.SellerInfo) > 0 {
		r.Seller = first(it.SellerInfo[0].SellerUserName)
	}
	if len(it.ListingInfo) > 0 {
		li := it.ListingInfo[0]
		r.ListingType = first(li.ListingType)
		if sold {
			r.Timestamp = parseEndTime(first(li.EndTime))
		}
	}
	return r, nil
}

func itemPrice(it findingItem, sold bool) (decimal.Decimal, error) {
	if len(it.SellingStatus) == 0 {
		return decimal.Zero, fmt.Errorf("missing selling status")
	}
	st := it.SellingStatus[0]
	amounts := st.CurrentPrice
	if sold && len(st.ConvertedCurrentPrice) > 0 {
		amounts = st.ConvertedCurrentPrice
	}
	if len(amounts) == 0 || amounts[0].Value == "" {
		return decimal.Zero, fmt.Errorf("missing price")
	}
	p, err := decimal.NewFromString(amounts[0].Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", amounts[0].Value, err)
	}
	return p, nil
}

// shippingCost devuelve el coste de envío publicado, 0 si no viene.
func shippingCost(it findingItem) decimal.Decimal {
	if len(it.ShippingInfo) == 0 || len(it.ShippingInfo[0].ShippingServiceCost) == 0 {
		return decimal.Zero
	}
	c, err := decimal.NewFromString(it.ShippingInfo[0].ShippingServiceCost[0].Value)
	if err != nil || c.IsNegative() {
		return decimal.Zero
	}
	return c
}

// parseEndTime parsea el endTime ISO-8601. Un valor ilegible se trata
// como ausente, no como error.
func parseEndTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		slog.Debug("unparseable ebay end time", "value", s)
		return nil
	}
	t = t.UTC()
	return &t
}
