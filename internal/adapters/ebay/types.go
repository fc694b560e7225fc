package ebay

// Tipos raw de la Finding API de eBay en formato JSON.
// La API envuelve cada campo en un array, incluso los escalares.

type findingResponse struct {
	FindItemsAdvancedResponse  []findingBody  `json:"findItemsAdvancedResponse"`
	FindCompletedItemsResponse []findingBody  `json:"findCompletedItemsResponse"`
	ErrorMessage               []errorMessage `json:"errorMessage"`
}

type findingBody struct {
	Ack          []string       `json:"ack"`
	SearchResult []searchResult `json:"searchResult"`
	ErrorMessage []errorMessage `json:"errorMessage"`
}

type searchResult struct {
	Count string        `json:"@count"`
	Item  []findingItem `json:"item"`
}

type findingItem struct {
	ItemID        []string        `json:"itemId"`
	Title         []string        `json:"title"`
	ViewItemURL   []string        `json:"viewItemURL"`
	GalleryURL    []string        `json:"galleryURL"`
	SellingStatus []sellingStatus `json:"sellingStatus"`
	ShippingInfo  []shippingInfo  `json:"shippingInfo"`
	Condition     []itemCondition `json:"condition"`
	SellerInfo    []sellerInfo    `json:"sellerInfo"`
	ListingInfo   []listingInfo   `json:"listingInfo"`
}

type amount struct {
	CurrencyID string `json:"@currencyId"`
	Value      string `json:"__value__"`
}

type sellingStatus struct {
	CurrentPrice          []amount `json:"currentPrice"`
	ConvertedCurrentPrice []amount `json:"convertedCurrentPrice"`
	SellingState          []string `json:"sellingState"`
}

type shippingInfo struct {
	ShippingServiceCost []amount `json:"shippingServiceCost"`
}

type itemCondition struct {
	ConditionDisplayName []string `json:"conditionDisplayName"`
}

type sellerInfo struct {
	SellerUserName []string `json:"sellerUserName"`
}

type listingInfo struct {
	ListingType []string `json:"listingType"`
	EndTime     []string `json:"endTime"`
}

type errorMessage struct {
	Error []apiError `json:"error"`
}

type apiError struct {
	ErrorID []string `json:"errorId"`
	Message []string `json:"message"`
}

// first devuelve el primer elemento o "" si el array está vacío.
func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// body devuelve el cuerpo de la operación que venga relleno.
func (r findingResponse) body() (findingBody, bool) {
	if len(r.FindCompletedItemsResponse) > 0 {
		return r.FindCompletedItemsResponse[0], true
	}
	if len(r.FindItemsAdvancedResponse) > 0 {
		return r.FindItemsAdvancedResponse[0], true
	}
	return findingBody{}, false
}

// items devuelve los items del primer searchResult.
func (b findingBody) items() []findingItem {
	if len(b.SearchResult) == 0 {
		return nil
	}
	return b.SearchResult[0].Item
}

// errorText devuelve el primer mensaje de error, o "" si no hay.
func errorText(msgs []errorMessage) string {
	for _, m := range msgs {
		for _, e := range m.Error {
			if msg := first(e.Message); msg != "" {
				return msg
			}
		}
	}
	return ""
}
