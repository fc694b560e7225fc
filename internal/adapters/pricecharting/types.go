package pricecharting

import "encoding/json"

// productsResponse es la respuesta de GET /api/products.
type productsResponse struct {
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error-message"`
	Products     []product `json:"products"`
}

// product es un producto del catálogo. Los precios vienen en centavos
// y pueden faltar o ser null.
type product struct {
	ID          string      `json:"id"`
	ConsoleName string      `json:"console-name"`
	ProductName string      `json:"product-name"`
	Genre       string      `json:"genre"`
	ReleaseDate string      `json:"release-date"`
	LoosePrice  json.Number `json:"loose-price"`
	GradedPrice json.Number `json:"graded-price"`
	ManualOnly  json.Number `json:"manual-only-price"`
	NewPrice    json.Number `json:"new-price"`
	CIBPrice    json.Number `json:"cib-price"`
	BGS10Price  json.Number `json:"bgs-10-price"`
}
