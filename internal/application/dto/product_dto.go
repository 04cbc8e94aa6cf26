package dto

import "github.com/shopspring/decimal"

// CreateProductInput alta de producto con stock inicial opcional (una ubicación y cantidad).
type CreateProductInput struct {
	ID       string          `json:"id,omitempty"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Actor    string          `json:"actor"`

	InitialLocationID string `json:"initial_location_id,omitempty"`
	InitialQuantity   int64  `json:"initial_quantity,omitempty"`
}

// ProductAvailability producto con su cantidad efectiva en la selección de ubicaciones.
type ProductAvailability struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Image             string          `json:"image"`
	Price             decimal.Decimal `json:"price"`
	Cost              decimal.Decimal `json:"cost"`
	EffectiveQuantity int64           `json:"effective_quantity"`
	Applicable        bool            `json:"applicable"`
}

// AvailabilityFilter filtros del listado de productos disponibles.
type AvailabilityFilter struct {
	Search            string `query:"search"`   // nombre o SKU, sin distinguir mayúsculas ni tildes
	Category          string `query:"category"` // coincidencia exacta
	IncludeOutOfStock bool   `query:"include_out_of_stock"`
}
