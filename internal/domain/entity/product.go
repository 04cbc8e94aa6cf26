package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del inventario (multi-ubicación).
// Cost es promedio ponderado actualizado con cada recepción; el stock vive en el libro (LedgerRow).
type Product struct {
	ID        string
	SKU       string
	Name      string
	Category  string
	Image     string
	Price     decimal.Decimal // precio de venta
	Cost      decimal.Decimal // costo promedio ponderado
	CreatedAt time.Time
	UpdatedAt time.Time
}
