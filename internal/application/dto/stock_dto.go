package dto

import (
	"time"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DraftInput parámetros iniciales de un borrador. Solo aplican los campos del tipo elegido.
type DraftInput struct {
	Type  entity.MovementType `json:"type"`
	Actor string              `json:"actor"`
	Note  string              `json:"note,omitempty"`

	// Receive: proveedor y una o más ubicaciones destino.
	SupplierID             string   `json:"supplier_id,omitempty"`
	DestinationLocationIDs []string `json:"destination_location_ids,omitempty"`

	// Adjust: exactamente una ubicación objetivo.
	TargetLocationID string `json:"target_location_id,omitempty"`

	// Transfer: uno o más orígenes y un destino (ubicación o cliente).
	SourceLocationIDs   []string `json:"source_location_ids,omitempty"`
	DestinationLocation string   `json:"destination_location,omitempty"`
}

// SelectionInput ítem propuesto por la capa de presentación.
// LocationID (Receive) y SourceLocationID (Transfer) son opcionales; por defecto se usa la primera ubicación válida.
type SelectionInput struct {
	ProductID        string                 `json:"product_id"`
	Quantity         int64                  `json:"quantity"`
	LocationID       string                 `json:"location_id,omitempty"`
	SourceLocationID string                 `json:"source_location_id,omitempty"`
	Direction        entity.AdjustDirection `json:"direction,omitempty"`
	ReasonID         string                 `json:"reason_id,omitempty"`
	CustomReason     string                 `json:"custom_reason,omitempty"`
	UnitCost         *decimal.Decimal       `json:"unit_cost,omitempty"` // Receive: costo del proveedor
}

// MovementFilter filtros del historial de movimientos.
type MovementFilter struct {
	LocationID string                `json:"location_id,omitempty"`
	Actor      string                `json:"actor,omitempty"`
	From       *time.Time            `json:"from,omitempty"`
	To         *time.Time            `json:"to,omitempty"`
	Status     entity.MovementStatus `json:"status,omitempty"`
	Type       entity.MovementType   `json:"type,omitempty"`
	Page       PageRequest           `json:"page"`
}
