package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipos de movimiento de stock.
type MovementType string

const (
	MovementTypeReceive  MovementType = "RECEIVE"  // entrada desde proveedor
	MovementTypeAdjust   MovementType = "ADJUST"   // ajuste manual con motivo
	MovementTypeTransfer MovementType = "TRANSFER" // traslado entre ubicaciones
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeReceive, MovementTypeAdjust, MovementTypeTransfer:
		return true
	}
	return false
}

// MovementStatus estado de un registro de movimiento.
type MovementStatus string

const (
	MovementStatusDraft     MovementStatus = "DRAFT"
	MovementStatusCompleted MovementStatus = "COMPLETED"
	MovementStatusCancelled MovementStatus = "CANCELLED"
)

// Step paso de un flujo de movimiento.
type Step string

const (
	StepSelectLocationsAndSupplier Step = "SELECT_LOCATIONS_AND_SUPPLIER"
	StepSelectLocation             Step = "SELECT_LOCATION"
	StepSelectLocations            Step = "SELECT_LOCATIONS"
	StepSelectProducts             Step = "SELECT_PRODUCTS"
	StepSelectItems                Step = "SELECT_ITEMS"
	StepSetQuantities              Step = "SET_QUANTITIES"
	StepSetAdjustments             Step = "SET_ADJUSTMENTS"
	StepReviewAndCommit            Step = "REVIEW_AND_COMMIT"
	StepCommitted                  Step = "COMMITTED"
	StepCancelled                  Step = "CANCELLED"
)

// AdjustDirection sentido de un ajuste.
type AdjustDirection string

const (
	AdjustIncrease AdjustDirection = "INCREASE"
	AdjustDecrease AdjustDirection = "DECREASE"
)

// Sign devuelve +1 o -1 según el sentido.
func (d AdjustDirection) Sign() int64 {
	if d == AdjustDecrease {
		return -1
	}
	return 1
}

// SupplierOpening referencia de proveedor usada para el stock inicial de un producto nuevo.
const SupplierOpening = "OPENING"

// MovementItem línea de un movimiento. Quantity es siempre la magnitud (>= 0).
type MovementItem struct {
	ProductID   string
	ProductName string
	SKU         string
	Category    string
	Image       string

	Quantity         int64
	PreviousQuantity int64
	NewQuantity      int64

	// LocationID fila escrita: destino en Receive, objetivo en Adjust.
	LocationID      string
	LocationVersion int64

	// Solo Adjust.
	Direction    AdjustDirection
	ReasonID     string
	CustomReason string

	// Solo Transfer.
	SourceLocationID       string
	SourceVersion          int64
	SourceQuantity         int64
	DestinationQuantity    int64
	DestinationNewQuantity int64
	DestinationVersion     int64

	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
}

// SignedDelta devuelve el delta con signo del ítem sobre su fila principal.
func (i MovementItem) SignedDelta(t MovementType) int64 {
	switch t {
	case MovementTypeAdjust:
		return i.Direction.Sign() * i.Quantity
	case MovementTypeTransfer:
		return -i.Quantity
	default:
		return i.Quantity
	}
}

// MovementRecord registro de un movimiento (borrador, completado o cancelado).
// Completado y cancelado son terminales e inmutables.
type MovementRecord struct {
	ID     string
	Type   MovementType
	Status MovementStatus
	Step   Step

	SupplierID             string   // Receive
	DestinationLocationIDs []string // Receive (>= 1) y Transfer (exactamente 1)
	TargetLocationID       string   // Adjust
	SourceLocationIDs      []string // Transfer

	Items      []MovementItem
	TotalValue decimal.Decimal
	Note       string
	Actor      string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// IsTerminal indica si el registro ya no admite cambios.
func (r *MovementRecord) IsTerminal() bool {
	return r.Status == MovementStatusCompleted || r.Status == MovementStatusCancelled
}

// LocationIDs devuelve todas las ubicaciones/clientes involucrados, sin repetir.
func (r *MovementRecord) LocationIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(r.TargetLocationID)
	for _, id := range r.SourceLocationIDs {
		add(id)
	}
	for _, id := range r.DestinationLocationIDs {
		add(id)
	}
	for _, it := range r.Items {
		add(it.LocationID)
		add(it.SourceLocationID)
	}
	return out
}

// Clone copia profunda para que los repositorios no compartan slices con el llamador.
func (r MovementRecord) Clone() MovementRecord {
	out := r
	out.DestinationLocationIDs = append([]string(nil), r.DestinationLocationIDs...)
	out.SourceLocationIDs = append([]string(nil), r.SourceLocationIDs...)
	out.Items = append([]MovementItem(nil), r.Items...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		out.CancelledAt = &t
	}
	return out
}

// AdjustmentReason motivo de ajuste del catálogo.
type AdjustmentReason struct {
	ID          string
	Name        string
	Description string
}
