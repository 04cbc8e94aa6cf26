package inventory

import (
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// PositiveQuantity exige quantity > 0 (Receive y Adjust).
func PositiveQuantity() ItemRule {
	return func(item entity.MovementItem) *domain.ValidationError {
		if item.Quantity > 0 {
			return nil
		}
		return &domain.ValidationError{
			Code:      domain.CodeZeroQuantity,
			Field:     "quantity",
			ProductID: item.ProductID,
			Message:   "la cantidad debe ser mayor que cero",
		}
	}
}

// ReasonRequired exige un motivo de catálogo conocido o un texto libre (Adjust).
func ReasonRequired(known func(reasonID string) bool) ItemRule {
	return func(item entity.MovementItem) *domain.ValidationError {
		if item.ReasonID == "" && item.CustomReason == "" {
			return &domain.ValidationError{
				Code:      domain.CodeMissingReason,
				Field:     "reason_id",
				ProductID: item.ProductID,
				Message:   "el ajuste requiere un motivo",
			}
		}
		if item.ReasonID != "" && known != nil && !known(item.ReasonID) {
			return &domain.ValidationError{
				Code:      domain.CodeUnknownReason,
				Field:     "reason_id",
				ProductID: item.ProductID,
				Message:   fmt.Sprintf("motivo %q desconocido", item.ReasonID),
			}
		}
		return nil
	}
}

// NoOverReduction rechaza disminuciones mayores que la cantidad previa (política "reject").
func NoOverReduction() ItemRule {
	return func(item entity.MovementItem) *domain.ValidationError {
		if item.Direction != entity.AdjustDecrease || item.Quantity <= item.PreviousQuantity {
			return nil
		}
		return &domain.ValidationError{
			Code:      domain.CodeExceedsStock,
			Field:     "quantity",
			ProductID: item.ProductID,
			Message:   fmt.Sprintf("no se pueden restar %d unidades de %d disponibles", item.Quantity, item.PreviousQuantity),
		}
	}
}

// WithinSource exige quantity en [1, sourceQuantity] (Transfer).
func WithinSource() ItemRule {
	return func(item entity.MovementItem) *domain.ValidationError {
		if item.Quantity < 1 {
			return &domain.ValidationError{
				Code:      domain.CodeZeroQuantity,
				Field:     "quantity",
				ProductID: item.ProductID,
				Message:   "la cantidad a trasladar debe ser al menos 1",
			}
		}
		if item.Quantity > item.SourceQuantity {
			return &domain.ValidationError{
				Code:      domain.CodeExceedsAvailable,
				Field:     "quantity",
				ProductID: item.ProductID,
				Message:   fmt.Sprintf("la cantidad %d supera lo disponible en origen (%d)", item.Quantity, item.SourceQuantity),
			}
		}
		return nil
	}
}

// LocationIn exige que field (vía get) pertenezca al conjunto permitido.
func LocationIn(field string, allowed []string, get func(entity.MovementItem) string) ItemRule {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return func(item entity.MovementItem) *domain.ValidationError {
		if _, ok := set[get(item)]; ok {
			return nil
		}
		return &domain.ValidationError{
			Code:      domain.CodeItemLocation,
			Field:     field,
			ProductID: item.ProductID,
			Message:   fmt.Sprintf("la ubicación %q no pertenece al movimiento", get(item)),
		}
	}
}
