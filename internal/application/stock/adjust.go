package stock

import (
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
)

// adjustFlow corrección manual sobre una única ubicación, con motivo obligatorio.
type adjustFlow struct{}

func (adjustFlow) movementType() entity.MovementType { return entity.MovementTypeAdjust }

func (adjustFlow) steps() []entity.Step {
	return []entity.Step{
		entity.StepSelectLocation,
		entity.StepSelectProducts,
		entity.StepSetAdjustments,
	}
}

func (adjustFlow) applyParams(rec *entity.MovementRecord, in dto.DraftInput) {
	rec.TargetLocationID = in.TargetLocationID
}

func (adjustFlow) validateStep(step entity.Step, fc *flowContext) domain.ValidationErrors {
	rec := fc.record
	switch step {
	case entity.StepSelectLocation:
		if rec.TargetLocationID == "" {
			return domain.ValidationErrors{{
				Code: domain.CodeSingleTarget, Field: "target_location_id",
				Message: "el ajuste requiere exactamente una ubicación",
			}}
		}
		return validateNodes(fc, "target_location_id", []string{rec.TargetLocationID}, false)
	case entity.StepSelectProducts:
		return fc.sel.Validate()
	case entity.StepSetAdjustments:
		rules := []inventory.ItemRule{
			inventory.PositiveQuantity(),
			inventory.ReasonRequired(fc.knownReason),
		}
		if fc.opts.adjustPolicy == AdjustPolicyReject {
			rules = append(rules, inventory.NoOverReduction())
		}
		return fc.sel.Validate(rules...)
	}
	return nil
}

func (f adjustFlow) buildItem(fc *flowContext, in dto.SelectionInput, product *entity.Product) (entity.MovementItem, error) {
	item := entity.MovementItem{
		Quantity:     in.Quantity,
		LocationID:   fc.record.TargetLocationID,
		Direction:    in.Direction,
		ReasonID:     in.ReasonID,
		CustomReason: in.CustomReason,
		UnitCost:     product.Cost,
	}
	fillProduct(&item, product)
	if item.Direction == "" {
		item.Direction = entity.AdjustIncrease
	}
	if item.Direction != entity.AdjustIncrease && item.Direction != entity.AdjustDecrease {
		return item, fmt.Errorf("%w: sentido %q (INCREASE|DECREASE)", domain.ErrInvalidInput, item.Direction)
	}
	if item.Quantity < 0 {
		return item, domain.ValidationErrors{{
			Code: domain.CodeNegativeQuantity, Field: "quantity", ProductID: product.ID,
			Message: "la cantidad no puede ser negativa",
		}}
	}
	return item, f.refreshItem(fc, &item)
}

// refreshItem relee la fila objetivo y recalcula newQuantity = max(0, previa + delta).
func (adjustFlow) refreshItem(fc *flowContext, item *entity.MovementItem) error {
	item.LocationID = fc.record.TargetLocationID
	if item.LocationID != "" && !fc.isCustomer(item.LocationID) {
		row, err := fc.readRow(item.ProductID, item.LocationID)
		if err != nil {
			return err
		}
		item.PreviousQuantity = row.Quantity
		item.LocationVersion = row.Version
	}
	item.NewQuantity = inventory.ClampQuantity(item.PreviousQuantity, item.SignedDelta(entity.MovementTypeAdjust))
	item.TotalCost = inventory.LineCost(item.Quantity, item.UnitCost)
	return nil
}

func (adjustFlow) deltas(fc *flowContext) []entity.LedgerDelta {
	items := fc.sel.Items()
	out := make([]entity.LedgerDelta, 0, len(items))
	for _, it := range items {
		out = append(out, entity.LedgerDelta{
			ProductID:       it.ProductID,
			LocationID:      fc.record.TargetLocationID,
			Amount:          it.SignedDelta(entity.MovementTypeAdjust),
			ExpectedVersion: it.LocationVersion,
		})
	}
	return out
}
