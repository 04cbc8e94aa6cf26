package stock

import (
	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
)

// receiveFlow entrada de mercancía desde un proveedor (solo suma, sin motivo).
type receiveFlow struct{}

func (receiveFlow) movementType() entity.MovementType { return entity.MovementTypeReceive }

func (receiveFlow) steps() []entity.Step {
	return []entity.Step{
		entity.StepSelectLocationsAndSupplier,
		entity.StepSelectProducts,
		entity.StepSetQuantities,
	}
}

func (receiveFlow) applyParams(rec *entity.MovementRecord, in dto.DraftInput) {
	rec.SupplierID = in.SupplierID
	rec.DestinationLocationIDs = uniqueIDs(in.DestinationLocationIDs)
}

func (f receiveFlow) validateStep(step entity.Step, fc *flowContext) domain.ValidationErrors {
	rec := fc.record
	switch step {
	case entity.StepSelectLocationsAndSupplier:
		var errs domain.ValidationErrors
		if len(rec.DestinationLocationIDs) == 0 {
			errs = append(errs, domain.ValidationError{
				Code: domain.CodeMissingLocation, Field: "destination_location_ids",
				Message: "debe seleccionar al menos una ubicación destino",
			})
		}
		if rec.SupplierID == "" {
			errs = append(errs, domain.ValidationError{
				Code: domain.CodeMissingSupplier, Field: "supplier_id",
				Message: "debe indicar el proveedor",
			})
		}
		return append(errs, validateNodes(fc, "destination_location_ids", rec.DestinationLocationIDs, false)...)
	case entity.StepSelectProducts:
		return fc.sel.Validate(f.itemLocation(rec))
	case entity.StepSetQuantities:
		return fc.sel.Validate(f.itemLocation(rec), inventory.PositiveQuantity())
	}
	return nil
}

func (receiveFlow) itemLocation(rec *entity.MovementRecord) inventory.ItemRule {
	return inventory.LocationIn("location_id", rec.DestinationLocationIDs, func(i entity.MovementItem) string { return i.LocationID })
}

func (f receiveFlow) buildItem(fc *flowContext, in dto.SelectionInput, product *entity.Product) (entity.MovementItem, error) {
	item := entity.MovementItem{Quantity: in.Quantity, LocationID: in.LocationID, UnitCost: product.Cost}
	fillProduct(&item, product)
	if item.LocationID == "" && len(fc.record.DestinationLocationIDs) > 0 {
		item.LocationID = fc.record.DestinationLocationIDs[0]
	}
	if in.UnitCost != nil {
		item.UnitCost = *in.UnitCost
	}
	if item.Quantity < 0 {
		return item, domain.ValidationErrors{{
			Code: domain.CodeNegativeQuantity, Field: "quantity", ProductID: product.ID,
			Message: "la cantidad no puede ser negativa",
		}}
	}
	return item, f.refreshItem(fc, &item)
}

// refreshItem relee la fila destino; un par (producto, ubicación) nuevo parte de 0.
func (receiveFlow) refreshItem(fc *flowContext, item *entity.MovementItem) error {
	if item.LocationID != "" && !fc.isCustomer(item.LocationID) {
		row, err := fc.readRow(item.ProductID, item.LocationID)
		if err != nil {
			return err
		}
		item.PreviousQuantity = row.Quantity
		item.LocationVersion = row.Version
	}
	item.NewQuantity = item.PreviousQuantity + item.Quantity
	item.TotalCost = inventory.LineCost(item.Quantity, item.UnitCost)
	return nil
}

func (receiveFlow) deltas(fc *flowContext) []entity.LedgerDelta {
	items := fc.sel.Items()
	out := make([]entity.LedgerDelta, 0, len(items))
	for _, it := range items {
		out = append(out, entity.LedgerDelta{
			ProductID:       it.ProductID,
			LocationID:      it.LocationID,
			Amount:          it.Quantity,
			ExpectedVersion: it.LocationVersion,
		})
	}
	return out
}
