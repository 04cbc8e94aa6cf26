package stock

import (
	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
)

// transferFlow traslado de uno o más orígenes a un único destino.
// Los clientes pueden ser origen o destino; no generan escrituras en el libro.
type transferFlow struct{}

func (transferFlow) movementType() entity.MovementType { return entity.MovementTypeTransfer }

func (transferFlow) steps() []entity.Step {
	return []entity.Step{
		entity.StepSelectLocations,
		entity.StepSelectItems,
		entity.StepSetQuantities,
		entity.StepReviewAndCommit,
	}
}

func (transferFlow) applyParams(rec *entity.MovementRecord, in dto.DraftInput) {
	rec.SourceLocationIDs = uniqueIDs(in.SourceLocationIDs)
	switch {
	case in.DestinationLocation != "":
		rec.DestinationLocationIDs = []string{in.DestinationLocation}
	default:
		rec.DestinationLocationIDs = uniqueIDs(in.DestinationLocationIDs)
	}
}

func (f transferFlow) validateStep(step entity.Step, fc *flowContext) domain.ValidationErrors {
	rec := fc.record
	switch step {
	case entity.StepSelectLocations:
		var errs domain.ValidationErrors
		if len(rec.SourceLocationIDs) == 0 {
			errs = append(errs, domain.ValidationError{
				Code: domain.CodeMissingLocation, Field: "source_location_ids",
				Message: "debe seleccionar al menos un origen",
			})
		}
		if len(rec.DestinationLocationIDs) != 1 {
			errs = append(errs, domain.ValidationError{
				Code: domain.CodeSingleDestination, Field: "destination_location",
				Message: "el traslado requiere exactamente un destino",
			})
		}
		errs = append(errs, validateNodes(fc, "source_location_ids", rec.SourceLocationIDs, true)...)
		errs = append(errs, validateNodes(fc, "destination_location", rec.DestinationLocationIDs, true)...)
		for _, src := range rec.SourceLocationIDs {
			for _, dst := range rec.DestinationLocationIDs {
				if src == dst {
					errs = append(errs, domain.ValidationError{
						Code: domain.CodeOverlappingLocations, Field: "destination_location",
						Message: "el destino no puede ser también origen",
					})
				}
			}
		}
		return errs
	case entity.StepSelectItems:
		return fc.sel.Validate(f.sourceIn(rec))
	case entity.StepSetQuantities, entity.StepReviewAndCommit:
		return fc.sel.Validate(f.sourceIn(rec), inventory.WithinSource())
	}
	return nil
}

func (transferFlow) sourceIn(rec *entity.MovementRecord) inventory.ItemRule {
	return inventory.LocationIn("source_location_id", rec.SourceLocationIDs, func(i entity.MovementItem) string { return i.SourceLocationID })
}

func (f transferFlow) buildItem(fc *flowContext, in dto.SelectionInput, product *entity.Product) (entity.MovementItem, error) {
	item := entity.MovementItem{
		Quantity:         in.Quantity,
		SourceLocationID: in.SourceLocationID,
		UnitCost:         product.Cost,
	}
	fillProduct(&item, product)
	if item.Quantity < 0 {
		return item, domain.ValidationErrors{{
			Code: domain.CodeNegativeQuantity, Field: "quantity", ProductID: product.ID,
			Message: "la cantidad no puede ser negativa",
		}}
	}
	if item.SourceLocationID == "" {
		src, err := f.defaultSource(fc, product.ID)
		if err != nil {
			return item, err
		}
		item.SourceLocationID = src
	}
	return item, f.refreshItem(fc, &item)
}

// defaultSource primer origen con disponibilidad; si ninguno tiene, el primero de la lista.
func (f transferFlow) defaultSource(fc *flowContext, productID string) (string, error) {
	for _, id := range fc.record.SourceLocationIDs {
		qty, _, err := f.sourceQuantity(fc, productID, id)
		if err != nil {
			return "", err
		}
		if qty > 0 {
			return id, nil
		}
	}
	if len(fc.record.SourceLocationIDs) > 0 {
		return fc.record.SourceLocationIDs[0], nil
	}
	return "", nil
}

// sourceQuantity cantidad en la fila propia del origen; un cliente usa la disponibilidad simulada.
func (transferFlow) sourceQuantity(fc *flowContext, productID, locationID string) (int64, int64, error) {
	if fc.isCustomer(locationID) {
		return fc.opts.customerAvailability, 0, nil
	}
	row, err := fc.readRow(productID, locationID)
	if err != nil {
		return 0, 0, err
	}
	return row.Quantity, row.Version, nil
}

// refreshItem relee origen y destino y vuelve a limitar la cantidad a [0, sourceQuantity].
func (f transferFlow) refreshItem(fc *flowContext, item *entity.MovementItem) error {
	if item.SourceLocationID != "" {
		qty, version, err := f.sourceQuantity(fc, item.ProductID, item.SourceLocationID)
		if err != nil {
			return err
		}
		item.SourceQuantity = qty
		item.SourceVersion = version
	}
	item.Quantity = inventory.ClampRange(item.Quantity, 0, item.SourceQuantity)
	item.PreviousQuantity = item.SourceQuantity
	item.NewQuantity = inventory.ClampQuantity(item.SourceQuantity, -item.Quantity)

	item.LocationID = ""
	item.DestinationQuantity, item.DestinationNewQuantity, item.DestinationVersion = 0, 0, 0
	if dests := fc.record.DestinationLocationIDs; len(dests) == 1 {
		item.LocationID = dests[0]
		if !fc.isCustomer(dests[0]) {
			row, err := fc.readRow(item.ProductID, dests[0])
			if err != nil {
				return err
			}
			item.DestinationQuantity = row.Quantity
			item.DestinationVersion = row.Version
			item.DestinationNewQuantity = row.Quantity + item.Quantity
		}
	}
	item.TotalCost = inventory.LineCost(item.Quantity, item.UnitCost)
	return nil
}

func (transferFlow) deltas(fc *flowContext) []entity.LedgerDelta {
	items := fc.sel.Items()
	out := make([]entity.LedgerDelta, 0, 2*len(items))
	for _, it := range items {
		if !fc.isCustomer(it.SourceLocationID) {
			out = append(out, entity.LedgerDelta{
				ProductID:       it.ProductID,
				LocationID:      it.SourceLocationID,
				Amount:          -it.Quantity,
				ExpectedVersion: it.SourceVersion,
			})
		}
		if it.LocationID != "" && !fc.isCustomer(it.LocationID) {
			out = append(out, entity.LedgerDelta{
				ProductID:       it.ProductID,
				LocationID:      it.LocationID,
				Amount:          it.Quantity,
				ExpectedVersion: it.DestinationVersion,
			})
		}
	}
	return out
}
