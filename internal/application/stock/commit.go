package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
)

// Commit aplica el borrador al libro y guarda el registro Completed en una sola unidad de trabajo.
// Solo desde el último paso; vuelve a evaluar todos los predicados antes de calcular los deltas.
// Ante un conflicto de concurrencia el libro no cambia y el registro sigue en Draft (reintentar
// tras RefreshDraft). Si otro motor ya canceló o confirmó el registro devuelve ErrInvalidState.
func (e *MovementEngine) Commit(ctx context.Context, draftID string) (*entity.MovementRecord, error) {
	var out entity.MovementRecord
	var received []entity.MovementItem
	err := e.withDraft(ctx, draftID, func(d *draft, fc *flowContext) error {
		steps := d.flow.steps()
		last := len(steps) - 1
		if d.step != last {
			return fmt.Errorf("%w: solo se confirma desde %s (paso actual %s)", domain.ErrInvalidState, steps[last], steps[d.step])
		}
		if errs := validateUpTo(d.flow, last, fc); len(errs) > 0 {
			return errs
		}

		now := e.opts.now()
		rec := d.record.Clone()
		rec.Items = d.sel.Items()
		rec.TotalValue = totalValue(rec.Items)
		rec.Status = entity.MovementStatusCompleted
		rec.Step = entity.StepCommitted
		rec.UpdatedAt = now
		rec.CompletedAt = &now
		if _, err := e.deps.Committer.CommitMovement(ctx, &rec, d.flow.deltas(fc)); err != nil {
			switch {
			case errors.Is(err, domain.ErrConcurrencyConflict):
				e.log.Warn().Str("record_id", rec.ID).Str("type", string(rec.Type)).Err(err).Msg("conflicto al confirmar movimiento")
				return err
			case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrNotFound):
				// Otro motor lo cerró: la copia en memoria ya no vale.
				e.forget(rec.ID)
				e.log.Warn().Str("record_id", rec.ID).Err(err).Msg("el borrador ya no está abierto")
				return err
			}
			return fmt.Errorf("commit movement: %w", err)
		}
		*d.record = rec
		e.forget(rec.ID)
		if rec.Type == entity.MovementTypeReceive {
			received = rec.Items
		}
		out = rec.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.updateCosts(ctx, received)
	e.log.Info().
		Str("record_id", out.ID).
		Str("type", string(out.Type)).
		Int("items", len(out.Items)).
		Str("total_value", out.TotalValue.String()).
		Msg("movimiento confirmado")
	return &out, nil
}

// updateCosts recalcula el costo promedio ponderado de cada producto recibido sobre su stock total.
// Es dato de catálogo: un fallo se registra pero no deshace el movimiento.
func (e *MovementEngine) updateCosts(ctx context.Context, items []entity.MovementItem) {
	for _, it := range items {
		p, err := e.deps.Products.GetByID(ctx, it.ProductID)
		if err != nil || p == nil {
			e.log.Warn().Str("product_id", it.ProductID).Err(err).Msg("no se pudo leer el producto para actualizar costo")
			continue
		}
		rows, err := e.deps.Ledger.ListByProduct(ctx, it.ProductID)
		if err != nil {
			e.log.Warn().Str("product_id", it.ProductID).Err(err).Msg("no se pudo leer el stock para actualizar costo")
			continue
		}
		var total int64
		for _, r := range rows {
			total += r.Quantity
		}
		previous := total - it.Quantity
		if previous < 0 {
			previous = 0
		}
		cost := inventory.CostCalculator(previous, p.Cost, it.Quantity, it.UnitCost)
		if cost.Equal(p.Cost) {
			continue
		}
		if err := e.deps.Products.UpdateCost(ctx, p.ID, cost); err != nil {
			e.log.Warn().Str("product_id", p.ID).Err(err).Msg("no se pudo actualizar el costo promedio")
		}
	}
}

// CreateProduct da de alta un producto. Con stock inicial registra además una entrada
// completada con proveedor OPENING, de modo que la primera fila del libro nace de un movimiento.
// Si esa entrada falla el producto se retira del catálogo y solo queda el borrador Cancelled.
func (e *MovementEngine) CreateProduct(ctx context.Context, in dto.CreateProductInput) (*entity.Product, *entity.MovementRecord, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, nil, fmt.Errorf("%w: sku y nombre son obligatorios", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() || in.Cost.IsNegative() {
		return nil, nil, fmt.Errorf("%w: precio y costo no pueden ser negativos", domain.ErrInvalidInput)
	}
	if in.InitialQuantity < 0 {
		return nil, nil, domain.ValidationErrors{{
			Code: domain.CodeNegativeQuantity, Field: "initial_quantity",
			Message: "la cantidad inicial no puede ser negativa",
		}}
	}
	if in.InitialQuantity > 0 {
		graph, err := e.loadGraph(ctx)
		if err != nil {
			return nil, nil, err
		}
		n, err := graph.MustExist(in.InitialLocationID)
		if err != nil {
			return nil, nil, err
		}
		if n.IsCustomer() {
			return nil, nil, domain.ValidationErrors{{
				Code: domain.CodeCustomerNotAllowed, Field: "initial_location_id",
				Message: "un cliente no puede tener stock inicial",
			}}
		}
	}
	existing, err := e.deps.Products.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, nil, fmt.Errorf("get product by sku: %w", err)
	}
	if existing != nil {
		return nil, nil, fmt.Errorf("%w: sku %s", domain.ErrDuplicate, in.SKU)
	}

	now := e.opts.now()
	p := &entity.Product{
		ID:        in.ID,
		SKU:       in.SKU,
		Name:      in.Name,
		Category:  in.Category,
		Image:     in.Image,
		Price:     in.Price,
		Cost:      in.Cost,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := e.deps.Products.Create(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("create product: %w", err)
	}
	e.log.Info().Str("product_id", p.ID).Str("sku", p.SKU).Msg("producto creado")
	if in.InitialQuantity == 0 {
		return p, nil, nil
	}

	rec, err := e.receiveOpening(ctx, p, in)
	if err != nil {
		if derr := e.deps.Products.Delete(ctx, p.ID); derr != nil {
			e.log.Error().Str("product_id", p.ID).Err(derr).Msg("no se pudo retirar el producto sin stock inicial")
			return nil, nil, errors.Join(err, fmt.Errorf("delete product: %w", derr))
		}
		e.log.Warn().Str("product_id", p.ID).Err(err).Msg("stock inicial rechazado, producto retirado")
		return nil, nil, err
	}
	return p, rec, nil
}

// receiveOpening recorre el flujo Receive completo para el stock inicial del producto.
func (e *MovementEngine) receiveOpening(ctx context.Context, p *entity.Product, in dto.CreateProductInput) (*entity.MovementRecord, error) {
	d, err := e.CreateDraft(ctx, dto.DraftInput{
		Type:                   entity.MovementTypeReceive,
		Actor:                  in.Actor,
		Note:                   "stock inicial " + p.SKU,
		SupplierID:             entity.SupplierOpening,
		DestinationLocationIDs: []string{in.InitialLocationID},
	})
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*entity.MovementRecord, error) {
		if _, cerr := e.Cancel(ctx, d.ID); cerr != nil {
			e.log.Warn().Str("record_id", d.ID).Err(cerr).Msg("no se pudo cancelar el borrador de stock inicial")
		}
		return nil, err
	}
	if _, err := e.AdvanceStep(ctx, d.ID); err != nil {
		return fail(err)
	}
	if err := e.SetSelection(ctx, d.ID, []dto.SelectionInput{{
		ProductID:  p.ID,
		Quantity:   in.InitialQuantity,
		LocationID: in.InitialLocationID,
	}}); err != nil {
		return fail(err)
	}
	if _, err := e.AdvanceStep(ctx, d.ID); err != nil {
		return fail(err)
	}
	rec, err := e.Commit(ctx, d.ID)
	if err != nil {
		return fail(err)
	}
	return rec, nil
}
