package stock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// draft estado vivo de un movimiento en curso. step indexa flow.steps().
type draft struct {
	mu     sync.Mutex
	record *entity.MovementRecord
	step   int
	flow   workflow
	sel    *inventory.SelectionSet
}

// DraftView foto de un borrador para la capa de presentación.
type DraftView struct {
	Record     entity.MovementRecord
	Step       int
	Steps      []entity.Step
	CanAdvance bool
	Errors     domain.ValidationErrors
}

// CreateDraft inicia un movimiento en estado Draft en su primer paso. Los parámetros
// se validan al avanzar, no aquí.
func (e *MovementEngine) CreateDraft(ctx context.Context, in dto.DraftInput) (*entity.MovementRecord, error) {
	flow, err := workflowFor(in.Type)
	if err != nil {
		return nil, err
	}
	now := e.opts.now()
	rec := &entity.MovementRecord{
		ID:        e.opts.newID(),
		Type:      flow.movementType(),
		Status:    entity.MovementStatusDraft,
		Step:      flow.steps()[0],
		Note:      in.Note,
		Actor:     in.Actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	flow.applyParams(rec, in)
	d := &draft{record: rec, flow: flow, sel: inventory.NewSelectionSet()}
	if err := e.persist(ctx, d, rec.Clone(), 0, d.sel); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.drafts[rec.ID] = d
	e.mu.Unlock()

	e.log.Debug().Str("record_id", rec.ID).Str("type", string(rec.Type)).Str("actor", rec.Actor).Msg("borrador creado")
	out := rec.Clone()
	return &out, nil
}

// UpdateDraftParams reemplaza los parámetros del primer paso. Cambiar ubicaciones vacía la selección.
func (e *MovementEngine) UpdateDraftParams(ctx context.Context, draftID string, in dto.DraftInput) (*entity.MovementRecord, error) {
	var out entity.MovementRecord
	err := e.withDraft(ctx, draftID, func(d *draft, _ *flowContext) error {
		if d.step != 0 {
			return fmt.Errorf("%w: los parámetros solo se editan en el primer paso", domain.ErrInvalidState)
		}
		if in.Type != "" && in.Type != d.record.Type {
			return fmt.Errorf("%w: no se puede cambiar el tipo de un borrador", domain.ErrInvalidInput)
		}
		rec := d.record.Clone()
		d.flow.applyParams(&rec, in)
		if in.Note != "" {
			rec.Note = in.Note
		}
		if in.Actor != "" {
			rec.Actor = in.Actor
		}
		if err := e.persist(ctx, d, rec, d.step, inventory.NewSelectionSet()); err != nil {
			return err
		}
		out = d.record.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDraft devuelve el borrador con el resultado de validar los pasos hasta el actual.
func (e *MovementEngine) GetDraft(ctx context.Context, draftID string) (*DraftView, error) {
	var view *DraftView
	err := e.withDraft(ctx, draftID, func(d *draft, fc *flowContext) error {
		view = e.view(d, fc)
		return nil
	})
	return view, err
}

// SetSelection reemplaza la selección completa. Si algún ítem es inválido no se aplica ninguno.
func (e *MovementEngine) SetSelection(ctx context.Context, draftID string, items []dto.SelectionInput) error {
	return e.withDraft(ctx, draftID, func(d *draft, fc *flowContext) error {
		if err := e.requireEditable(d); err != nil {
			return err
		}
		next := inventory.NewSelectionSet()
		var verrs domain.ValidationErrors
		for _, in := range items {
			item, err := e.buildItem(fc, d, in)
			var ve domain.ValidationErrors
			if errors.As(err, &ve) {
				verrs = append(verrs, ve...)
				continue
			}
			if err != nil {
				return err
			}
			if err := next.Add(item); err != nil {
				return err
			}
		}
		if len(verrs) > 0 {
			return verrs
		}
		return e.persist(ctx, d, d.record.Clone(), d.step, next)
	})
}

// AddItem agrega o reemplaza un único ítem de la selección.
func (e *MovementEngine) AddItem(ctx context.Context, draftID string, in dto.SelectionInput) error {
	return e.withDraft(ctx, draftID, func(d *draft, fc *flowContext) error {
		if err := e.requireEditable(d); err != nil {
			return err
		}
		item, err := e.buildItem(fc, d, in)
		if err != nil {
			return err
		}
		sel := d.sel.Clone()
		if err := sel.Add(item); err != nil {
			return err
		}
		return e.persist(ctx, d, d.record.Clone(), d.step, sel)
	})
}

// RemoveItem quita el producto de la selección.
func (e *MovementEngine) RemoveItem(ctx context.Context, draftID, productID string) error {
	return e.withDraft(ctx, draftID, func(d *draft, _ *flowContext) error {
		if err := e.requireEditable(d); err != nil {
			return err
		}
		sel := d.sel.Clone()
		if !sel.Remove(productID) {
			return fmt.Errorf("%w: producto %s no está en la selección", domain.ErrNotFound, productID)
		}
		return e.persist(ctx, d, d.record.Clone(), d.step, sel)
	})
}

// SetItemQuantity fija la magnitud de un ítem y recalcula su vista previa.
// En traslados la cantidad se limita a lo disponible en el origen.
func (e *MovementEngine) SetItemQuantity(ctx context.Context, draftID, productID string, quantity int64) error {
	return e.editItem(ctx, draftID, productID, func(_ *draft, sel *inventory.SelectionSet, _ *flowContext) error {
		return sel.SetQuantity(productID, quantity)
	})
}

// SetItemReason fija el motivo de un ítem de ajuste (id de catálogo o texto libre).
func (e *MovementEngine) SetItemReason(ctx context.Context, draftID, productID, reasonID, customReason string) error {
	return e.editItem(ctx, draftID, productID, func(d *draft, sel *inventory.SelectionSet, fc *flowContext) error {
		if d.record.Type != entity.MovementTypeAdjust {
			return fmt.Errorf("%w: el motivo solo aplica a ajustes", domain.ErrInvalidState)
		}
		if reasonID != "" && !fc.knownReason(reasonID) {
			return domain.ValidationErrors{{
				Code: domain.CodeUnknownReason, Field: "reason_id", ProductID: productID,
				Message: fmt.Sprintf("motivo %q desconocido", reasonID),
			}}
		}
		return sel.SetReason(productID, reasonID, customReason)
	})
}

// SetItemDirection fija el sentido de un ítem de ajuste.
func (e *MovementEngine) SetItemDirection(ctx context.Context, draftID, productID string, dir entity.AdjustDirection) error {
	return e.editItem(ctx, draftID, productID, func(d *draft, sel *inventory.SelectionSet, _ *flowContext) error {
		if d.record.Type != entity.MovementTypeAdjust {
			return fmt.Errorf("%w: el sentido solo aplica a ajustes", domain.ErrInvalidState)
		}
		if dir != entity.AdjustIncrease && dir != entity.AdjustDecrease {
			return fmt.Errorf("%w: sentido %q", domain.ErrInvalidInput, dir)
		}
		return sel.Update(productID, func(item *entity.MovementItem) { item.Direction = dir })
	})
}

// SetItemLocation cambia la ubicación destino (Receive) o el origen (Transfer) de un ítem.
func (e *MovementEngine) SetItemLocation(ctx context.Context, draftID, productID, locationID string) error {
	return e.editItem(ctx, draftID, productID, func(d *draft, sel *inventory.SelectionSet, _ *flowContext) error {
		var allowed []string
		var set func(item *entity.MovementItem)
		switch d.record.Type {
		case entity.MovementTypeReceive:
			allowed = d.record.DestinationLocationIDs
			set = func(item *entity.MovementItem) { item.LocationID = locationID }
		case entity.MovementTypeTransfer:
			allowed = d.record.SourceLocationIDs
			set = func(item *entity.MovementItem) { item.SourceLocationID = locationID }
		default:
			return fmt.Errorf("%w: el ajuste tiene una única ubicación", domain.ErrInvalidState)
		}
		if !contains(allowed, locationID) {
			return domain.ValidationErrors{{
				Code: domain.CodeItemLocation, Field: "location_id", ProductID: productID,
				Message: fmt.Sprintf("la ubicación %q no pertenece al movimiento", locationID),
			}}
		}
		return sel.Update(productID, set)
	})
}

// AdvanceStep pasa al siguiente paso si los predicados hasta el actual se cumplen.
// Desde el último paso solo se puede confirmar (Commit) o cancelar.
func (e *MovementEngine) AdvanceStep(ctx context.Context, draftID string) (entity.Step, error) {
	var step entity.Step
	err := e.withDraft(ctx, draftID, func(d *draft, fc *flowContext) error {
		steps := d.flow.steps()
		if d.step >= len(steps)-1 {
			return fmt.Errorf("%w: el borrador está en el último paso", domain.ErrInvalidState)
		}
		step = steps[d.step]
		if errs := validateUpTo(d.flow, d.step, fc); len(errs) > 0 {
			return errs
		}
		if err := e.persist(ctx, d, d.record.Clone(), d.step+1, d.sel); err != nil {
			return err
		}
		step = steps[d.step]
		e.log.Debug().Str("record_id", d.record.ID).Str("step", string(step)).Msg("paso avanzado")
		return nil
	})
	return step, err
}

// BackStep retrocede un paso sin perder la selección.
func (e *MovementEngine) BackStep(ctx context.Context, draftID string) (entity.Step, error) {
	var step entity.Step
	err := e.withDraft(ctx, draftID, func(d *draft, _ *flowContext) error {
		if d.step == 0 {
			return fmt.Errorf("%w: el borrador está en el primer paso", domain.ErrInvalidState)
		}
		step = d.flow.steps()[d.step]
		if err := e.persist(ctx, d, d.record.Clone(), d.step-1, d.sel); err != nil {
			return err
		}
		step = d.flow.steps()[d.step]
		return nil
	})
	return step, err
}

// RefreshDraft relee cantidades y versiones de todas las filas de la selección.
// Es el camino de reintento tras un conflicto de concurrencia.
func (e *MovementEngine) RefreshDraft(ctx context.Context, draftID string) error {
	return e.withDraft(ctx, draftID, func(d *draft, fc *flowContext) error {
		sel := d.sel.Clone()
		fc.sel = sel
		for _, it := range sel.Items() {
			var rerr error
			if err := sel.Update(it.ProductID, func(item *entity.MovementItem) {
				rerr = d.flow.refreshItem(fc, item)
			}); err != nil {
				return err
			}
			if rerr != nil {
				return rerr
			}
		}
		return e.persist(ctx, d, d.record.Clone(), d.step, sel)
	})
}

// Cancel descarta el borrador sin tocar el libro. El registro queda Cancelled (terminal).
func (e *MovementEngine) Cancel(ctx context.Context, draftID string) (*entity.MovementRecord, error) {
	var out entity.MovementRecord
	err := e.withDraft(ctx, draftID, func(d *draft, _ *flowContext) error {
		now := e.opts.now()
		rec := d.record.Clone()
		rec.Items = d.sel.Items()
		rec.Status = entity.MovementStatusCancelled
		rec.Step = entity.StepCancelled
		rec.UpdatedAt = now
		rec.CancelledAt = &now
		if err := e.deps.Records.Save(ctx, &rec); err != nil {
			if errors.Is(err, domain.ErrInvalidState) {
				e.forget(rec.ID)
			}
			return fmt.Errorf("save movement record: %w", err)
		}
		*d.record = rec
		e.forget(d.record.ID)
		out = rec.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("record_id", out.ID).Str("type", string(out.Type)).Msg("movimiento cancelado")
	return &out, nil
}

// ─── internos ─────────────────────────────────────────────────────────────────

// getDraft busca el borrador vivo; si no está en memoria intenta rehidratarlo desde el repositorio.
func (e *MovementEngine) getDraft(ctx context.Context, id string) (*draft, error) {
	e.mu.Lock()
	d, ok := e.drafts[id]
	e.mu.Unlock()
	if ok {
		return d, nil
	}

	rec, err := e.deps.Records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movement record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: borrador %s", domain.ErrNotFound, id)
	}
	if rec.IsTerminal() {
		return nil, fmt.Errorf("%w: el movimiento %s está %s", domain.ErrInvalidState, id, rec.Status)
	}
	d, err = restoreDraft(rec)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.drafts[id]; ok {
		return existing, nil
	}
	e.drafts[id] = d
	return d, nil
}

func restoreDraft(rec *entity.MovementRecord) (*draft, error) {
	flow, err := workflowFor(rec.Type)
	if err != nil {
		return nil, err
	}
	d := &draft{record: rec, flow: flow, sel: inventory.NewSelectionSet()}
	for i, s := range flow.steps() {
		if s == rec.Step {
			d.step = i
		}
	}
	for _, it := range rec.Items {
		if err := d.sel.Add(it); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (e *MovementEngine) forget(id string) {
	e.mu.Lock()
	delete(e.drafts, id)
	e.mu.Unlock()
}

// withDraft ejecuta fn con el candado del borrador tomado y una instantánea del grafo.
func (e *MovementEngine) withDraft(ctx context.Context, id string, fn func(d *draft, fc *flowContext) error) error {
	d, err := e.getDraft(ctx, id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.record.Status != entity.MovementStatusDraft {
		return fmt.Errorf("%w: el movimiento %s está %s", domain.ErrInvalidState, id, d.record.Status)
	}
	fc, err := e.newFlowContext(ctx, d)
	if err != nil {
		return err
	}
	return fn(d, fc)
}

func (e *MovementEngine) newFlowContext(ctx context.Context, d *draft) (*flowContext, error) {
	graph, err := e.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	fc := &flowContext{
		ctx:    ctx,
		graph:  graph,
		record: d.record,
		sel:    d.sel,
		opts:   &e.opts,
		readRow: func(productID, locationID string) (entity.LedgerRow, error) {
			row, err := e.deps.Ledger.Get(ctx, productID, locationID)
			if err != nil {
				return entity.LedgerRow{}, fmt.Errorf("get ledger row: %w", err)
			}
			return row, nil
		},
	}
	if d.record.Type == entity.MovementTypeAdjust {
		reasons, err := e.deps.Reasons.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list reasons: %w", err)
		}
		fc.reasons = make(map[string]struct{}, len(reasons))
		for _, r := range reasons {
			fc.reasons[r.ID] = struct{}{}
		}
	}
	return fc, nil
}

// editItem modifica un ítem existente sobre una copia de la selección, lo recalcula contra
// el libro y persiste.
func (e *MovementEngine) editItem(ctx context.Context, draftID, productID string, fn func(d *draft, sel *inventory.SelectionSet, fc *flowContext) error) error {
	return e.withDraft(ctx, draftID, func(d *draft, fc *flowContext) error {
		if err := e.requireEditable(d); err != nil {
			return err
		}
		if _, ok := d.sel.Get(productID); !ok {
			return fmt.Errorf("%w: producto %s no está en la selección", domain.ErrNotFound, productID)
		}
		sel := d.sel.Clone()
		fc.sel = sel
		if err := fn(d, sel, fc); err != nil {
			return err
		}
		var rerr error
		if err := sel.Update(productID, func(item *entity.MovementItem) {
			rerr = d.flow.refreshItem(fc, item)
		}); err != nil {
			return err
		}
		if rerr != nil {
			return rerr
		}
		return e.persist(ctx, d, d.record.Clone(), d.step, sel)
	})
}

func (e *MovementEngine) requireEditable(d *draft) error {
	if !editableStep(d.flow, d.step) {
		return fmt.Errorf("%w: la selección no se puede editar en el paso %s", domain.ErrInvalidState, d.flow.steps()[d.step])
	}
	return nil
}

func (e *MovementEngine) buildItem(fc *flowContext, d *draft, in dto.SelectionInput) (entity.MovementItem, error) {
	product, err := e.getProduct(fc.ctx, in.ProductID)
	if err != nil {
		return entity.MovementItem{}, err
	}
	return d.flow.buildItem(fc, in, product)
}

// persist guarda el estado candidato (registro, paso y selección) y solo si el guardado
// tiene éxito lo instala en el borrador; ante un error el borrador queda como estaba.
func (e *MovementEngine) persist(ctx context.Context, d *draft, rec entity.MovementRecord, step int, sel *inventory.SelectionSet) error {
	rec.Items = sel.Items()
	rec.Step = d.flow.steps()[step]
	rec.TotalValue = totalValue(rec.Items)
	rec.UpdatedAt = e.opts.now()
	if err := e.deps.Records.Save(ctx, &rec); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			e.forget(rec.ID)
		}
		return fmt.Errorf("save movement record: %w", err)
	}
	*d.record = rec
	d.step = step
	d.sel = sel
	return nil
}

func (e *MovementEngine) view(d *draft, fc *flowContext) *DraftView {
	errs := validateUpTo(d.flow, d.step, fc)
	last := len(d.flow.steps()) - 1
	return &DraftView{
		Record:     d.record.Clone(),
		Step:       d.step,
		Steps:      d.flow.steps(),
		CanAdvance: len(errs) == 0 && d.step < last,
		Errors:     errs,
	}
}

func totalValue(items []entity.MovementItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalCost)
	}
	return total
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
