package stock

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
)

// workflow secuencia lineal de pasos de un tipo de movimiento. Cada paso tiene un predicado
// que habilita el avance; el motor solo cambia de paso vía AdvanceStep/BackStep/Cancel/Commit.
type workflow interface {
	movementType() entity.MovementType
	steps() []entity.Step
	applyParams(rec *entity.MovementRecord, in dto.DraftInput)
	validateStep(step entity.Step, fc *flowContext) domain.ValidationErrors
	buildItem(fc *flowContext, in dto.SelectionInput, product *entity.Product) (entity.MovementItem, error)
	refreshItem(fc *flowContext, item *entity.MovementItem) error
	deltas(fc *flowContext) []entity.LedgerDelta
}

// flowContext lo que un paso necesita para validar o construir ítems: instantánea del grafo,
// lector de filas del libro y la selección del borrador.
type flowContext struct {
	ctx     context.Context
	graph   *inventory.LocationGraph
	record  *entity.MovementRecord
	sel     *inventory.SelectionSet
	readRow func(productID, locationID string) (entity.LedgerRow, error)
	reasons map[string]struct{}
	opts    *options
}

func (fc *flowContext) knownReason(id string) bool {
	_, ok := fc.reasons[id]
	return ok
}

// isCustomer indica si id es un cliente según el grafo.
func (fc *flowContext) isCustomer(id string) bool {
	n, ok := fc.graph.Node(id)
	return ok && n.IsCustomer()
}

func workflowFor(t entity.MovementType) (workflow, error) {
	switch t {
	case entity.MovementTypeReceive:
		return receiveFlow{}, nil
	case entity.MovementTypeAdjust:
		return adjustFlow{}, nil
	case entity.MovementTypeTransfer:
		return transferFlow{}, nil
	}
	return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, t)
}

// editableStep indica si en el paso i se puede modificar la selección:
// desde el segundo paso y nunca en la revisión final.
func editableStep(w workflow, i int) bool {
	steps := w.steps()
	return i >= 1 && i < len(steps) && steps[i] != entity.StepReviewAndCommit
}

// validateUpTo evalúa los predicados de los pasos [0, last] y acumula las violaciones.
func validateUpTo(w workflow, last int, fc *flowContext) domain.ValidationErrors {
	var errs domain.ValidationErrors
	for i, step := range w.steps() {
		if i > last {
			break
		}
		errs = append(errs, w.validateStep(step, fc)...)
	}
	return dedupe(errs)
}

func dedupe(errs domain.ValidationErrors) domain.ValidationErrors {
	if len(errs) < 2 {
		return errs
	}
	type key struct{ code, field, product string }
	seen := make(map[key]struct{}, len(errs))
	out := errs[:0:0]
	for _, e := range errs {
		k := key{e.Code, e.Field, e.ProductID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// validateNodes verifica que cada id exista y, si allowCustomer es false, que no sea cliente.
func validateNodes(fc *flowContext, field string, ids []string, allowCustomer bool) domain.ValidationErrors {
	var errs domain.ValidationErrors
	for _, id := range ids {
		n, ok := fc.graph.Node(id)
		if !ok {
			errs = append(errs, domain.ValidationError{
				Code:    domain.CodeUnknownLocation,
				Field:   field,
				Message: fmt.Sprintf("la ubicación %q no existe", id),
			})
			continue
		}
		if n.IsCustomer() && !allowCustomer {
			errs = append(errs, domain.ValidationError{
				Code:    domain.CodeCustomerNotAllowed,
				Field:   field,
				Message: fmt.Sprintf("%q es un cliente y no tiene stock propio", n.Name),
			})
		}
	}
	return errs
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func fillProduct(item *entity.MovementItem, p *entity.Product) {
	item.ProductID = p.ID
	item.ProductName = p.Name
	item.SKU = p.SKU
	item.Category = p.Category
	item.Image = p.Image
}
