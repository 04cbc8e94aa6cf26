package stock_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/stock"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registrosInestables historial cuyo Save puede fallar a demanda.
type registrosInestables struct {
	repository.MovementRecordRepository
	fallar bool
}

func (r *registrosInestables) Save(ctx context.Context, rec *entity.MovementRecord) error {
	if r.fallar {
		return errors.New("disco lleno")
	}
	return r.MovementRecordRepository.Save(ctx, rec)
}

// committerCaido simula una caída del almacén al confirmar.
type committerCaido struct{}

func (committerCaido) CommitMovement(context.Context, *entity.MovementRecord, []entity.LedgerDelta) ([]entity.LedgerRow, error) {
	return nil, errors.New("conexión perdida")
}

// ──────────────────────────────────────────────────────────────────────────────
// Dos motores sobre el mismo almacén: B tiene el borrador en memoria cuando A lo
// cancela. La confirmación de B debe fallar sin mover stock.
// ──────────────────────────────────────────────────────────────────────────────

func TestCommit_CanceladoPorOtroMotorNoMueveStock(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.set(t, "P", "W", 10)
	b := stock.NewMovementEngine(e.deps)

	id := e.transferReady(t, []string{"W"}, "T", dto.SelectionInput{ProductID: "P", Quantity: 4})
	_, err := b.GetDraft(ctx, id)
	require.NoError(t, err)
	_, err = e.engine.Cancel(ctx, id)
	require.NoError(t, err)

	_, err = b.Commit(ctx, id)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(10), e.qty(t, "P", "W"))
	assert.Equal(t, int64(0), e.qty(t, "P", "T"))

	stored, err := e.records.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusCancelled, stored.Status)

	_, err = b.GetDraft(ctx, id)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "B descarta su copia y relee el registro")
}

func TestCommit_ConfirmadoPorOtroMotorSeAplicaUnaVez(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.set(t, "P", "W", 10)
	b := stock.NewMovementEngine(e.deps)

	id := e.transferReady(t, []string{"W"}, "T", dto.SelectionInput{ProductID: "P", Quantity: 4})
	_, err := b.GetDraft(ctx, id)
	require.NoError(t, err)
	_, err = e.engine.Commit(ctx, id)
	require.NoError(t, err)

	_, err = b.Commit(ctx, id)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(6), e.qty(t, "P", "W"))
	assert.Equal(t, int64(4), e.qty(t, "P", "T"))
}

func TestCommit_FalloDelAlmacenNoCierraElBorrador(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.set(t, "P", "W", 10)
	deps := e.deps
	deps.Committer = committerCaido{}
	eng := stock.NewMovementEngine(deps)

	id := e.transferReady(t, []string{"W"}, "T", dto.SelectionInput{ProductID: "P", Quantity: 4})
	_, err := eng.Commit(ctx, id)
	require.ErrorContains(t, err, "conexión perdida")
	assert.Equal(t, int64(10), e.qty(t, "P", "W"))

	view, err := eng.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusDraft, view.Record.Status)
	assert.Equal(t, entity.StepReviewAndCommit, view.Record.Step)

	_, err = e.engine.Commit(ctx, id)
	require.NoError(t, err, "otro motor sano puede confirmarlo")
	assert.Equal(t, int64(6), e.qty(t, "P", "W"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Un guardado fallido deja el borrador en memoria igual a lo almacenado
// ──────────────────────────────────────────────────────────────────────────────

func TestDraft_GuardadoFallidoNoAlteraElBorrador(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	regs := &registrosInestables{MovementRecordRepository: e.records}
	deps := e.deps
	deps.Records = regs
	eng := stock.NewMovementEngine(deps)

	d, err := eng.CreateDraft(ctx, dto.DraftInput{
		Type: entity.MovementTypeReceive, Actor: "ana", SupplierID: "PROV-9", DestinationLocationIDs: []string{"T"},
	})
	require.NoError(t, err)
	_, err = eng.AdvanceStep(ctx, d.ID)
	require.NoError(t, err)
	require.NoError(t, eng.SetSelection(ctx, d.ID, []dto.SelectionInput{{ProductID: "P", Quantity: 3}}))

	regs.fallar = true
	step, err := eng.AdvanceStep(ctx, d.ID)
	require.Error(t, err)
	assert.Equal(t, entity.StepSelectProducts, step)
	_, err = eng.BackStep(ctx, d.ID)
	require.Error(t, err)
	require.Error(t, eng.SetSelection(ctx, d.ID, []dto.SelectionInput{{ProductID: "Q", Quantity: 1}}))
	require.Error(t, eng.AddItem(ctx, d.ID, dto.SelectionInput{ProductID: "Q", Quantity: 1}))
	require.Error(t, eng.RemoveItem(ctx, d.ID, "P"))
	require.Error(t, eng.SetItemQuantity(ctx, d.ID, "P", 9))
	require.Error(t, eng.RefreshDraft(ctx, d.ID))

	view, err := eng.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Step)
	assert.Equal(t, entity.StepSelectProducts, view.Record.Step)
	require.Len(t, view.Record.Items, 1)
	assert.Equal(t, "P", view.Record.Items[0].ProductID)
	assert.Equal(t, int64(3), view.Record.Items[0].Quantity)

	stored, err := e.records.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Record.Step, stored.Step)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(3), stored.Items[0].Quantity)

	regs.fallar = false
	step, err = eng.AdvanceStep(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StepSetQuantities, step)
	_, err = eng.Commit(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.qty(t, "P", "T"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta de producto con stock inicial fallido
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateProduct_StockInicialFallidoRetiraProducto(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	deps := e.deps
	deps.Committer = committerCaido{}
	eng := stock.NewMovementEngine(deps)

	in := dto.CreateProductInput{
		SKU: "AZ-01", Name: "Azúcar", Cost: decimal.NewFromInt(3), Price: decimal.NewFromInt(5),
		Actor: "ana", InitialLocationID: "W", InitialQuantity: 5,
	}
	p, rec, err := eng.CreateProduct(ctx, in)
	require.ErrorContains(t, err, "conexión perdida")
	assert.Nil(t, p)
	assert.Nil(t, rec)

	got, err := e.deps.Products.GetBySKU(ctx, "AZ-01")
	require.NoError(t, err)
	assert.Nil(t, got, "el producto no queda en el catálogo")

	cancelled, err := e.engine.ListMovementRecords(ctx, dto.MovementFilter{Status: entity.MovementStatusCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, entity.SupplierOpening, cancelled[0].SupplierID)

	p, rec, err = e.engine.CreateProduct(ctx, in)
	require.NoError(t, err, "el SKU queda libre para reintentar")
	require.NotNil(t, rec)
	assert.Equal(t, int64(5), e.qty(t, p.ID, "W"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Filtro de historial serializado
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovementRecords_FiltroDesdeJSON(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r1 := e.receiveReady(t, []string{"S1"}, dto.SelectionInput{ProductID: "P", Quantity: 2})
	_, err := e.engine.Commit(ctx, r1)
	require.NoError(t, err)
	r2 := e.receiveReady(t, []string{"T"}, dto.SelectionInput{ProductID: "Q", Quantity: 1})
	_, err = e.engine.Commit(ctx, r2)
	require.NoError(t, err)

	var f dto.MovementFilter
	raw := `{"location_id":"W","status":"COMPLETED","type":"RECEIVE","page":{"limit":5}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	assert.Equal(t, "W", f.LocationID)
	assert.Equal(t, 5, f.Page.Limit)

	recs, err := e.engine.ListMovementRecords(ctx, f)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, r1, recs[0].ID)
}
