package stock_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/stock"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Red de prueba compartida:
//   W  bodega principal con sub-ubicaciones S1 y S2
//   T  tienda sin hijos
//   C  cliente
// Productos: P "Café molido" y Q "Té verde".
// ──────────────────────────────────────────────────────────────────────────────

type env struct {
	engine  *stock.MovementEngine
	ledger  *memory.LedgerStore
	records *memory.MovementRecordRepository
	deps    stock.Deps
}

func newEnv(t *testing.T, opts ...stock.Option) *env {
	t.Helper()
	ctx := context.Background()

	locations := memory.NewLocationRepository()
	for _, l := range []entity.Location{
		{ID: "W", Name: "Bodega Central", Kind: entity.LocationKindWarehouse},
		{ID: "S1", Name: "Estante 1", Kind: entity.LocationKindWarehouse, ParentID: "W"},
		{ID: "S2", Name: "Estante 2", Kind: entity.LocationKindWarehouse, ParentID: "W"},
		{ID: "T", Name: "Tienda Norte", Kind: entity.LocationKindStore},
	} {
		require.NoError(t, locations.Create(ctx, &l))
	}
	customers := memory.NewCustomerRepository()
	require.NoError(t, customers.Create(ctx, &entity.Customer{ID: "C", Name: "Cliente Mayorista"}))

	products := memory.NewProductRepository()
	for _, p := range []entity.Product{
		{ID: "P", SKU: "CAF-01", Name: "Café molido", Category: "bebidas", Cost: decimal.NewFromInt(10), Price: decimal.NewFromInt(18)},
		{ID: "Q", SKU: "TE-02", Name: "Té verde", Category: "bebidas", Cost: decimal.NewFromInt(4), Price: decimal.NewFromInt(7)},
	} {
		require.NoError(t, products.Create(ctx, &p))
	}

	e := &env{
		ledger:  memory.NewLedgerStore(),
		records: memory.NewMovementRecordRepository(),
	}
	e.deps = stock.Deps{
		Locations: locations,
		Customers: customers,
		Products:  products,
		Reasons:   memory.NewReasonRepository(),
		Ledger:    e.ledger,
		Records:   e.records,
		Committer: memory.NewMovementCommitter(e.ledger, e.records),
	}

	clock := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	seq := 0
	base := []stock.Option{
		stock.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		stock.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("mov-%03d", seq)
		}),
	}
	e.engine = stock.NewMovementEngine(e.deps, append(base, opts...)...)
	return e
}

// set deja la fila en qty escribiendo directo al libro (solo para preparar escenarios).
func (e *env) set(t *testing.T, productID, locationID string, qty int64) {
	t.Helper()
	ctx := context.Background()
	cur, err := e.ledger.Get(ctx, productID, locationID)
	require.NoError(t, err)
	_, err = e.ledger.ApplyDeltas(ctx, []entity.LedgerDelta{{
		ProductID: productID, LocationID: locationID, Amount: qty - cur.Quantity, ExpectedVersion: cur.Version,
	}})
	require.NoError(t, err)
}

func (e *env) qty(t *testing.T, productID, locationID string) int64 {
	t.Helper()
	r, err := e.ledger.Get(context.Background(), productID, locationID)
	require.NoError(t, err)
	return r.Quantity
}

// adjustReady deja un ajuste listo para confirmar sobre target.
func (e *env) adjustReady(t *testing.T, target string, items ...dto.SelectionInput) string {
	t.Helper()
	ctx := context.Background()
	d, err := e.engine.CreateDraft(ctx, dto.DraftInput{Type: entity.MovementTypeAdjust, Actor: "ana", TargetLocationID: target})
	require.NoError(t, err)
	_, err = e.engine.AdvanceStep(ctx, d.ID)
	require.NoError(t, err)
	require.NoError(t, e.engine.SetSelection(ctx, d.ID, items))
	_, err = e.engine.AdvanceStep(ctx, d.ID)
	require.NoError(t, err)
	return d.ID
}

// transferReady deja un traslado en REVIEW_AND_COMMIT.
func (e *env) transferReady(t *testing.T, sources []string, dest string, items ...dto.SelectionInput) string {
	t.Helper()
	ctx := context.Background()
	d, err := e.engine.CreateDraft(ctx, dto.DraftInput{
		Type: entity.MovementTypeTransfer, Actor: "luis",
		SourceLocationIDs: sources, DestinationLocation: dest,
	})
	require.NoError(t, err)
	_, err = e.engine.AdvanceStep(ctx, d.ID)
	require.NoError(t, err)
	require.NoError(t, e.engine.SetSelection(ctx, d.ID, items))
	for i := 0; i < 2; i++ {
		_, err = e.engine.AdvanceStep(ctx, d.ID)
		require.NoError(t, err)
	}
	return d.ID
}

// receiveReady deja una entrada lista para confirmar.
func (e *env) receiveReady(t *testing.T, dests []string, items ...dto.SelectionInput) string {
	t.Helper()
	ctx := context.Background()
	d, err := e.engine.CreateDraft(ctx, dto.DraftInput{
		Type: entity.MovementTypeReceive, Actor: "ana", SupplierID: "PROV-9", DestinationLocationIDs: dests,
	})
	require.NoError(t, err)
	_, err = e.engine.AdvanceStep(ctx, d.ID)
	require.NoError(t, err)
	require.NoError(t, e.engine.SetSelection(ctx, d.ID, items))
	_, err = e.engine.AdvanceStep(ctx, d.ID)
	require.NoError(t, err)
	return d.ID
}
