package fixtures_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/stock"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/fixtures"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sample = `{
  "actor": "carga",
  "locations": [
    {"id": "S1", "name": "Estante Café", "kind": "warehouse", "parent_id": "W"},
    {"id": "W", "name": "Bodega Principal", "kind": "warehouse"},
    {"id": "T", "name": "Tienda Única", "kind": "store"}
  ],
  "customers": [{"id": "C", "name": "Cliente Señor", "tax_id": "900123456"}],
  "reasons": [{"id": "damaged", "name": "Dañado", "description": "duplicado del catálogo"}],
  "products": [
    {"id": "P", "sku": "CAF-01", "name": "Café molido", "category": "bebidas", "price": "18", "cost": "10"},
    {"id": "Q", "sku": "TE-02", "name": "Té verde", "category": "bebidas", "price": "7", "cost": "4"}
  ],
  "stock": [
    {"product_id": "P", "location_id": "S1", "quantity": 5},
    {"product_id": "P", "location_id": "W", "quantity": 10},
    {"product_id": "Q", "location_id": "T", "quantity": 3},
    {"product_id": "Q", "location_id": "W", "quantity": 2},
    {"product_id": "Q", "location_id": "S1", "quantity": 0}
  ]
}`

// ──────────────────────────────────────────────────────────────────────────────
// Los archivos exportados desde hojas de cálculo suelen venir en ISO-8859-1.
// El texto se vuelve a codificar en latin1 para comprobar que las tildes
// sobreviven la conversión.
// ──────────────────────────────────────────────────────────────────────────────

func TestParse_Latin1(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(sample)
	require.NoError(t, err)
	require.NotEqual(t, sample, latin1, "el texto debe cambiar de bytes")

	f, err := fixtures.Parse(strings.NewReader(latin1), "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "Café molido", f.Products[0].Name)
	assert.Equal(t, "Cliente Señor", f.Customers[0].Name)
	assert.Equal(t, "4", f.Products[1].Cost.String())
}

func TestParse_Errores(t *testing.T) {
	_, err := fixtures.Parse(strings.NewReader(`{}`), "ebcdic")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = fixtures.Parse(strings.NewReader(`{"actor":"x","extra":1}`), "utf-8")
	assert.Error(t, err, "campos desconocidos se rechazan")

	_, err = fixtures.Parse(bytes.NewReader([]byte(`{"actor":`)), "")
	assert.Error(t, err)
}

func TestApply_StockPorMovimientos(t *testing.T) {
	ctx := context.Background()
	f, err := fixtures.Parse(strings.NewReader(sample), "utf-8")
	require.NoError(t, err)

	cat := fixtures.Catalogs{
		Locations: memory.NewLocationRepository(),
		Customers: memory.NewCustomerRepository(),
		Reasons:   memory.NewReasonRepository(),
	}
	ledger := memory.NewLedgerStore()
	records := memory.NewMovementRecordRepository()
	eng := stock.NewMovementEngine(stock.Deps{
		Locations: cat.Locations,
		Customers: cat.Customers,
		Products:  memory.NewProductRepository(),
		Reasons:   cat.Reasons,
		Ledger:    ledger,
		Records:   records,
		Committer: memory.NewMovementCommitter(ledger, records),
	})

	res, err := fixtures.Apply(ctx, f, cat, eng, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Locations)
	assert.Equal(t, 1, res.Customers)
	assert.Equal(t, 0, res.Reasons, "el motivo ya existía")
	assert.Equal(t, 2, res.Products)
	assert.Equal(t, 3, res.Movements, "dos aperturas y un Receive para W")

	q, err := eng.EffectiveQuantity(ctx, "P", []string{"W"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), q.Value)
	q, err = eng.EffectiveQuantity(ctx, "Q", []string{"W", "T"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), q.Value)

	recs, err := eng.ListMovementRecords(ctx, dto.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, entity.MovementTypeReceive, r.Type)
		assert.Equal(t, entity.SupplierOpening, r.SupplierID)
		assert.Equal(t, entity.MovementStatusCompleted, r.Status)
	}

	// Repetir la carga de productos no duplica catálogo ni stock.
	res, err = fixtures.Apply(ctx, &fixtures.File{Products: f.Products}, cat, eng, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Products)
	assert.Equal(t, 0, res.Movements)
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores al cancelar un Receive fallido
// ──────────────────────────────────────────────────────────────────────────────

// engineQueFalla rechaza la selección y tampoco puede cancelar el borrador.
type engineQueFalla struct {
	cancelados []string
}

func (f *engineQueFalla) CreateProduct(context.Context, dto.CreateProductInput) (*entity.Product, *entity.MovementRecord, error) {
	return nil, nil, errors.New("no se esperaban productos")
}

func (f *engineQueFalla) CreateDraft(context.Context, dto.DraftInput) (*entity.MovementRecord, error) {
	return &entity.MovementRecord{ID: "borrador-1", Status: entity.MovementStatusDraft}, nil
}

func (f *engineQueFalla) SetSelection(context.Context, string, []dto.SelectionInput) error {
	return errors.New("selección rechazada")
}

func (f *engineQueFalla) AdvanceStep(context.Context, string) (entity.Step, error) {
	return entity.StepSelectProducts, nil
}

func (f *engineQueFalla) Commit(context.Context, string) (*entity.MovementRecord, error) {
	return nil, errors.New("no se esperaba confirmar")
}

func (f *engineQueFalla) Cancel(_ context.Context, draftID string) (*entity.MovementRecord, error) {
	f.cancelados = append(f.cancelados, draftID)
	return nil, errors.New("almacén no disponible")
}

func TestApply_CancelacionFallidaSeReporta(t *testing.T) {
	eng := &engineQueFalla{}
	cat := fixtures.Catalogs{
		Locations: memory.NewLocationRepository(),
		Customers: memory.NewCustomerRepository(),
		Reasons:   memory.NewReasonRepository(),
	}
	// La primera línea sería apertura de un producto; la segunda va a un Receive.
	f := &fixtures.File{Actor: "carga", Stock: []fixtures.Stock{
		{ProductID: "P", LocationID: "W", Quantity: 1},
		{ProductID: "P", LocationID: "W", Quantity: 2},
	}}

	res, err := fixtures.Apply(context.Background(), f, cat, eng, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "selección rechazada")
	assert.ErrorContains(t, err, "almacén no disponible")
	assert.Equal(t, []string{"borrador-1"}, eng.cancelados)
	assert.Equal(t, 0, res.Movements)
}
