package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRow(t *testing.T, s *memory.LedgerStore, productID, locationID string, qty int64) entity.LedgerRow {
	t.Helper()
	cur, err := s.Get(context.Background(), productID, locationID)
	require.NoError(t, err)
	rows, err := s.ApplyDeltas(context.Background(), []entity.LedgerDelta{{
		ProductID: productID, LocationID: locationID, Amount: qty - cur.Quantity, ExpectedVersion: cur.Version,
	}})
	require.NoError(t, err)
	return rows[0]
}

func TestLedgerStore_FilaInexistenteEsCero(t *testing.T) {
	s := memory.NewLedgerStore()
	r, err := s.Get(context.Background(), "P", "W")
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.Quantity)
	assert.Equal(t, int64(0), r.Version)
}

func TestLedgerStore_ApplyDeltas_VersionaYLimita(t *testing.T) {
	s := memory.NewLedgerStore()
	r := seedRow(t, s, "P", "W", 12)
	assert.Equal(t, int64(1), r.Version)

	rows, err := s.ApplyDeltas(context.Background(), []entity.LedgerDelta{{
		ProductID: "P", LocationID: "W", Amount: -20, ExpectedVersion: 1,
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows[0].Quantity, "nunca negativo")
	assert.Equal(t, int64(2), rows[0].Version)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad: si una fila del conjunto tiene versión vieja, ninguna cambia.
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerStore_ApplyDeltas_TodoONada(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	seedRow(t, s, "P", "W", 10)
	seedRow(t, s, "P", "T", 3)

	_, err := s.ApplyDeltas(ctx, []entity.LedgerDelta{
		{ProductID: "P", LocationID: "W", Amount: -4, ExpectedVersion: 1},
		{ProductID: "P", LocationID: "T", Amount: 4, ExpectedVersion: 0},
	})
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	w, _ := s.Get(ctx, "P", "W")
	tt, _ := s.Get(ctx, "P", "T")
	assert.Equal(t, int64(10), w.Quantity)
	assert.Equal(t, int64(3), tt.Quantity)
	assert.Equal(t, int64(1), w.Version)
}

func TestLedgerStore_ApplyDeltas_FilaNuevaYaCreada(t *testing.T) {
	s := memory.NewLedgerStore()
	seedRow(t, s, "P", "W", 5)

	_, err := s.ApplyDeltas(context.Background(), []entity.LedgerDelta{{
		ProductID: "P", LocationID: "W", Amount: 1, ExpectedVersion: 0,
	}})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestLedgerStore_ApplyDeltas_ConcurrentesUnoGana(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	seedRow(t, s, "P", "W", 100)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyDeltas(ctx, []entity.LedgerDelta{{
				ProductID: "P", LocationID: "W", Amount: -1, ExpectedVersion: 1,
			}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrConcurrencyConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	w, _ := s.Get(ctx, "P", "W")
	assert.Equal(t, int64(99), w.Quantity)
}

func TestLedgerStore_ListByLocationsYProducto(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	seedRow(t, s, "P", "W", 1)
	seedRow(t, s, "P", "S1", 2)
	seedRow(t, s, "Q", "T", 3)

	rows, err := s.ListByLocations(ctx, []string{"W", "S1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "S1", rows[0].LocationID, "orden por producto y ubicación")

	rows, err = s.ListByProduct(ctx, "Q")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].Quantity)
}

func TestLedgerStore_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memory.NewLedgerStore().ApplyDeltas(ctx, []entity.LedgerDelta{{ProductID: "P", LocationID: "W", Amount: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}
