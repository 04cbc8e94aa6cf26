package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.LedgerStore = (*LedgerStore)(nil)

// LedgerStore libro de stock en memoria indexado por (producto, ubicación).
// ApplyDeltas es atómico: compara versiones y escribe todas las filas bajo el mismo candado.
type LedgerStore struct {
	mu   sync.RWMutex
	rows map[entity.LedgerKey]entity.LedgerRow
	now  func() time.Time
}

// NewLedgerStore crea un libro vacío.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		rows: make(map[entity.LedgerKey]entity.LedgerRow),
		now:  time.Now,
	}
}

// Get obtiene la fila; si no existe devuelve cantidad 0 y versión 0.
func (s *LedgerStore) Get(_ context.Context, productID, locationID string) (entity.LedgerRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := entity.LedgerKey{ProductID: productID, LocationID: locationID}
	if r, ok := s.rows[key]; ok {
		return r, nil
	}
	return entity.LedgerRow{ProductID: productID, LocationID: locationID}, nil
}

// ListByLocations lista las filas existentes de las ubicaciones indicadas.
func (s *LedgerStore) ListByLocations(_ context.Context, locationIDs []string) ([]entity.LedgerRow, error) {
	in := make(map[string]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		in[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.LedgerRow
	for k, r := range s.rows {
		if _, ok := in[k.LocationID]; ok {
			out = append(out, r)
		}
	}
	sortRows(out)
	return out, nil
}

// ListByProduct lista todas las filas de un producto.
func (s *LedgerStore) ListByProduct(_ context.Context, productID string) ([]entity.LedgerRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.LedgerRow
	for k, r := range s.rows {
		if k.ProductID == productID {
			out = append(out, r)
		}
	}
	sortRows(out)
	return out, nil
}

// ApplyDeltas aplica todos los deltas o ninguno (compare-and-swap por conjunto de filas).
// Varios deltas sobre la misma fila deben declarar la misma versión esperada.
func (s *LedgerStore) ApplyDeltas(ctx context.Context, deltas []entity.LedgerDelta) ([]entity.LedgerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged, err := inventory.MergeDeltas(deltas)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(merged); err != nil {
		return nil, err
	}
	return s.writeLocked(merged), nil
}

// checkLocked valida todas las versiones antes de escribir: ninguna fila cambia si una sola falla.
func (s *LedgerStore) checkLocked(merged []entity.LedgerDelta) error {
	for _, d := range merged {
		if cur := s.rows[d.Key()]; cur.Version != d.ExpectedVersion {
			return fmt.Errorf("%w: %s/%s versión %d, esperada %d",
				domain.ErrConcurrencyConflict, d.ProductID, d.LocationID, cur.Version, d.ExpectedVersion)
		}
	}
	return nil
}

func (s *LedgerStore) writeLocked(merged []entity.LedgerDelta) []entity.LedgerRow {
	now := s.now()
	out := make([]entity.LedgerRow, 0, len(merged))
	for _, d := range merged {
		cur := s.rows[d.Key()]
		row := entity.LedgerRow{
			ProductID:  d.ProductID,
			LocationID: d.LocationID,
			Quantity:   inventory.ClampQuantity(cur.Quantity, d.Amount),
			Version:    cur.Version + 1,
			UpdatedAt:  now,
		}
		s.rows[d.Key()] = row
		out = append(out, row)
	}
	return out
}

func sortRows(rows []entity.LedgerRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].LocationID < rows[j].LocationID
	})
}
