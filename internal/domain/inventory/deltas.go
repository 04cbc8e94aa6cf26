package inventory

import (
	"fmt"
	"sort"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// MergeDeltas agrupa los deltas por fila sumando sus montos. Varios deltas sobre la misma fila
// deben declarar la misma versión esperada. El resultado sale ordenado por clave, de modo que
// dos confirmaciones concurrentes bloquean filas en el mismo orden.
func MergeDeltas(deltas []entity.LedgerDelta) ([]entity.LedgerDelta, error) {
	merged := make(map[entity.LedgerKey]*entity.LedgerDelta, len(deltas))
	for _, d := range deltas {
		if d.ProductID == "" || d.LocationID == "" {
			return nil, fmt.Errorf("%w: delta sin producto o ubicación", domain.ErrInvalidInput)
		}
		if d.ExpectedVersion < 0 {
			return nil, fmt.Errorf("%w: versión esperada negativa", domain.ErrInvalidInput)
		}
		cur, ok := merged[d.Key()]
		if !ok {
			cp := d
			merged[d.Key()] = &cp
			continue
		}
		if cur.ExpectedVersion != d.ExpectedVersion {
			return nil, fmt.Errorf("%w: versiones distintas para %s/%s", domain.ErrConcurrencyConflict, d.ProductID, d.LocationID)
		}
		cur.Amount += d.Amount
	}
	out := make([]entity.LedgerDelta, 0, len(merged))
	for _, d := range merged {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out, nil
}
