package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.MovementCommitter = (*MovementCommitter)(nil)

// MovementCommitter confirma movimientos sobre el libro y el historial en memoria.
// Toma el candado del libro y luego el del historial; nadie los toma en orden inverso.
type MovementCommitter struct {
	ledger  *LedgerStore
	records *MovementRecordRepository
}

// NewMovementCommitter une el libro y el historial que deben cambiar juntos.
func NewMovementCommitter(ledger *LedgerStore, records *MovementRecordRepository) *MovementCommitter {
	return &MovementCommitter{ledger: ledger, records: records}
}

// CommitMovement verifica que el registro siga en Draft y que todas las versiones coincidan,
// y solo entonces escribe las filas y el registro.
func (c *MovementCommitter) CommitMovement(ctx context.Context, record *entity.MovementRecord, deltas []entity.LedgerDelta) ([]entity.LedgerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if record.ID == "" {
		return nil, fmt.Errorf("%w: registro sin id", domain.ErrInvalidInput)
	}
	merged, err := inventory.MergeDeltas(deltas)
	if err != nil {
		return nil, err
	}

	c.ledger.mu.Lock()
	defer c.ledger.mu.Unlock()
	c.records.mu.Lock()
	defer c.records.mu.Unlock()

	prev, ok := c.records.byID[record.ID]
	if !ok {
		return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, record.ID)
	}
	if prev.Status != entity.MovementStatusDraft {
		return nil, fmt.Errorf("%w: el registro %s está %s", domain.ErrInvalidState, record.ID, prev.Status)
	}
	if err := c.ledger.checkLocked(merged); err != nil {
		return nil, err
	}
	rows := c.ledger.writeLocked(merged)
	c.records.byID[record.ID] = record.Clone()
	return rows, nil
}
