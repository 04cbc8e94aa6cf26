package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.MovementCommitter = (*MovementCommitter)(nil)

// MovementCommitter confirma un movimiento en una sola transacción: bloquea el registro,
// aplica los deltas con control de versión y guarda el registro Completed.
type MovementCommitter struct {
	tx *TxRunner
}

// NewMovementCommitter construye el adaptador con el pool.
func NewMovementCommitter(pool *pgxpool.Pool) *MovementCommitter {
	return &MovementCommitter{tx: NewTxRunner(pool)}
}

// CommitMovement aplica deltas y registro o nada. El SELECT ... FOR UPDATE serializa la
// confirmación contra una cancelación concurrente del mismo movimiento.
func (c *MovementCommitter) CommitMovement(ctx context.Context, record *entity.MovementRecord, deltas []entity.LedgerDelta) ([]entity.LedgerRow, error) {
	if record.ID == "" {
		return nil, fmt.Errorf("%w: registro sin id", domain.ErrInvalidInput)
	}
	merged, err := inventory.MergeDeltas(deltas)
	if err != nil {
		return nil, err
	}
	var out []entity.LedgerRow
	err = c.tx.Run(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM movement_records WHERE id = $1 FOR UPDATE`, record.ID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, record.ID)
			}
			return fmt.Errorf("lock movement record: %w", err)
		}
		if entity.MovementStatus(status) != entity.MovementStatusDraft {
			return fmt.Errorf("%w: el registro %s está %s", domain.ErrInvalidState, record.ID, status)
		}

		out = make([]entity.LedgerRow, 0, len(merged))
		for _, d := range merged {
			row, err := applyDelta(ctx, tx, d)
			if err != nil {
				return err
			}
			out = append(out, row)
		}
		return NewMovementRecordRepository(tx).Save(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
