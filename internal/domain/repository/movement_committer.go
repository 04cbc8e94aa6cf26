package repository

import (
	"context"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// MovementCommitter confirma un movimiento como una sola unidad de trabajo: aplica los deltas
// al libro y guarda el registro ya Completed. Si el registro almacenado no está en Draft
// devuelve domain.ErrInvalidState; si alguna fila cambió de versión, domain.ErrConcurrencyConflict.
// En ambos casos ni el libro ni el registro cambian.
type MovementCommitter interface {
	CommitMovement(ctx context.Context, record *entity.MovementRecord, deltas []entity.LedgerDelta) ([]entity.LedgerRow, error)
}
