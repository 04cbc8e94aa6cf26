package repository

import (
	"context"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// LedgerStore define el puerto del libro de stock: una fila por (producto, ubicación).
// Las lecturas de filas inexistentes devuelven cantidad 0 y versión 0.
type LedgerStore interface {
	Get(ctx context.Context, productID, locationID string) (entity.LedgerRow, error)
	ListByLocations(ctx context.Context, locationIDs []string) ([]entity.LedgerRow, error)
	ListByProduct(ctx context.Context, productID string) ([]entity.LedgerRow, error)

	// ApplyDeltas aplica todos los deltas o ninguno. Devuelve domain.ErrConcurrencyConflict si
	// alguna fila cambió de versión desde la instantánea; las cantidades nuevas se limitan a >= 0.
	ApplyDeltas(ctx context.Context, deltas []entity.LedgerDelta) ([]entity.LedgerRow, error)
}
