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

var _ repository.LedgerStore = (*LedgerStore)(nil)

// LedgerStore libro de stock sobre la tabla stock_ledger.
// ApplyDeltas corre en una transacción: cada fila se escribe solo si su versión coincide.
type LedgerStore struct {
	pool *pgxpool.Pool
	tx   *TxRunner
}

// NewLedgerStore construye el adaptador del libro.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool, tx: NewTxRunner(pool)}
}

// Get obtiene la fila; si no existe devuelve cantidad 0 y versión 0.
func (s *LedgerStore) Get(ctx context.Context, productID, locationID string) (entity.LedgerRow, error) {
	query := `
		SELECT product_id, location_id, quantity, version, updated_at
		FROM stock_ledger WHERE product_id = $1 AND location_id = $2`
	var r entity.LedgerRow
	err := s.pool.QueryRow(ctx, query, productID, locationID).Scan(
		&r.ProductID, &r.LocationID, &r.Quantity, &r.Version, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.LedgerRow{ProductID: productID, LocationID: locationID}, nil
		}
		return entity.LedgerRow{}, fmt.Errorf("get ledger row: %w", err)
	}
	return r, nil
}

// ListByLocations lista las filas existentes de las ubicaciones indicadas.
func (s *LedgerStore) ListByLocations(ctx context.Context, locationIDs []string) ([]entity.LedgerRow, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT product_id, location_id, quantity, version, updated_at
		FROM stock_ledger WHERE location_id = ANY($1)
		ORDER BY product_id, location_id`
	return s.list(ctx, query, locationIDs)
}

// ListByProduct lista todas las filas de un producto.
func (s *LedgerStore) ListByProduct(ctx context.Context, productID string) ([]entity.LedgerRow, error) {
	query := `
		SELECT product_id, location_id, quantity, version, updated_at
		FROM stock_ledger WHERE product_id = $1
		ORDER BY location_id`
	return s.list(ctx, query, productID)
}

func (s *LedgerStore) list(ctx context.Context, query string, arg any) ([]entity.LedgerRow, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list ledger rows: %w", err)
	}
	defer rows.Close()
	var out []entity.LedgerRow
	for rows.Next() {
		var r entity.LedgerRow
		if err := rows.Scan(&r.ProductID, &r.LocationID, &r.Quantity, &r.Version, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ApplyDeltas aplica todos los deltas o ninguno. Una fila esperada en versión 0 se inserta;
// si otra transacción la creó antes, el INSERT no afecta filas y se informa conflicto.
// Las filas existentes se actualizan con WHERE version = esperada.
func (s *LedgerStore) ApplyDeltas(ctx context.Context, deltas []entity.LedgerDelta) ([]entity.LedgerRow, error) {
	merged, err := inventory.MergeDeltas(deltas)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return nil, nil
	}
	var out []entity.LedgerRow
	err = s.tx.Run(ctx, func(tx pgx.Tx) error {
		out = make([]entity.LedgerRow, 0, len(merged))
		for _, d := range merged {
			row, err := applyDelta(ctx, tx, d)
			if err != nil {
				return err
			}
			out = append(out, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyDelta(ctx context.Context, q Querier, d entity.LedgerDelta) (entity.LedgerRow, error) {
	var query string
	if d.ExpectedVersion == 0 {
		query = `
			INSERT INTO stock_ledger (product_id, location_id, quantity, version, updated_at)
			VALUES ($1, $2, GREATEST($3::BIGINT, 0), 1, now())
			ON CONFLICT (product_id, location_id) DO NOTHING
			RETURNING product_id, location_id, quantity, version, updated_at`
	} else {
		query = `
			UPDATE stock_ledger
			SET quantity = GREATEST(quantity + $3::BIGINT, 0), version = version + 1, updated_at = now()
			WHERE product_id = $1 AND location_id = $2 AND version = $4
			RETURNING product_id, location_id, quantity, version, updated_at`
	}
	args := []any{d.ProductID, d.LocationID, d.Amount}
	if d.ExpectedVersion != 0 {
		args = append(args, d.ExpectedVersion)
	}
	var r entity.LedgerRow
	err := q.QueryRow(ctx, query, args...).Scan(&r.ProductID, &r.LocationID, &r.Quantity, &r.Version, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.LedgerRow{}, fmt.Errorf("%w: %s/%s ya no está en la versión %d",
				domain.ErrConcurrencyConflict, d.ProductID, d.LocationID, d.ExpectedVersion)
		}
		if isCheckViolation(err) {
			return entity.LedgerRow{}, fmt.Errorf("%w: %s/%s", domain.ErrInvalidInput, d.ProductID, d.LocationID)
		}
		return entity.LedgerRow{}, fmt.Errorf("apply ledger delta: %w", err)
	}
	return r, nil
}
