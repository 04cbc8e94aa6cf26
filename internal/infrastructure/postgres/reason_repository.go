package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.ReasonRepository = (*ReasonRepo)(nil)

// ReasonRepo catálogo de motivos de ajuste sobre PostgreSQL.
type ReasonRepo struct {
	q Querier
}

// NewReasonRepository construye el adaptador.
func NewReasonRepository(q Querier) *ReasonRepo {
	return &ReasonRepo{q: q}
}

// Create persiste un motivo.
func (r *ReasonRepo) Create(ctx context.Context, reason *entity.AdjustmentReason) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO adjustment_reasons (id, name, description) VALUES ($1, $2, $3)`,
		reason.ID, reason.Name, reason.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: motivo %s", domain.ErrDuplicate, reason.ID)
		}
		return fmt.Errorf("insert reason: %w", err)
	}
	return nil
}

// GetByID obtiene un motivo por ID.
func (r *ReasonRepo) GetByID(ctx context.Context, id string) (*entity.AdjustmentReason, error) {
	var a entity.AdjustmentReason
	err := r.q.QueryRow(ctx, `SELECT id, name, description FROM adjustment_reasons WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reason: %w", err)
	}
	return &a, nil
}

// List lista los motivos por id.
func (r *ReasonRepo) List(ctx context.Context) ([]entity.AdjustmentReason, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, description FROM adjustment_reasons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reasons: %w", err)
	}
	defer rows.Close()
	var list []entity.AdjustmentReason
	for rows.Next() {
		var a entity.AdjustmentReason
		if err := rows.Scan(&a.ID, &a.Name, &a.Description); err != nil {
			return nil, fmt.Errorf("scan reason: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
