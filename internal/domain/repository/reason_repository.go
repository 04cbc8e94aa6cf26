package repository

import (
	"context"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// ReasonRepository catálogo de motivos de ajuste.
type ReasonRepository interface {
	Create(ctx context.Context, reason *entity.AdjustmentReason) error
	GetByID(ctx context.Context, id string) (*entity.AdjustmentReason, error)
	List(ctx context.Context) ([]entity.AdjustmentReason, error)
}
