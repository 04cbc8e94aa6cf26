package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// MovementRecordFilter criterios del historial de movimientos.
// LocationIDs ya viene expandido (ubicación principal + sus sub-ubicaciones).
type MovementRecordFilter struct {
	LocationIDs []string
	Actor       string
	From        *time.Time
	To          *time.Time
	Status      entity.MovementStatus
	Type        entity.MovementType
	Limit       int
	Offset      int
}

// MovementRecordRepository define el puerto de persistencia para registros de movimiento.
// Save rechaza con domain.ErrInvalidState la sobrescritura de un registro terminal.
type MovementRecordRepository interface {
	Save(ctx context.Context, record *entity.MovementRecord) error
	GetByID(ctx context.Context, id string) (*entity.MovementRecord, error)
	List(ctx context.Context, filter MovementRecordFilter) ([]entity.MovementRecord, error)
}
