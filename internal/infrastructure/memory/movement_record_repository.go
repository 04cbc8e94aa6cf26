package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.MovementRecordRepository = (*MovementRecordRepository)(nil)

// MovementRecordRepository historial de movimientos en memoria.
// Guarda copias; los registros terminales no se pueden sobrescribir.
type MovementRecordRepository struct {
	mu   sync.RWMutex
	byID map[string]entity.MovementRecord
}

// NewMovementRecordRepository crea el repositorio vacío.
func NewMovementRecordRepository() *MovementRecordRepository {
	return &MovementRecordRepository{byID: make(map[string]entity.MovementRecord)}
}

// Save inserta o actualiza un registro.
func (r *MovementRecordRepository) Save(_ context.Context, record *entity.MovementRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: registro sin id", domain.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[record.ID]; ok && prev.IsTerminal() {
		return fmt.Errorf("%w: el registro %s está %s", domain.ErrInvalidState, record.ID, prev.Status)
	}
	r.byID[record.ID] = record.Clone()
	return nil
}

// GetByID obtiene un registro; nil si no existe.
func (r *MovementRecordRepository) GetByID(_ context.Context, id string) (*entity.MovementRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	out := rec.Clone()
	return &out, nil
}

// List filtra el historial, del más reciente al más antiguo.
func (r *MovementRecordRepository) List(_ context.Context, f repository.MovementRecordFilter) ([]entity.MovementRecord, error) {
	r.mu.RLock()
	var out []entity.MovementRecord
	for _, rec := range r.byID {
		if matches(rec, f) {
			out = append(out, rec.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []entity.MovementRecord{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(rec entity.MovementRecord, f repository.MovementRecordFilter) bool {
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Type != "" && rec.Type != f.Type {
		return false
	}
	if f.Actor != "" && rec.Actor != f.Actor {
		return false
	}
	if f.From != nil && rec.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.CreatedAt.After(*f.To) {
		return false
	}
	if len(f.LocationIDs) > 0 {
		want := make(map[string]struct{}, len(f.LocationIDs))
		for _, id := range f.LocationIDs {
			want[id] = struct{}{}
		}
		for _, id := range rec.LocationIDs() {
			if _, ok := want[id]; ok {
				return true
			}
		}
		return false
	}
	return true
}
