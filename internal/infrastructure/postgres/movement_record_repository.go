package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.MovementRecordRepository = (*MovementRecordRepo)(nil)

// MovementRecordRepo registros de movimiento (borradores e historial) sobre PostgreSQL.
// Los ítems se guardan como JSONB; location_ids desnormaliza todas las ubicaciones involucradas.
type MovementRecordRepo struct {
	q Querier
}

// NewMovementRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRecordRepository(q Querier) *MovementRecordRepo {
	return &MovementRecordRepo{q: q}
}

const recordColumns = `id, type, status, step, supplier_id, destination_location_ids, target_location_id,
	source_location_ids, items, total_value, note, actor, created_at, updated_at, completed_at, cancelled_at`

// Save inserta o actualiza el registro. Un registro Completed o Cancelled no se sobrescribe.
func (r *MovementRecordRepo) Save(ctx context.Context, record *entity.MovementRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: registro sin id", domain.ErrInvalidInput)
	}
	items, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	query := `
		INSERT INTO movement_records (` + recordColumns + `, location_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			step = EXCLUDED.step,
			supplier_id = EXCLUDED.supplier_id,
			destination_location_ids = EXCLUDED.destination_location_ids,
			target_location_id = EXCLUDED.target_location_id,
			source_location_ids = EXCLUDED.source_location_ids,
			items = EXCLUDED.items,
			total_value = EXCLUDED.total_value,
			note = EXCLUDED.note,
			actor = EXCLUDED.actor,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at,
			cancelled_at = EXCLUDED.cancelled_at,
			location_ids = EXCLUDED.location_ids
		WHERE movement_records.status = 'DRAFT'`
	cmd, err := r.q.Exec(ctx, query,
		record.ID, string(record.Type), string(record.Status), string(record.Step), record.SupplierID,
		nonNil(record.DestinationLocationIDs), record.TargetLocationID, nonNil(record.SourceLocationIDs),
		items, record.TotalValue, record.Note, record.Actor,
		record.CreatedAt, record.UpdatedAt, record.CompletedAt, record.CancelledAt,
		nonNil(record.LocationIDs()),
	)
	if err != nil {
		return fmt.Errorf("save movement record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: el movimiento %s ya es definitivo", domain.ErrInvalidState, record.ID)
	}
	return nil
}

// GetByID obtiene un registro por ID.
func (r *MovementRecordRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	row := r.q.QueryRow(ctx, `SELECT `+recordColumns+` FROM movement_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement record: %w", err)
	}
	return rec, nil
}

// List historial filtrado, del más reciente al más antiguo.
func (r *MovementRecordRepo) List(ctx context.Context, f repository.MovementRecordFilter) ([]entity.MovementRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM movement_records WHERE 1 = 1`
	args := []any{}
	pos := 1
	add := func(cond string, v any) {
		query += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, v)
		pos++
	}
	if len(f.LocationIDs) > 0 {
		add("location_ids && $%d", f.LocationIDs)
	}
	if f.Actor != "" {
		add("actor = $%d", f.Actor)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, f.Limit)
		pos++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movement records: %w", err)
	}
	defer rows.Close()
	var list []entity.MovementRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement record: %w", err)
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

func scanRecord(row pgx.Row) (*entity.MovementRecord, error) {
	var rec entity.MovementRecord
	var items []byte
	err := row.Scan(
		&rec.ID, &rec.Type, &rec.Status, &rec.Step, &rec.SupplierID, &rec.DestinationLocationIDs,
		&rec.TargetLocationID, &rec.SourceLocationIDs, &items, &rec.TotalValue, &rec.Note, &rec.Actor,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.CompletedAt, &rec.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &rec.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return &rec, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
