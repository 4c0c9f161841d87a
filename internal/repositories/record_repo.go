package repositories

import (
	"context"
	"fmt"
	"time"

	"homestock/internal/models"

	"github.com/google/uuid"
)

// RecordRepository is the append-only audit store. There is deliberately no
// update method; Delete exists only for household-scoped retention pruning.
type RecordRepository interface {
	Create(ctx context.Context, record *models.Record) error
	List(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) ([]*models.Record, error)
	Delete(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) (int64, error)
}

type recordRepo struct {
	db Querier
}

func NewRecordRepo(db Querier) RecordRepository {
	return &recordRepo{db: db}
}

const recordColumns = `id, household_id, user_name, operate_type, entity_type, record_type, changed_fields,
		item_name_old, item_name_new, item_description_old, item_description_new,
		item_photo_old, item_photo_new, category_name_old, category_name_new,
		room_name_old, room_name_new, cabinet_name_old, cabinet_name_new,
		quantity_count_old, quantity_count_new, min_stock_count_old, min_stock_count_new,
		description, created_at`

func (r *recordRepo) Create(ctx context.Context, record *models.Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO record (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.HouseholdID,
		record.UserName,
		record.OperateType,
		record.EntityType,
		record.RecordType,
		record.ChangedFields,
		record.ItemNameOld,
		record.ItemNameNew,
		record.ItemDescriptionOld,
		record.ItemDescriptionNew,
		record.ItemPhotoOld,
		record.ItemPhotoNew,
		record.CategoryNameOld,
		record.CategoryNameNew,
		record.RoomNameOld,
		record.RoomNameNew,
		record.CabinetNameOld,
		record.CabinetNameNew,
		record.QuantityCountOld,
		record.QuantityCountNew,
		record.MinStockCountOld,
		record.MinStockCountNew,
		record.Description,
		record.CreatedAt,
	)
	return err
}

func (r *recordRepo) List(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) ([]*models.Record, error) {
	if filters == nil {
		filters = &models.RecordFilters{}
	}

	query := `SELECT ` + recordColumns + ` FROM record WHERE household_id = $1`
	where, args := buildRecordFilters(filters, []any{householdID})
	query += where
	query += ` ORDER BY created_at DESC`

	argIdx := len(args)
	if filters.Limit > 0 {
		argIdx++
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filters.Limit)
	}
	if filters.Offset > 0 {
		argIdx++
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record := &models.Record{}
		if err := rows.Scan(
			&record.ID,
			&record.HouseholdID,
			&record.UserName,
			&record.OperateType,
			&record.EntityType,
			&record.RecordType,
			&record.ChangedFields,
			&record.ItemNameOld,
			&record.ItemNameNew,
			&record.ItemDescriptionOld,
			&record.ItemDescriptionNew,
			&record.ItemPhotoOld,
			&record.ItemPhotoNew,
			&record.CategoryNameOld,
			&record.CategoryNameNew,
			&record.RoomNameOld,
			&record.RoomNameNew,
			&record.CabinetNameOld,
			&record.CabinetNameNew,
			&record.QuantityCountOld,
			&record.QuantityCountNew,
			&record.MinStockCountOld,
			&record.MinStockCountNew,
			&record.Description,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *recordRepo) Delete(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) (int64, error) {
	if filters == nil {
		filters = &models.RecordFilters{}
	}

	query := `DELETE FROM record WHERE household_id = $1`
	where, args := buildRecordFilters(filters, []any{householdID})
	query += where

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func buildRecordFilters(filters *models.RecordFilters, args []any) (string, []any) {
	query := ""
	argIdx := len(args)

	if filters.ID != nil {
		argIdx++
		query += fmt.Sprintf(" AND id = $%d", argIdx)
		args = append(args, *filters.ID)
	}
	if filters.OperateType != nil {
		argIdx++
		query += fmt.Sprintf(" AND operate_type = $%d", argIdx)
		args = append(args, *filters.OperateType)
	}
	if filters.EntityType != nil {
		argIdx++
		query += fmt.Sprintf(" AND entity_type = $%d", argIdx)
		args = append(args, *filters.EntityType)
	}
	if filters.RecordType != nil {
		argIdx++
		query += fmt.Sprintf(" AND record_type = $%d", argIdx)
		args = append(args, *filters.RecordType)
	}
	if filters.StartDate != nil {
		argIdx++
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		argIdx++
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *filters.EndDate)
	}

	return query, args
}
