package repositories

import (
	"context"
	"errors"

	"homestock/internal/common"
	"homestock/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StockRepository persists the per-location quantity rows. A NULL cabinet_id
// is the unassigned pseudo-location; `IS NOT DISTINCT FROM` keeps the lookup
// uniform for both cases.
type StockRepository interface {
	Create(ctx context.Context, entry *models.StockEntry) error
	GetForUpdate(ctx context.Context, householdID, itemID uuid.UUID, cabinetID *uuid.UUID) (*models.StockEntry, error)
	ListByItem(ctx context.Context, householdID, itemID uuid.UUID) ([]*models.StockEntry, error)
	ListItemIDsByCabinet(ctx context.Context, householdID, cabinetID uuid.UUID) ([]uuid.UUID, error)
	ListByCabinetForUpdate(ctx context.Context, householdID, cabinetID uuid.UUID) ([]*models.StockEntry, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByItem(ctx context.Context, householdID, itemID uuid.UUID) error
	SumByItem(ctx context.Context, householdID, itemID uuid.UUID) (int, error)
}

type stockRepo struct {
	db Querier
}

func NewStockRepo(db Querier) StockRepository {
	return &stockRepo{db: db}
}

const stockColumns = `id, household_id, item_id, cabinet_id, quantity, created_at, updated_at`

func (r *stockRepo) Create(ctx context.Context, entry *models.StockEntry) error {
	query := `
		INSERT INTO item_cabinet_quantity (id, household_id, item_id, cabinet_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, entry.ID, entry.HouseholdID, entry.ItemID, entry.CabinetID, entry.Quantity)
	return err
}

func (r *stockRepo) GetForUpdate(ctx context.Context, householdID, itemID uuid.UUID, cabinetID *uuid.UUID) (*models.StockEntry, error) {
	entry := &models.StockEntry{}
	query := `SELECT ` + stockColumns + ` FROM item_cabinet_quantity
		WHERE household_id = $1 AND item_id = $2 AND cabinet_id IS NOT DISTINCT FROM $3
		FOR UPDATE`
	err := r.db.QueryRow(ctx, query, householdID, itemID, cabinetID).Scan(&entry.ID, &entry.HouseholdID,
		&entry.ItemID, &entry.CabinetID, &entry.Quantity, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *stockRepo) ListByItem(ctx context.Context, householdID, itemID uuid.UUID) ([]*models.StockEntry, error) {
	query := `SELECT ` + stockColumns + ` FROM item_cabinet_quantity
		WHERE household_id = $1 AND item_id = $2
		ORDER BY cabinet_id ASC NULLS FIRST`
	return r.list(ctx, query, householdID, itemID)
}

// ListItemIDsByCabinet reports which items hold stock in the cabinet, in
// ascending id order. Takes no locks; callers lock the item rows next and
// re-read the stock rows under those locks.
func (r *stockRepo) ListItemIDsByCabinet(ctx context.Context, householdID, cabinetID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT item_id FROM item_cabinet_quantity
		WHERE household_id = $1 AND cabinet_id = $2
		ORDER BY item_id ASC`
	rows, err := r.db.Query(ctx, query, householdID, cabinetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByCabinetForUpdate locks every stock row in the cabinet, ordered by
// item id so two concurrent releases acquire locks in the same sequence.
func (r *stockRepo) ListByCabinetForUpdate(ctx context.Context, householdID, cabinetID uuid.UUID) ([]*models.StockEntry, error) {
	query := `SELECT ` + stockColumns + ` FROM item_cabinet_quantity
		WHERE household_id = $1 AND cabinet_id = $2
		ORDER BY item_id ASC
		FOR UPDATE`
	return r.list(ctx, query, householdID, cabinetID)
}

func (r *stockRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `UPDATE item_cabinet_quantity SET quantity = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, quantity, id)
	return err
}

func (r *stockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM item_cabinet_quantity WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *stockRepo) DeleteByItem(ctx context.Context, householdID, itemID uuid.UUID) error {
	query := `DELETE FROM item_cabinet_quantity WHERE household_id = $1 AND item_id = $2`
	_, err := r.db.Exec(ctx, query, householdID, itemID)
	return err
}

func (r *stockRepo) SumByItem(ctx context.Context, householdID, itemID uuid.UUID) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM item_cabinet_quantity WHERE household_id = $1 AND item_id = $2`
	err := r.db.QueryRow(ctx, query, householdID, itemID).Scan(&total)
	return total, err
}

func (r *stockRepo) list(ctx context.Context, query string, args ...any) ([]*models.StockEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.StockEntry
	for rows.Next() {
		entry := &models.StockEntry{}
		if err := rows.Scan(&entry.ID, &entry.HouseholdID, &entry.ItemID, &entry.CabinetID,
			&entry.Quantity, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
