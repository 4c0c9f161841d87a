package repositories

import (
	"context"
	"errors"
	"fmt"

	"homestock/internal/common"
	"homestock/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Item, error)
	GetByIDForUpdate(ctx context.Context, householdID, id uuid.UUID) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	AddQuantity(ctx context.Context, householdID, id uuid.UUID, delta int) error
	Delete(ctx context.Context, householdID, id uuid.UUID) error
	List(ctx context.Context, householdID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.Item, error)
	ClearCategory(ctx context.Context, householdID uuid.UUID, categoryIDs []uuid.UUID) error
	ListLowStock(ctx context.Context, householdID uuid.UUID) ([]*models.Item, error)
	ListHouseholdIDs(ctx context.Context) ([]uuid.UUID, error)
}

type itemRepo struct {
	db Querier
}

func NewItemRepo(db Querier) ItemRepository {
	return &itemRepo{db: db}
}

const itemColumns = `id, household_id, category_id, name, description, quantity, min_stock_alert, photo, created_at, updated_at`

func (r *itemRepo) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO item (id, household_id, category_id, name, description, quantity, min_stock_alert, photo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, item.ID, item.HouseholdID, item.CategoryID, item.Name,
		item.Description, item.Quantity, item.MinStockAlert, item.Photo)
	return err
}

func (r *itemRepo) GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item WHERE household_id = $1 AND id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, householdID, id))
}

// GetByIDForUpdate locks the item row. The ledger takes this lock before
// touching any of the item's stock rows, which serializes all quantity
// mutations per item and rules out lock-order deadlocks between them.
func (r *itemRepo) GetByIDForUpdate(ctx context.Context, householdID, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item WHERE household_id = $1 AND id = $2 FOR UPDATE`
	return r.scanOne(r.db.QueryRow(ctx, query, householdID, id))
}

// Update writes item metadata. Quantity is deliberately excluded: the ledger
// owns it through AddQuantity.
func (r *itemRepo) Update(ctx context.Context, item *models.Item) error {
	query := `
		UPDATE item
		SET category_id = $1, name = $2, description = $3, min_stock_alert = $4, photo = $5, updated_at = NOW()
		WHERE household_id = $6 AND id = $7
	`
	_, err := r.db.Exec(ctx, query, item.CategoryID, item.Name, item.Description,
		item.MinStockAlert, item.Photo, item.HouseholdID, item.ID)
	return err
}

func (r *itemRepo) AddQuantity(ctx context.Context, householdID, id uuid.UUID, delta int) error {
	query := `UPDATE item SET quantity = quantity + $1, updated_at = NOW() WHERE household_id = $2 AND id = $3`
	_, err := r.db.Exec(ctx, query, delta, householdID, id)
	return err
}

func (r *itemRepo) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	query := `DELETE FROM item WHERE household_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, householdID, id)
	return err
}

func (r *itemRepo) List(ctx context.Context, householdID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.Item, error) {
	if filter == nil {
		filter = &models.ItemSearchFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `SELECT ` + itemColumns + ` FROM item WHERE household_id = $1`
	args := []any{householdID}
	argIdx := 1

	if filter.Query != "" {
		argIdx++
		query += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+filter.Query+"%")
	}

	if filter.CabinetID != nil {
		argIdx++
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM item_cabinet_quantity q
			WHERE q.item_id = item.id AND q.cabinet_id = $%d
		)`, argIdx)
		args = append(args, *filter.CabinetID)
	}

	if len(filter.CategoryIDs) > 0 {
		argIdx++
		query += fmt.Sprintf(` AND category_id = ANY($%d)`, argIdx)
		args = append(args, filter.CategoryIDs)
	}

	if filter.LowStock {
		query += ` AND min_stock_alert > 0 AND quantity <= min_stock_alert`
	}

	query += ` ORDER BY name ASC`

	argIdx++
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, filter.Limit)
	if filter.Offset > 0 {
		argIdx++
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	return r.list(ctx, query, args...)
}

// ClearCategory drops category references from items whose category is being
// deleted; the items themselves survive.
func (r *itemRepo) ClearCategory(ctx context.Context, householdID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	query := `UPDATE item SET category_id = NULL, updated_at = NOW() WHERE household_id = $1 AND category_id = ANY($2)`
	_, err := r.db.Exec(ctx, query, householdID, categoryIDs)
	return err
}

func (r *itemRepo) ListLowStock(ctx context.Context, householdID uuid.UUID) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item
		WHERE household_id = $1 AND min_stock_alert > 0 AND quantity <= min_stock_alert
		ORDER BY name ASC`
	return r.list(ctx, query, householdID)
}

func (r *itemRepo) ListHouseholdIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT household_id FROM item`)
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

func (r *itemRepo) scanOne(row interface{ Scan(dest ...any) error }) (*models.Item, error) {
	item := &models.Item{}
	err := row.Scan(&item.ID, &item.HouseholdID, &item.CategoryID, &item.Name, &item.Description,
		&item.Quantity, &item.MinStockAlert, &item.Photo, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *itemRepo) list(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(&item.ID, &item.HouseholdID, &item.CategoryID, &item.Name, &item.Description,
			&item.Quantity, &item.MinStockAlert, &item.Photo, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
