package repositories

import (
	"context"

	"github.com/google/uuid"
)

// ItemCategoryRepository maintains the item/category join rows. They have no
// lifecycle of their own: the item and category services cascade them away.
type ItemCategoryRepository interface {
	Add(ctx context.Context, itemID, categoryID uuid.UUID) error
	DeleteByItem(ctx context.Context, itemID uuid.UUID) error
	DeleteByCategories(ctx context.Context, categoryIDs []uuid.UUID) error
}

type itemCategoryRepo struct {
	db Querier
}

func NewItemCategoryRepo(db Querier) ItemCategoryRepository {
	return &itemCategoryRepo{db: db}
}

func (r *itemCategoryRepo) Add(ctx context.Context, itemID, categoryID uuid.UUID) error {
	query := `
		INSERT INTO item_category (item_id, category_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (item_id, category_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, itemID, categoryID)
	return err
}

func (r *itemCategoryRepo) DeleteByItem(ctx context.Context, itemID uuid.UUID) error {
	query := `DELETE FROM item_category WHERE item_id = $1`
	_, err := r.db.Exec(ctx, query, itemID)
	return err
}

func (r *itemCategoryRepo) DeleteByCategories(ctx context.Context, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	query := `DELETE FROM item_category WHERE category_id = ANY($1)`
	_, err := r.db.Exec(ctx, query, categoryIDs)
	return err
}
