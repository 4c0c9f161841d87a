package repositories

import (
	"context"
	"errors"

	"homestock/internal/common"
	"homestock/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	UpdateLevel(ctx context.Context, householdID, id uuid.UUID, level int) error
	Delete(ctx context.Context, householdID uuid.UUID, ids []uuid.UUID) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error)
	ListByHouseholdForUpdate(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error)
}

type categoryRepo struct {
	db Querier
}

func NewCategoryRepo(db Querier) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO category (id, household_id, name, parent_id, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, category.ID, category.HouseholdID, category.Name,
		category.ParentID, category.Level)
	return err
}

func (r *categoryRepo) GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Category, error) {
	category := &models.Category{}
	query := `
		SELECT id, household_id, name, parent_id, level, created_at, updated_at
		FROM category
		WHERE household_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, householdID, id).Scan(&category.ID, &category.HouseholdID,
		&category.Name, &category.ParentID, &category.Level, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return category, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE category
		SET name = $1, parent_id = $2, level = $3, updated_at = NOW()
		WHERE household_id = $4 AND id = $5
	`
	_, err := r.db.Exec(ctx, query, category.Name, category.ParentID, category.Level,
		category.HouseholdID, category.ID)
	return err
}

func (r *categoryRepo) UpdateLevel(ctx context.Context, householdID, id uuid.UUID, level int) error {
	query := `UPDATE category SET level = $1, updated_at = NOW() WHERE household_id = $2 AND id = $3`
	_, err := r.db.Exec(ctx, query, level, householdID, id)
	return err
}

func (r *categoryRepo) Delete(ctx context.Context, householdID uuid.UUID, ids []uuid.UUID) error {
	query := `DELETE FROM category WHERE household_id = $1 AND id = ANY($2)`
	_, err := r.db.Exec(ctx, query, householdID, ids)
	return err
}

func (r *categoryRepo) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error) {
	query := `
		SELECT id, household_id, name, parent_id, level, created_at, updated_at
		FROM category
		WHERE household_id = $1
		ORDER BY level ASC, name ASC
	`
	return r.list(ctx, query, householdID)
}

// ListByHouseholdForUpdate locks every category row of the household for the
// duration of the transaction. Tree mutations that walk a subtree take this
// lock so no concurrent writer can reparent a node mid-walk; ordering by id
// keeps lock acquisition deterministic across writers.
func (r *categoryRepo) ListByHouseholdForUpdate(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error) {
	query := `
		SELECT id, household_id, name, parent_id, level, created_at, updated_at
		FROM category
		WHERE household_id = $1
		ORDER BY id ASC
		FOR UPDATE
	`
	return r.list(ctx, query, householdID)
}

func (r *categoryRepo) list(ctx context.Context, query string, args ...any) ([]*models.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.HouseholdID, &category.Name,
			&category.ParentID, &category.Level, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
