package repositories

import (
	"context"
	"errors"

	"homestock/internal/common"
	"homestock/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CabinetRepository interface {
	Create(ctx context.Context, cabinet *models.Cabinet) error
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Cabinet, error)
	Update(ctx context.Context, cabinet *models.Cabinet) error
	Delete(ctx context.Context, householdID, id uuid.UUID) error
	List(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*models.Cabinet, error)
	NamesByIDs(ctx context.Context, householdID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type cabinetRepo struct {
	db Querier
}

func NewCabinetRepo(db Querier) CabinetRepository {
	return &cabinetRepo{db: db}
}

func (r *cabinetRepo) Create(ctx context.Context, cabinet *models.Cabinet) error {
	query := `
		INSERT INTO cabinet (id, household_id, room_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, cabinet.ID, cabinet.HouseholdID, cabinet.RoomID, cabinet.Name)
	return err
}

func (r *cabinetRepo) GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Cabinet, error) {
	cabinet := &models.Cabinet{}
	query := `
		SELECT id, household_id, room_id, name, created_at, updated_at
		FROM cabinet
		WHERE household_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, householdID, id).Scan(&cabinet.ID, &cabinet.HouseholdID,
		&cabinet.RoomID, &cabinet.Name, &cabinet.CreatedAt, &cabinet.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return cabinet, nil
}

func (r *cabinetRepo) Update(ctx context.Context, cabinet *models.Cabinet) error {
	query := `
		UPDATE cabinet
		SET room_id = $1, name = $2, updated_at = NOW()
		WHERE household_id = $3 AND id = $4
	`
	_, err := r.db.Exec(ctx, query, cabinet.RoomID, cabinet.Name, cabinet.HouseholdID, cabinet.ID)
	return err
}

func (r *cabinetRepo) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	query := `DELETE FROM cabinet WHERE household_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, householdID, id)
	return err
}

func (r *cabinetRepo) List(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*models.Cabinet, error) {
	query := `
		SELECT id, household_id, room_id, name, created_at, updated_at
		FROM cabinet
		WHERE household_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, householdID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cabinets []*models.Cabinet
	for rows.Next() {
		cabinet := &models.Cabinet{}
		if err := rows.Scan(&cabinet.ID, &cabinet.HouseholdID, &cabinet.RoomID, &cabinet.Name,
			&cabinet.CreatedAt, &cabinet.UpdatedAt); err != nil {
			return nil, err
		}
		cabinets = append(cabinets, cabinet)
	}
	return cabinets, rows.Err()
}

func (r *cabinetRepo) NamesByIDs(ctx context.Context, householdID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `SELECT id, name FROM cabinet WHERE household_id = $1 AND id = ANY($2)`
	rows, err := r.db.Query(ctx, query, householdID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
