package services

import (
	"context"

	"homestock/internal/common"
	"homestock/internal/models"
	"homestock/internal/repositories"

	"github.com/google/uuid"
)

// RecordService is the read and retention surface of the audit trail.
// Records are only ever written by the mutation paths, inside their
// transactions; nothing here creates or edits one.
type RecordService interface {
	List(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) ([]*models.Record, error)
	Prune(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) (int64, error)
}

type recordService struct {
	db repositories.DB
}

func NewRecordService(db repositories.DB) RecordService {
	return &recordService{db: db}
}

func validateRecordFilters(filters *models.RecordFilters) (*models.RecordFilters, error) {
	if filters == nil {
		filters = &models.RecordFilters{}
	}
	if filters.OperateType != nil {
		if t := *filters.OperateType; t < models.OperateCreate || t > models.OperateDelete {
			return nil, common.ErrInvalidArgument
		}
	}
	if filters.EntityType != nil {
		if t := *filters.EntityType; t < models.EntityCabinet || t > models.EntityCategory {
			return nil, common.ErrInvalidArgument
		}
	}
	if filters.RecordType != nil {
		if t := *filters.RecordType; t != models.RecordNormal && t != models.RecordWarning {
			return nil, common.ErrInvalidArgument
		}
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, common.ErrInvalidArgument
	}
	filters.Limit, filters.Offset = common.ValidatePaginationParams(filters.Limit, filters.Offset)
	return filters, nil
}

func (s *recordService) List(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) ([]*models.Record, error) {
	filters, err := validateRecordFilters(filters)
	if err != nil {
		return nil, err
	}
	records, err := repositories.NewRecordRepo(s.db).List(ctx, householdID, filters)
	if err != nil {
		return nil, common.WrapPersistence("record list", err)
	}
	return records, nil
}

// Prune deletes the records the filters select and reports how many went.
// Retention is the household's call; the engine itself never expires records.
func (s *recordService) Prune(ctx context.Context, householdID uuid.UUID, filters *models.RecordFilters) (int64, error) {
	filters, err := validateRecordFilters(filters)
	if err != nil {
		return 0, err
	}
	deleted, err := repositories.NewRecordRepo(s.db).Delete(ctx, householdID, filters)
	if err != nil {
		return 0, common.WrapPersistence("record prune", err)
	}
	return deleted, nil
}
