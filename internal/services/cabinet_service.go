package services

import (
	"context"
	"errors"
	"log"
	"time"

	"homestock/internal/audit"
	"homestock/internal/caching"
	"homestock/internal/common"
	"homestock/internal/ledger"
	"homestock/internal/models"
	"homestock/internal/repositories"

	"github.com/google/uuid"
)

const cabinetCacheTTL = 10 * time.Minute

// CabinetUpdate carries the mutable cabinet fields. Rooms live outside this
// service, so the caller passes the room's display name alongside its id;
// audit records store names, not ids.
type CabinetUpdate struct {
	Name     string
	RoomID   *uuid.UUID
	RoomName *string
}

type CabinetService interface {
	Create(ctx context.Context, householdID uuid.UUID, upd *CabinetUpdate) (*models.Cabinet, error)
	Update(ctx context.Context, householdID, id uuid.UUID, upd *CabinetUpdate, oldRoomName *string) (*models.Cabinet, error)
	Delete(ctx context.Context, householdID, id uuid.UUID, roomName *string) error
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Cabinet, error)
	List(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*models.Cabinet, error)
}

type cabinetService struct {
	db           repositories.DB
	cacheService caching.CacheService
}

func NewCabinetService(db repositories.DB, cacheService caching.CacheService) CabinetService {
	return &cabinetService{db: db, cacheService: cacheService}
}

func (s *cabinetService) Create(ctx context.Context, householdID uuid.UUID, upd *CabinetUpdate) (*models.Cabinet, error) {
	if err := common.ValidateRequiredString(upd.Name, "name"); err != nil {
		return nil, err
	}
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	cabinet := &models.Cabinet{
		ID:          uuid.New(),
		HouseholdID: householdID,
		RoomID:      upd.RoomID,
		Name:        upd.Name,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repositories.NewCabinetRepo(tx).Create(ctx, cabinet); err != nil {
		return nil, common.WrapPersistence("cabinet create", err)
	}

	snap := &audit.CabinetSnapshot{Name: cabinet.Name, RoomName: upd.RoomName}
	if _, err := audit.NewRecorder(tx).CabinetCreated(ctx, householdID, userName, snap); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	return cabinet, nil
}

func (s *cabinetService) Update(ctx context.Context, householdID, id uuid.UUID, upd *CabinetUpdate, oldRoomName *string) (*models.Cabinet, error) {
	if err := common.ValidateRequiredString(upd.Name, "name"); err != nil {
		return nil, err
	}
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	repo := repositories.NewCabinetRepo(tx)
	cabinet, err := repo.GetByID(ctx, householdID, id)
	if err != nil {
		return nil, err
	}

	before := &audit.CabinetSnapshot{Name: cabinet.Name, RoomName: oldRoomName}
	cabinet.Name = upd.Name
	cabinet.RoomID = upd.RoomID
	cabinet.UpdatedAt = time.Now()
	if err := repo.Update(ctx, cabinet); err != nil {
		return nil, common.WrapPersistence("cabinet update", err)
	}

	after := &audit.CabinetSnapshot{Name: cabinet.Name, RoomName: upd.RoomName}
	d := audit.CompareCabinets(before, after)
	if _, err := audit.NewRecorder(tx).CabinetModified(ctx, householdID, userName, d); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	s.invalidate(ctx, householdID, id)
	return cabinet, nil
}

// Delete removes the cabinet after folding its stock back into each item's
// unassigned location, so no quantity disappears with the shelf.
func (s *cabinetService) Delete(ctx context.Context, householdID, id uuid.UUID, roomName *string) error {
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	repo := repositories.NewCabinetRepo(tx)
	cabinet, err := repo.GetByID(ctx, householdID, id)
	if err != nil {
		return err
	}

	if err := ledger.New(tx).ReleaseCabinet(ctx, householdID, id); err != nil {
		return err
	}
	if err := repo.Delete(ctx, householdID, id); err != nil {
		return common.WrapPersistence("cabinet delete", err)
	}

	snap := &audit.CabinetSnapshot{Name: cabinet.Name, RoomName: roomName}
	if _, err := audit.NewRecorder(tx).CabinetDeleted(ctx, householdID, userName, snap); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return common.WrapPersistence("commit", err)
	}
	s.invalidate(ctx, householdID, id)
	return nil
}

func (s *cabinetService) GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Cabinet, error) {
	if s.cacheService != nil {
		if cached, err := s.cacheService.GetCabinet(ctx, householdID, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	cabinet, err := repositories.NewCabinetRepo(s.db).GetByID(ctx, householdID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, common.WrapPersistence("cabinet get", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.SetCabinet(ctx, householdID, cabinet, cabinetCacheTTL); err != nil {
			log.Printf("WARN: failed to cache cabinet %s: %v", id, err)
		}
	}
	return cabinet, nil
}

func (s *cabinetService) List(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*models.Cabinet, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	cabinets, err := repositories.NewCabinetRepo(s.db).List(ctx, householdID, limit, offset)
	if err != nil {
		return nil, common.WrapPersistence("cabinet list", err)
	}
	return cabinets, nil
}

func (s *cabinetService) invalidate(ctx context.Context, householdID, id uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeleteCabinet(ctx, householdID, id); err != nil {
		log.Printf("WARN: failed to invalidate cabinet %s: %v", id, err)
	}
}
