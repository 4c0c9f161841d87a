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

const itemCacheTTL = 10 * time.Minute

// ItemCreate is the full initial state of a new item. CabinetID nil places
// the opening quantity in the unassigned location.
type ItemCreate struct {
	Name          string
	Description   *string
	Photo         *string
	MinStockAlert int
	CategoryID    *uuid.UUID
	CabinetID     *uuid.UUID
	Quantity      int
}

// ItemUpdate carries the mutable metadata fields. Photo is tri-state:
// PhotoProvided false keeps the current photo, true with nil clears it,
// true with a value replaces it. Quantity is not here; stock moves through
// AdjustStock and MoveStock only.
type ItemUpdate struct {
	Name          string
	Description   *string
	MinStockAlert int
	CategoryID    *uuid.UUID
	Photo         *string
	PhotoProvided bool
}

type ItemService interface {
	Create(ctx context.Context, householdID uuid.UUID, in *ItemCreate) (*models.Item, error)
	Update(ctx context.Context, householdID, id uuid.UUID, in *ItemUpdate) (*models.Item, error)
	Delete(ctx context.Context, householdID, id uuid.UUID) error
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Item, error)
	Search(ctx context.Context, householdID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.Item, error)
	StockEntries(ctx context.Context, householdID, itemID uuid.UUID) ([]*models.StockEntry, error)

	AdjustStock(ctx context.Context, householdID, itemID uuid.UUID, cabinetID *uuid.UUID, delta int) (*models.Item, error)
	MoveStock(ctx context.Context, householdID, itemID uuid.UUID, from, to *uuid.UUID, amount int) error
}

type itemService struct {
	db           repositories.DB
	cacheService caching.CacheService
}

func NewItemService(db repositories.DB, cacheService caching.CacheService) ItemService {
	return &itemService{db: db, cacheService: cacheService}
}

// categoryPath walks parent links up to the root and renders the ";"-joined
// display path audit records use. Depth is capped by the tree, so this is at
// most a handful of lookups.
func categoryPath(ctx context.Context, q repositories.Querier, householdID uuid.UUID, id *uuid.UUID) (*string, error) {
	if id == nil {
		return nil, nil
	}
	repo := repositories.NewCategoryRepo(q)
	var names []string
	cur := *id
	for i := 0; i < models.MaxCategoryLevel; i++ {
		category, err := repo.GetByID(ctx, householdID, cur)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrNotFound
			}
			return nil, common.WrapPersistence("category path", err)
		}
		names = append([]string{category.Name}, names...)
		if category.ParentID == nil {
			break
		}
		cur = *category.ParentID
	}
	path := ""
	for i, n := range names {
		if i > 0 {
			path += ";"
		}
		path += n
	}
	return &path, nil
}

func cabinetName(ctx context.Context, q repositories.Querier, householdID uuid.UUID, id *uuid.UUID) (*string, error) {
	if id == nil {
		return nil, nil
	}
	cabinet, err := repositories.NewCabinetRepo(q).GetByID(ctx, householdID, *id)
	if err != nil {
		return nil, err
	}
	return &cabinet.Name, nil
}

func (s *itemService) Create(ctx context.Context, householdID uuid.UUID, in *ItemCreate) (*models.Item, error) {
	if err := common.ValidateRequiredString(in.Name, "name"); err != nil {
		return nil, err
	}
	if in.Quantity < 0 || in.MinStockAlert < 0 {
		return nil, common.ErrInvalidArgument
	}
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	catName, err := categoryPath(ctx, tx, householdID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	cabName, err := cabinetName(ctx, tx, householdID, in.CabinetID)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		ID:            uuid.New(),
		HouseholdID:   householdID,
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Description:   in.Description,
		Quantity:      0,
		MinStockAlert: in.MinStockAlert,
		Photo:         in.Photo,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := repositories.NewItemRepo(tx).Create(ctx, item); err != nil {
		return nil, common.WrapPersistence("item create", err)
	}
	if in.CategoryID != nil {
		if err := repositories.NewItemCategoryRepo(tx).Add(ctx, item.ID, *in.CategoryID); err != nil {
			return nil, common.WrapPersistence("item create", err)
		}
	}

	if in.Quantity > 0 {
		if _, _, err := ledger.New(tx).PlaceStock(ctx, householdID, item.ID, in.CabinetID, in.Quantity); err != nil {
			return nil, err
		}
		item.Quantity = in.Quantity
	}

	rec := audit.NewRecorder(tx)
	snap := &audit.ItemSnapshot{
		Name:          item.Name,
		Description:   item.Description,
		Photo:         item.Photo,
		Quantity:      item.Quantity,
		MinStockAlert: item.MinStockAlert,
		CabinetName:   cabName,
		CategoryName:  catName,
	}
	if _, err := rec.ItemCreated(ctx, householdID, userName, snap); err != nil {
		return nil, err
	}
	if item.MinStockAlert > 0 && item.Quantity <= item.MinStockAlert {
		if _, err := rec.LowStockWarning(ctx, householdID, userName, item.Name, item.Quantity, item.MinStockAlert); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	return item, nil
}

func (s *itemService) Update(ctx context.Context, householdID, id uuid.UUID, in *ItemUpdate) (*models.Item, error) {
	if err := common.ValidateRequiredString(in.Name, "name"); err != nil {
		return nil, err
	}
	if in.MinStockAlert < 0 {
		return nil, common.ErrInvalidArgument
	}
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	repo := repositories.NewItemRepo(tx)
	item, err := repo.GetByIDForUpdate(ctx, householdID, id)
	if err != nil {
		return nil, err
	}

	oldCatName, err := categoryPath(ctx, tx, householdID, item.CategoryID)
	if err != nil {
		return nil, err
	}
	before := &audit.ItemSnapshot{
		Name:          item.Name,
		Description:   item.Description,
		Photo:         item.Photo,
		Quantity:      item.Quantity,
		MinStockAlert: item.MinStockAlert,
		CategoryName:  oldCatName,
	}

	item.Name = in.Name
	item.Description = in.Description
	item.MinStockAlert = in.MinStockAlert
	if in.PhotoProvided {
		item.Photo = in.Photo
	}
	categoryChanged := !uuidPtrEqual(item.CategoryID, in.CategoryID)
	item.CategoryID = in.CategoryID
	item.UpdatedAt = time.Now()

	if err := repo.Update(ctx, item); err != nil {
		return nil, common.WrapPersistence("item update", err)
	}
	if categoryChanged {
		joins := repositories.NewItemCategoryRepo(tx)
		if err := joins.DeleteByItem(ctx, item.ID); err != nil {
			return nil, common.WrapPersistence("item update", err)
		}
		if in.CategoryID != nil {
			if err := joins.Add(ctx, item.ID, *in.CategoryID); err != nil {
				return nil, common.WrapPersistence("item update", err)
			}
		}
	}

	newCatName, err := categoryPath(ctx, tx, householdID, item.CategoryID)
	if err != nil {
		return nil, err
	}
	after := &audit.ItemSnapshot{
		Name:          item.Name,
		Description:   item.Description,
		Photo:         item.Photo,
		Quantity:      item.Quantity,
		MinStockAlert: item.MinStockAlert,
		CategoryName:  newCatName,
	}

	d := audit.CompareItems(before, after)
	if _, err := audit.NewRecorder(tx).ItemModified(ctx, householdID, userName, d); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	s.invalidate(ctx, householdID, id)
	return item, nil
}

func (s *itemService) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	repo := repositories.NewItemRepo(tx)
	item, err := repo.GetByIDForUpdate(ctx, householdID, id)
	if err != nil {
		return err
	}

	if err := ledger.New(tx).ReleaseItem(ctx, householdID, id); err != nil {
		return err
	}
	if err := repositories.NewItemCategoryRepo(tx).DeleteByItem(ctx, id); err != nil {
		return common.WrapPersistence("item delete", err)
	}
	if err := repo.Delete(ctx, householdID, id); err != nil {
		return common.WrapPersistence("item delete", err)
	}

	if _, err := audit.NewRecorder(tx).ItemDeleted(ctx, householdID, userName, item.Name); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return common.WrapPersistence("commit", err)
	}
	s.invalidate(ctx, householdID, id)
	return nil
}

func (s *itemService) GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Item, error) {
	if s.cacheService != nil {
		if cached, err := s.cacheService.GetItem(ctx, householdID, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	item, err := repositories.NewItemRepo(s.db).GetByID(ctx, householdID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, common.WrapPersistence("item get", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.SetItem(ctx, householdID, item, itemCacheTTL); err != nil {
			log.Printf("WARN: failed to cache item %s: %v", id, err)
		}
	}
	return item, nil
}

func (s *itemService) Search(ctx context.Context, householdID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.Item, error) {
	if filter == nil {
		filter = &models.ItemSearchFilter{}
	}
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)
	items, err := repositories.NewItemRepo(s.db).List(ctx, householdID, filter)
	if err != nil {
		return nil, common.WrapPersistence("item search", err)
	}
	return items, nil
}

// StockEntries lists the item's location rows with cabinet names resolved
// for display. The unassigned row keeps a nil name.
func (s *itemService) StockEntries(ctx context.Context, householdID, itemID uuid.UUID) ([]*models.StockEntry, error) {
	entries, err := ledger.New(s.db).Entries(ctx, householdID, itemID)
	if err != nil {
		return nil, common.WrapPersistence("stock entries", err)
	}

	var cabinetIDs []uuid.UUID
	for _, entry := range entries {
		if entry.CabinetID != nil {
			cabinetIDs = append(cabinetIDs, *entry.CabinetID)
		}
	}
	if len(cabinetIDs) == 0 {
		return entries, nil
	}
	names, err := repositories.NewCabinetRepo(s.db).NamesByIDs(ctx, householdID, cabinetIDs)
	if err != nil {
		return nil, common.WrapPersistence("stock entries", err)
	}
	for _, entry := range entries {
		if entry.CabinetID == nil {
			continue
		}
		if name, ok := names[*entry.CabinetID]; ok {
			n := name
			entry.CabinetName = &n
		}
	}
	return entries, nil
}

// AdjustStock restocks (positive delta) or consumes (negative delta) the
// item at one location, records the total change, and writes a warning
// record when a consumption leaves the total at or below the alert line.
func (s *itemService) AdjustStock(ctx context.Context, householdID, itemID uuid.UUID, cabinetID *uuid.UUID, delta int) (*models.Item, error) {
	if delta == 0 {
		return nil, common.ErrInvalidArgument
	}
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	repo := repositories.NewItemRepo(tx)
	item, err := repo.GetByIDForUpdate(ctx, householdID, itemID)
	if err != nil {
		return nil, err
	}

	oldTotal, newTotal, err := ledger.New(tx).PlaceStock(ctx, householdID, itemID, cabinetID, delta)
	if err != nil {
		return nil, err
	}
	item.Quantity = newTotal

	cabName, err := cabinetName(ctx, tx, householdID, cabinetID)
	if err != nil {
		return nil, err
	}

	rec := audit.NewRecorder(tx)
	if _, err := rec.StockAdjusted(ctx, householdID, userName, item.Name, cabName, oldTotal, newTotal); err != nil {
		return nil, err
	}
	if delta < 0 && item.MinStockAlert > 0 && newTotal <= item.MinStockAlert {
		if _, err := rec.LowStockWarning(ctx, householdID, userName, item.Name, newTotal, item.MinStockAlert); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	s.invalidate(ctx, householdID, itemID)
	return item, nil
}

// MoveStock transfers stock between two of the item's locations. The total
// is untouched, so no warning can fire here.
func (s *itemService) MoveStock(ctx context.Context, householdID, itemID uuid.UUID, from, to *uuid.UUID, amount int) error {
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	item, err := repositories.NewItemRepo(tx).GetByID(ctx, householdID, itemID)
	if err != nil {
		return err
	}

	if err := ledger.New(tx).MoveStock(ctx, householdID, itemID, from, to, amount); err != nil {
		return err
	}

	fromName, err := cabinetName(ctx, tx, householdID, from)
	if err != nil {
		return err
	}
	toName, err := cabinetName(ctx, tx, householdID, to)
	if err != nil {
		return err
	}
	if _, err := audit.NewRecorder(tx).StockMoved(ctx, householdID, userName, item.Name, fromName, toName, amount); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return common.WrapPersistence("commit", err)
	}
	s.invalidate(ctx, householdID, itemID)
	return nil
}

func (s *itemService) invalidate(ctx context.Context, householdID, id uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeleteItem(ctx, householdID, id); err != nil {
		log.Printf("WARN: failed to invalidate item %s: %v", id, err)
	}
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
