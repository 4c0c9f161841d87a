package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"homestock/internal/audit"
	"homestock/internal/caching"
	"homestock/internal/common"
	"homestock/internal/models"
	"homestock/internal/repositories"

	"github.com/google/uuid"
)

const categoryTreeCacheTTL = 10 * time.Minute

type CategoryService interface {
	Create(ctx context.Context, householdID uuid.UUID, name string, parentID *uuid.UUID) (*models.Category, error)
	Rename(ctx context.Context, householdID, id uuid.UUID, name string) (*models.Category, error)
	Move(ctx context.Context, householdID, id uuid.UUID, newParentID *uuid.UUID) (*models.Category, error)
	Delete(ctx context.Context, householdID, id uuid.UUID) error
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Category, error)
	GetTree(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error)
}

type categoryService struct {
	db           repositories.DB
	cacheService caching.CacheService
}

func NewCategoryService(db repositories.DB, cacheService caching.CacheService) CategoryService {
	return &categoryService{db: db, cacheService: cacheService}
}

// forest is the in-memory view of one household's category rows, built after
// the rows are locked so structural checks and the mutation see the same tree.
type forest struct {
	byID     map[uuid.UUID]*models.Category
	children map[uuid.UUID][]*models.Category
	roots    []*models.Category
}

func buildForest(categories []*models.Category) *forest {
	f := &forest{
		byID:     make(map[uuid.UUID]*models.Category, len(categories)),
		children: make(map[uuid.UUID][]*models.Category),
	}
	for _, c := range categories {
		f.byID[c.ID] = c
	}
	for _, c := range categories {
		if c.ParentID == nil {
			f.roots = append(f.roots, c)
		} else {
			f.children[*c.ParentID] = append(f.children[*c.ParentID], c)
		}
	}
	return f
}

// path renders the chain of names from the root down to the node, joined
// with ";". This is the display form audit records carry.
func (f *forest) path(id uuid.UUID) string {
	var names []string
	for cur, ok := f.byID[id]; ok; cur, ok = f.byID[id] {
		names = append([]string{cur.Name}, names...)
		if cur.ParentID == nil {
			break
		}
		id = *cur.ParentID
	}
	return strings.Join(names, ";")
}

// subtree collects the node and all descendants, parents before children.
func (f *forest) subtree(id uuid.UUID) []*models.Category {
	root, ok := f.byID[id]
	if !ok {
		return nil
	}
	out := []*models.Category{root}
	for i := 0; i < len(out); i++ {
		out = append(out, f.children[out[i].ID]...)
	}
	return out
}

// depthBelow is the height of the subtree rooted at id, counting id itself.
func (f *forest) depthBelow(id uuid.UUID) int {
	max := 1
	for _, child := range f.children[id] {
		if d := 1 + f.depthBelow(child.ID); d > max {
			max = d
		}
	}
	return max
}

func (f *forest) siblingNameTaken(parentID *uuid.UUID, name string, exclude uuid.UUID) bool {
	siblings := f.roots
	if parentID != nil {
		siblings = f.children[*parentID]
	}
	for _, s := range siblings {
		if s.ID != exclude && s.Name == name {
			return true
		}
	}
	return false
}

// hasAncestor walks upward from startID and reports whether target appears
// on the way to the root.
func (f *forest) hasAncestor(startID, target uuid.UUID) bool {
	cur, ok := f.byID[startID]
	for ok {
		if cur.ID == target {
			return true
		}
		if cur.ParentID == nil {
			return false
		}
		cur, ok = f.byID[*cur.ParentID]
	}
	return false
}

// lockForest takes the household-wide category lock and returns the tree as
// it exists under that lock. Every structural mutation starts here, which
// serializes concurrent tree edits per household.
func lockForest(ctx context.Context, q repositories.Querier, householdID uuid.UUID) (*forest, error) {
	categories, err := repositories.NewCategoryRepo(q).ListByHouseholdForUpdate(ctx, householdID)
	if err != nil {
		return nil, common.WrapPersistence("category lock", err)
	}
	return buildForest(categories), nil
}

func (s *categoryService) Create(ctx context.Context, householdID uuid.UUID, name string, parentID *uuid.UUID) (*models.Category, error) {
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return nil, err
	}
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	f, err := lockForest(ctx, tx, householdID)
	if err != nil {
		return nil, err
	}

	level := 1
	if parentID != nil {
		parent, ok := f.byID[*parentID]
		if !ok {
			return nil, common.ErrNotFound
		}
		level = parent.Level + 1
	}
	if level > models.MaxCategoryLevel {
		return nil, common.ErrInvalidDepth
	}
	if f.siblingNameTaken(parentID, name, uuid.Nil) {
		return nil, common.ErrInvalidArgument
	}

	category := &models.Category{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Name:        name,
		ParentID:    parentID,
		Level:       level,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repositories.NewCategoryRepo(tx).Create(ctx, category); err != nil {
		return nil, common.WrapPersistence("category create", err)
	}

	f.byID[category.ID] = category
	path := f.path(category.ID)
	if _, err := audit.NewRecorder(tx).CategoryCreated(ctx, householdID, userName, path); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	s.invalidateTree(ctx, householdID)
	return category, nil
}

func (s *categoryService) Rename(ctx context.Context, householdID, id uuid.UUID, name string) (*models.Category, error) {
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return nil, err
	}
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	f, err := lockForest(ctx, tx, householdID)
	if err != nil {
		return nil, err
	}
	category, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if f.siblingNameTaken(category.ParentID, name, id) {
		return nil, common.ErrInvalidArgument
	}

	oldPath := f.path(id)
	category.Name = name
	category.UpdatedAt = time.Now()
	if err := repositories.NewCategoryRepo(tx).Update(ctx, category); err != nil {
		return nil, common.WrapPersistence("category rename", err)
	}

	d := audit.CompareCategories(&audit.CategorySnapshot{Path: oldPath}, &audit.CategorySnapshot{Path: f.path(id)})
	if _, err := audit.NewRecorder(tx).CategoryModified(ctx, householdID, userName, d); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	s.invalidateTree(ctx, householdID)
	return category, nil
}

func (s *categoryService) Move(ctx context.Context, householdID, id uuid.UUID, newParentID *uuid.UUID) (*models.Category, error) {
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	f, err := lockForest(ctx, tx, householdID)
	if err != nil {
		return nil, err
	}
	category, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}

	newLevel := 1
	if newParentID != nil {
		parent, ok := f.byID[*newParentID]
		if !ok {
			return nil, common.ErrNotFound
		}
		// Reparenting under the node itself or any of its descendants
		// would detach the subtree into a cycle.
		if f.hasAncestor(parent.ID, id) {
			return nil, common.ErrCycleDetected
		}
		newLevel = parent.Level + 1
	}
	// The deepest leaf of the moved subtree must still fit in the tree.
	if newLevel+f.depthBelow(id)-1 > models.MaxCategoryLevel {
		return nil, common.ErrInvalidDepth
	}
	if f.siblingNameTaken(newParentID, category.Name, id) {
		return nil, common.ErrInvalidArgument
	}

	oldPath := f.path(id)
	category.ParentID = newParentID
	category.Level = newLevel
	category.UpdatedAt = time.Now()

	repo := repositories.NewCategoryRepo(tx)
	if err := repo.Update(ctx, category); err != nil {
		return nil, common.WrapPersistence("category move", err)
	}
	// Re-level the descendants against the node's new level.
	for _, node := range f.subtree(id) {
		if node.ID == id {
			continue
		}
		parent := f.byID[*node.ParentID]
		node.Level = parent.Level + 1
		if err := repo.UpdateLevel(ctx, householdID, node.ID, node.Level); err != nil {
			return nil, common.WrapPersistence("category move", err)
		}
	}

	d := audit.CompareCategories(&audit.CategorySnapshot{Path: oldPath}, &audit.CategorySnapshot{Path: f.path(id)})
	if _, err := audit.NewRecorder(tx).CategoryModified(ctx, householdID, userName, d); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapPersistence("commit", err)
	}
	s.invalidateTree(ctx, householdID)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	userName := common.GetUserNameFromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return common.WrapPersistence("begin", err)
	}
	defer tx.Rollback(ctx)

	f, err := lockForest(ctx, tx, householdID)
	if err != nil {
		return err
	}
	category, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}

	nodes := f.subtree(id)
	ids := make([]uuid.UUID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	// Items referencing any node of the subtree survive with the reference
	// cleared; only the categories and their join rows go.
	if err := repositories.NewItemRepo(tx).ClearCategory(ctx, householdID, ids); err != nil {
		return common.WrapPersistence("category delete", err)
	}
	if err := repositories.NewItemCategoryRepo(tx).DeleteByCategories(ctx, ids); err != nil {
		return common.WrapPersistence("category delete", err)
	}
	if err := repositories.NewCategoryRepo(tx).Delete(ctx, householdID, ids); err != nil {
		return common.WrapPersistence("category delete", err)
	}

	if _, err := audit.NewRecorder(tx).CategoryDeleted(ctx, householdID, userName, category.Name); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return common.WrapPersistence("commit", err)
	}
	// The cascade cleared category references on items, so cached item
	// copies are stale too; flush everything the household has cached.
	if s.cacheService != nil {
		if err := s.cacheService.InvalidateHouseholdCache(ctx, householdID); err != nil {
			log.Printf("WARN: failed to invalidate household cache %s: %v", householdID.String(), err)
		}
	}
	return nil
}

func (s *categoryService) GetByID(ctx context.Context, householdID, id uuid.UUID) (*models.Category, error) {
	category, err := repositories.NewCategoryRepo(s.db).GetByID(ctx, householdID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, common.WrapPersistence("category get", err)
	}
	return category, nil
}

// GetTree returns the household's categories as nested roots, served from
// cache when warm.
func (s *categoryService) GetTree(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error) {
	if s.cacheService != nil {
		if tree, err := s.cacheService.GetCategoryTree(ctx, householdID); err == nil && tree != nil {
			return tree, nil
		}
	}

	categories, err := repositories.NewCategoryRepo(s.db).ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, common.WrapPersistence("category tree", err)
	}
	f := buildForest(categories)
	for _, c := range categories {
		c.Subcategories = f.children[c.ID]
	}
	if s.cacheService != nil {
		if err := s.cacheService.SetCategoryTree(ctx, householdID, f.roots, categoryTreeCacheTTL); err != nil {
			log.Printf("WARN: failed to cache category tree for household %s: %v", householdID, err)
		}
	}
	return f.roots, nil
}

func (s *categoryService) invalidateTree(ctx context.Context, householdID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeleteCategoryTree(ctx, householdID); err != nil {
		log.Printf("WARN: failed to invalidate category tree for household %s: %v", householdID, err)
	}
}
