package ledger

import (
	"bytes"
	"context"
	"errors"
	"time"

	"homestock/internal/common"
	"homestock/internal/models"
	"homestock/internal/repositories"

	"github.com/google/uuid"
)

// Ledger owns every write to per-location stock rows and to the cached
// total on the item row. Callers hand it the querier for the transaction
// they are running; nothing else in the codebase touches quantities.
type Ledger struct {
	items repositories.ItemRepository
	stock repositories.StockRepository
}

func New(db repositories.Querier) *Ledger {
	return &Ledger{
		items: repositories.NewItemRepo(db),
		stock: repositories.NewStockRepo(db),
	}
}

// PlaceStock adds delta units of the item at the given location, creating
// the location row on first use and pruning it when its quantity reaches
// zero. A delta that would take the location negative fails with
// ErrInsufficientStock and the transaction is left for the caller to roll
// back. Returns the item's cached total before and after.
func (l *Ledger) PlaceStock(ctx context.Context, householdID, itemID uuid.UUID, cabinetID *uuid.UUID, delta int) (oldTotal, newTotal int, err error) {
	// Locking the item row first serializes all stock mutations per item.
	item, err := l.items.GetByIDForUpdate(ctx, householdID, itemID)
	if err != nil {
		return 0, 0, err
	}

	entry, err := l.stock.GetForUpdate(ctx, householdID, itemID, cabinetID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return 0, 0, err
		}
		// A missing row is fine; err must not leak into the arms below,
		// none of which may run when delta is zero.
		entry, err = nil, nil
	}

	current := 0
	if entry != nil {
		current = entry.Quantity
	}
	next := current + delta
	if next < 0 {
		return 0, 0, common.ErrInsufficientStock
	}

	switch {
	case entry == nil && next > 0:
		err = l.stock.Create(ctx, &models.StockEntry{
			ID:          uuid.New(),
			HouseholdID: householdID,
			ItemID:      itemID,
			CabinetID:   cabinetID,
			Quantity:    next,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		})
	case entry != nil && next == 0:
		err = l.stock.Delete(ctx, entry.ID)
	case entry != nil:
		err = l.stock.UpdateQuantity(ctx, entry.ID, next)
	}
	if err != nil {
		return 0, 0, common.WrapPersistence("stock place", err)
	}

	if delta != 0 {
		if err := l.items.AddQuantity(ctx, householdID, itemID, delta); err != nil {
			return 0, 0, common.WrapPersistence("stock total", err)
		}
	}
	return item.Quantity, item.Quantity + delta, nil
}

// MoveStock transfers amount units of the item between two locations. The
// item's total is unchanged. Source and destination must differ and amount
// must be positive.
func (l *Ledger) MoveStock(ctx context.Context, householdID, itemID uuid.UUID, from, to *uuid.UUID, amount int) error {
	if amount <= 0 {
		return common.ErrInvalidArgument
	}
	if cabinetIDsEqual(from, to) {
		return common.ErrInvalidArgument
	}

	if _, err := l.items.GetByIDForUpdate(ctx, householdID, itemID); err != nil {
		return err
	}

	// Lock the two location rows in a fixed order so concurrent moves in
	// opposite directions cannot deadlock: nil sorts first, then by UUID.
	first, second := from, to
	if cabinetIDLess(to, from) {
		first, second = to, from
	}
	entries := map[*uuid.UUID]*models.StockEntry{}
	for _, id := range []*uuid.UUID{first, second} {
		entry, err := l.stock.GetForUpdate(ctx, householdID, itemID, id)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		entries[id] = entry
	}

	src := entries[from]
	if src == nil || src.Quantity < amount {
		return common.ErrInsufficientStock
	}

	if src.Quantity == amount {
		if err := l.stock.Delete(ctx, src.ID); err != nil {
			return common.WrapPersistence("stock move", err)
		}
	} else {
		if err := l.stock.UpdateQuantity(ctx, src.ID, src.Quantity-amount); err != nil {
			return common.WrapPersistence("stock move", err)
		}
	}

	dst := entries[to]
	if dst == nil {
		err := l.stock.Create(ctx, &models.StockEntry{
			ID:          uuid.New(),
			HouseholdID: householdID,
			ItemID:      itemID,
			CabinetID:   to,
			Quantity:    amount,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		})
		if err != nil {
			return common.WrapPersistence("stock move", err)
		}
		return nil
	}
	if err := l.stock.UpdateQuantity(ctx, dst.ID, dst.Quantity+amount); err != nil {
		return common.WrapPersistence("stock move", err)
	}
	return nil
}

// TotalQuantity sums the item's location rows. The item row caches this
// value; the sum is the authoritative figure.
func (l *Ledger) TotalQuantity(ctx context.Context, householdID, itemID uuid.UUID) (int, error) {
	return l.stock.SumByItem(ctx, householdID, itemID)
}

// ReleaseCabinet folds every stock row stored in the cabinet back into each
// item's unassigned location. Called before a cabinet is deleted so no
// quantity is lost with it. Item totals are unchanged.
func (l *Ledger) ReleaseCabinet(ctx context.Context, householdID, cabinetID uuid.UUID) error {
	// Item rows lock first, in ascending id order, same as every other stock
	// mutation. Locking stock rows before their item row would deadlock
	// against a concurrent MoveStock holding the item lock.
	itemIDs, err := l.stock.ListItemIDsByCabinet(ctx, householdID, cabinetID)
	if err != nil {
		return common.WrapPersistence("cabinet release", err)
	}
	for _, itemID := range itemIDs {
		if _, err := l.items.GetByIDForUpdate(ctx, householdID, itemID); err != nil {
			return err
		}
	}

	entries, err := l.stock.ListByCabinetForUpdate(ctx, householdID, cabinetID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		unassigned, err := l.stock.GetForUpdate(ctx, householdID, entry.ItemID, nil)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if unassigned == nil {
			err = l.stock.Create(ctx, &models.StockEntry{
				ID:          uuid.New(),
				HouseholdID: householdID,
				ItemID:      entry.ItemID,
				CabinetID:   nil,
				Quantity:    entry.Quantity,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			})
		} else {
			err = l.stock.UpdateQuantity(ctx, unassigned.ID, unassigned.Quantity+entry.Quantity)
		}
		if err != nil {
			return common.WrapPersistence("cabinet release", err)
		}
		if err := l.stock.Delete(ctx, entry.ID); err != nil {
			return common.WrapPersistence("cabinet release", err)
		}
	}
	return nil
}

// ReleaseItem drops every location row for an item. Used by item deletion.
func (l *Ledger) ReleaseItem(ctx context.Context, householdID, itemID uuid.UUID) error {
	if err := l.stock.DeleteByItem(ctx, householdID, itemID); err != nil {
		return common.WrapPersistence("item release", err)
	}
	return nil
}

// Entries lists the item's per-location rows, unassigned first.
func (l *Ledger) Entries(ctx context.Context, householdID, itemID uuid.UUID) ([]*models.StockEntry, error) {
	return l.stock.ListByItem(ctx, householdID, itemID)
}

func cabinetIDsEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cabinetIDLess(a, b *uuid.UUID) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return bytes.Compare(a[:], b[:]) < 0
}
