package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a trackable good. Quantity is a cache of the sum of the item's
// stock entries; the ledger is its only writer and keeps it in step inside
// the same transaction as any stock change.
type Item struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	HouseholdID   uuid.UUID  `json:"household_id" db:"household_id"`
	CategoryID    *uuid.UUID `json:"category_id" db:"category_id"`
	Name          string     `json:"name" db:"name"`
	Description   *string    `json:"description" db:"description"`
	Quantity      int        `json:"quantity" db:"quantity"`
	MinStockAlert int        `json:"min_stock_alert" db:"min_stock_alert"`
	Photo         *string    `json:"photo" db:"photo"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ItemCategory is the item/category join row, unique per pair. Rows only
// cascade away with either side; they have no lifecycle of their own.
type ItemCategory struct {
	ItemID     uuid.UUID `json:"item_id" db:"item_id"`
	CategoryID uuid.UUID `json:"category_id" db:"category_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ItemSearchFilter holds search and filter criteria for item queries
type ItemSearchFilter struct {
	Query       string      `json:"query,omitempty"`        // Substring match on name and description
	CabinetID   *uuid.UUID  `json:"cabinet_id,omitempty"`   // Items with stock in this cabinet
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty"` // Filter by categories
	LowStock    bool        `json:"low_stock,omitempty"`    // Only items at or below their alert threshold
	Limit       int         `json:"limit,omitempty"`        // Page size (default: 50)
	Offset      int         `json:"offset,omitempty"`       // Page offset
}
