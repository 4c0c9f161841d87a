package models

import (
	"time"

	"github.com/google/uuid"
)

// StockEntry maps an item to a cabinet with a non-negative quantity. A nil
// CabinetID is the "unassigned" pseudo-location: the stock exists but is not
// shelved anywhere. At most one row exists per (item, cabinet) pair, the
// unassigned slot included.
type StockEntry struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	HouseholdID uuid.UUID  `json:"household_id" db:"household_id"`
	ItemID      uuid.UUID  `json:"item_id" db:"item_id"`
	CabinetID   *uuid.UUID `json:"cabinet_id" db:"cabinet_id"`
	Quantity    int        `json:"quantity" db:"quantity"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// CabinetName is resolved on read paths for display; never persisted.
	CabinetName *string `json:"cabinet_name,omitempty" db:"-"`
}
