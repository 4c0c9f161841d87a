package models

import (
	"time"

	"github.com/google/uuid"
)

// Cabinet is a physical storage location within a household. RoomID is an
// opaque reference owned by the household service; it is stored and echoed
// back but never resolved here.
type Cabinet struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	HouseholdID uuid.UUID  `json:"household_id" db:"household_id"`
	RoomID      *uuid.UUID `json:"room_id" db:"room_id"`
	Name        string     `json:"name" db:"name"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
