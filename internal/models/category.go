package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCategoryLevel bounds the category hierarchy depth. Level 1 is a root
// category; nodes deeper than level 3 are rejected.
const MaxCategoryLevel = 3

type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	HouseholdID uuid.UUID  `json:"household_id" db:"household_id"`
	Name        string     `json:"name" db:"name"`
	ParentID    *uuid.UUID `json:"parent_id" db:"parent_id"`
	Level       int        `json:"level" db:"level"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Subcategories []*Category `json:"subcategories,omitempty" db:"-"` // For nested responses
}
