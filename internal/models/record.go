package models

import (
	"time"

	"github.com/google/uuid"
)

// Operation classification for records.
const (
	OperateCreate int16 = 0
	OperateModify int16 = 1
	OperateDelete int16 = 2
)

// Entity classification for records.
const (
	EntityCabinet  int16 = 0
	EntityItem     int16 = 1
	EntityCategory int16 = 2
)

// Record severity.
const (
	RecordNormal  int16 = 0
	RecordWarning int16 = 1
)

// Changed-field tags stored on modify records. The set is open ended; values
// already written must never be renumbered.
const (
	FieldName          int16 = 0
	FieldDescription   int16 = 1
	FieldMove          int16 = 2
	FieldQuantity      int16 = 3
	FieldPhoto         int16 = 4
	FieldMinStockAlert int16 = 5
	FieldCategory      int16 = 6
)

// Record is an immutable audit entry: one per successful mutation, written in
// the same transaction. Old/new columns are populated only for the fields
// that actually changed, resolved to display values so the history renders
// without re-deriving anything from entity state.
type Record struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	HouseholdID        uuid.UUID  `json:"household_id" db:"household_id"`
	UserName           string     `json:"user_name" db:"user_name"`
	OperateType        int16      `json:"operate_type" db:"operate_type"`
	EntityType         int16      `json:"entity_type" db:"entity_type"`
	RecordType         int16      `json:"record_type" db:"record_type"`
	ChangedFields      []int16    `json:"changed_fields" db:"changed_fields"`
	ItemNameOld        *string    `json:"item_name_old" db:"item_name_old"`
	ItemNameNew        *string    `json:"item_name_new" db:"item_name_new"`
	ItemDescriptionOld *string    `json:"item_description_old" db:"item_description_old"`
	ItemDescriptionNew *string    `json:"item_description_new" db:"item_description_new"`
	ItemPhotoOld       *string    `json:"item_photo_old" db:"item_photo_old"`
	ItemPhotoNew       *string    `json:"item_photo_new" db:"item_photo_new"`
	CategoryNameOld    *string    `json:"category_name_old" db:"category_name_old"`
	CategoryNameNew    *string    `json:"category_name_new" db:"category_name_new"`
	RoomNameOld        *string    `json:"room_name_old" db:"room_name_old"`
	RoomNameNew        *string    `json:"room_name_new" db:"room_name_new"`
	CabinetNameOld     *string    `json:"cabinet_name_old" db:"cabinet_name_old"`
	CabinetNameNew     *string    `json:"cabinet_name_new" db:"cabinet_name_new"`
	QuantityCountOld   *int       `json:"quantity_count_old" db:"quantity_count_old"`
	QuantityCountNew   *int       `json:"quantity_count_new" db:"quantity_count_new"`
	MinStockCountOld   *int       `json:"min_stock_count_old" db:"min_stock_count_old"`
	MinStockCountNew   *int       `json:"min_stock_count_new" db:"min_stock_count_new"`
	Description        *string    `json:"description" db:"description"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// RecordFilters represents filters for querying records
type RecordFilters struct {
	ID          *uuid.UUID `json:"id"`
	OperateType *int16     `json:"operate_type"`
	EntityType  *int16     `json:"entity_type"`
	RecordType  *int16     `json:"record_type"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
}
