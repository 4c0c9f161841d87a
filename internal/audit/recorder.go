package audit

import (
	"context"
	"fmt"

	"homestock/internal/common"
	"homestock/internal/models"
	"homestock/internal/repositories"

	"github.com/google/uuid"
)

// Recorder writes audit records through whatever querier it is bound to.
// Orchestrators bind it to their transaction so the record commits or rolls
// back together with the mutation it describes; a persistence failure here
// fails the whole mutation.
type Recorder struct {
	records repositories.RecordRepository
}

func NewRecorder(db repositories.Querier) *Recorder {
	return &Recorder{records: repositories.NewRecordRepo(db)}
}

func (rec *Recorder) create(ctx context.Context, r *models.Record) (*models.Record, error) {
	if err := rec.records.Create(ctx, r); err != nil {
		return nil, common.WrapPersistence("record create", err)
	}
	return r, nil
}

// ItemCreated captures the initial state of a new item: new-side columns
// only, old sides stay empty.
func (rec *Recorder) ItemCreated(ctx context.Context, householdID uuid.UUID, userName string, s *ItemSnapshot) (*models.Record, error) {
	return rec.create(ctx, &models.Record{
		HouseholdID:      householdID,
		UserName:         userName,
		OperateType:      models.OperateCreate,
		EntityType:       models.EntityItem,
		RecordType:       models.RecordNormal,
		ItemNameNew:      &s.Name,
		CabinetNameNew:   s.CabinetName,
		CategoryNameNew:  s.CategoryName,
		QuantityCountNew: &s.Quantity,
		MinStockCountNew: &s.MinStockAlert,
	})
}

// ItemModified writes one modify record for a non-empty diff. An empty diff
// is a no-op by policy: an update request that changed nothing leaves no
// trace, matching the has-changes guard the read side expects.
func (rec *Recorder) ItemModified(ctx context.Context, householdID uuid.UUID, userName string, d Diff) (*models.Record, error) {
	if d.Empty() {
		return nil, nil
	}
	op, fields := Classify(d, false, false)
	r := &models.Record{
		HouseholdID:   householdID,
		UserName:      userName,
		OperateType:   op,
		EntityType:    models.EntityItem,
		RecordType:    models.RecordNormal,
		ChangedFields: fields,
	}
	d.applyTo(r)
	return rec.create(ctx, r)
}

func (rec *Recorder) ItemDeleted(ctx context.Context, householdID uuid.UUID, userName, itemName string) (*models.Record, error) {
	return rec.create(ctx, &models.Record{
		HouseholdID: householdID,
		UserName:    userName,
		OperateType: models.OperateDelete,
		EntityType:  models.EntityItem,
		RecordType:  models.RecordNormal,
		ItemNameOld: &itemName,
	})
}

// StockAdjusted records a restock or consumption at one location: the item's
// total before and after, and where it happened.
func (rec *Recorder) StockAdjusted(ctx context.Context, householdID uuid.UUID, userName, itemName string, cabinetName *string, oldTotal, newTotal int) (*models.Record, error) {
	desc := itemName
	return rec.create(ctx, &models.Record{
		HouseholdID:      householdID,
		UserName:         userName,
		OperateType:      models.OperateModify,
		EntityType:       models.EntityItem,
		RecordType:       models.RecordNormal,
		ChangedFields:    []int16{models.FieldQuantity},
		CabinetNameNew:   cabinetName,
		QuantityCountOld: &oldTotal,
		QuantityCountNew: &newTotal,
		Description:      &desc,
	})
}

// StockMoved records a transfer of amount units between two locations. The
// item's total does not change, so the quantity columns carry the moved
// amount and the cabinet columns the endpoints.
func (rec *Recorder) StockMoved(ctx context.Context, householdID uuid.UUID, userName, itemName string, fromCabinet, toCabinet *string, amount int) (*models.Record, error) {
	desc := itemName
	return rec.create(ctx, &models.Record{
		HouseholdID:      householdID,
		UserName:         userName,
		OperateType:      models.OperateModify,
		EntityType:       models.EntityItem,
		RecordType:       models.RecordNormal,
		ChangedFields:    []int16{models.FieldMove, models.FieldQuantity},
		CabinetNameOld:   fromCabinet,
		CabinetNameNew:   toCabinet,
		QuantityCountNew: &amount,
		Description:      &desc,
	})
}

// LowStockWarning is the warning-severity record written when a mutation
// leaves an item at or below its alert threshold.
func (rec *Recorder) LowStockWarning(ctx context.Context, householdID uuid.UUID, userName, itemName string, quantity, threshold int) (*models.Record, error) {
	desc := fmt.Sprintf("%s is low on stock: %d left (alert at %d)", itemName, quantity, threshold)
	return rec.create(ctx, &models.Record{
		HouseholdID:      householdID,
		UserName:         userName,
		OperateType:      models.OperateModify,
		EntityType:       models.EntityItem,
		RecordType:       models.RecordWarning,
		ChangedFields:    []int16{models.FieldQuantity},
		ItemNameNew:      &itemName,
		QuantityCountNew: &quantity,
		MinStockCountNew: &threshold,
		Description:      &desc,
	})
}

func (rec *Recorder) CabinetCreated(ctx context.Context, householdID uuid.UUID, userName string, s *CabinetSnapshot) (*models.Record, error) {
	return rec.create(ctx, &models.Record{
		HouseholdID:    householdID,
		UserName:       userName,
		OperateType:    models.OperateCreate,
		EntityType:     models.EntityCabinet,
		RecordType:     models.RecordNormal,
		CabinetNameNew: &s.Name,
		RoomNameNew:    s.RoomName,
	})
}

func (rec *Recorder) CabinetModified(ctx context.Context, householdID uuid.UUID, userName string, d Diff) (*models.Record, error) {
	if d.Empty() {
		return nil, nil
	}
	op, fields := Classify(d, false, false)
	r := &models.Record{
		HouseholdID:   householdID,
		UserName:      userName,
		OperateType:   op,
		EntityType:    models.EntityCabinet,
		RecordType:    models.RecordNormal,
		ChangedFields: fields,
	}
	d.applyTo(r)
	return rec.create(ctx, r)
}

func (rec *Recorder) CabinetDeleted(ctx context.Context, householdID uuid.UUID, userName string, s *CabinetSnapshot) (*models.Record, error) {
	return rec.create(ctx, &models.Record{
		HouseholdID:    householdID,
		UserName:       userName,
		OperateType:    models.OperateDelete,
		EntityType:     models.EntityCabinet,
		RecordType:     models.RecordNormal,
		CabinetNameOld: &s.Name,
		RoomNameOld:    s.RoomName,
	})
}

func (rec *Recorder) CategoryCreated(ctx context.Context, householdID uuid.UUID, userName, path string) (*models.Record, error) {
	return rec.create(ctx, &models.Record{
		HouseholdID:     householdID,
		UserName:        userName,
		OperateType:     models.OperateCreate,
		EntityType:      models.EntityCategory,
		RecordType:      models.RecordNormal,
		CategoryNameNew: &path,
	})
}

func (rec *Recorder) CategoryModified(ctx context.Context, householdID uuid.UUID, userName string, d Diff) (*models.Record, error) {
	if d.Empty() {
		return nil, nil
	}
	op, fields := Classify(d, false, false)
	r := &models.Record{
		HouseholdID:   householdID,
		UserName:      userName,
		OperateType:   op,
		EntityType:    models.EntityCategory,
		RecordType:    models.RecordNormal,
		ChangedFields: fields,
	}
	d.applyTo(r)
	return rec.create(ctx, r)
}

func (rec *Recorder) CategoryDeleted(ctx context.Context, householdID uuid.UUID, userName, name string) (*models.Record, error) {
	return rec.create(ctx, &models.Record{
		HouseholdID:     householdID,
		UserName:        userName,
		OperateType:     models.OperateDelete,
		EntityType:      models.EntityCategory,
		RecordType:      models.RecordNormal,
		CategoryNameOld: &name,
	})
}
