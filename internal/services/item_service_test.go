package services

import (
	"context"
	"testing"
	"time"

	"homestock/internal/common"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ItemServiceTestSuite struct {
	suite.Suite
	mock        pgxmock.PgxPoolIface
	service     ItemService
	householdID uuid.UUID
	itemID      uuid.UUID
	cabinetID   uuid.UUID
	ctx         context.Context
}

func (suite *ItemServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.service = NewItemService(mock, nil)
	suite.householdID = uuid.New()
	suite.itemID = uuid.New()
	suite.cabinetID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *ItemServiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestItemServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceTestSuite))
}

var itemColumnNames = []string{"id", "household_id", "category_id", "name", "description",
	"quantity", "min_stock_alert", "photo", "created_at", "updated_at"}

func (suite *ItemServiceTestSuite) itemRows(name string, photo *string, quantity, minStock int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(itemColumnNames).
		AddRow(suite.itemID, suite.householdID, nil, name, nil, quantity, minStock, photo, now, now)
}

func (suite *ItemServiceTestSuite) stockRows(id uuid.UUID, cabinetID *uuid.UUID, quantity int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "household_id", "item_id", "cabinet_id", "quantity",
		"created_at", "updated_at"}).
		AddRow(id, suite.householdID, suite.itemID, cabinetID, quantity, now, now)
}

func (suite *ItemServiceTestSuite) TestCreate_WithInitialStock() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO item `).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Ledger places the opening quantity.
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", nil, 0, 0))
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WillReturnError(common.ErrNotFound)
	suite.mock.ExpectExec(`INSERT INTO item_cabinet_quantity`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`UPDATE item SET quantity = quantity \+ \$1`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO record`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()
	suite.mock.ExpectRollback()

	item, err := suite.service.Create(suite.ctx, suite.householdID, &ItemCreate{
		Name:     "Flour",
		Quantity: 5,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, item.Quantity)
}

func (suite *ItemServiceTestSuite) TestCreate_NegativeQuantityRejected() {
	_, err := suite.service.Create(suite.ctx, suite.householdID, &ItemCreate{
		Name:     "Flour",
		Quantity: -1,
	})
	assert.ErrorIs(suite.T(), err, common.ErrInvalidArgument)
}

func (suite *ItemServiceTestSuite) TestUpdate_NoChanges_NoRecord() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WithArgs(suite.householdID, suite.itemID).
		WillReturnRows(suite.itemRows("Flour", nil, 5, 2))
	suite.mock.ExpectExec(`UPDATE item\s+SET category_id = \$1`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// No record insert: nothing changed.
	suite.mock.ExpectCommit()
	suite.mock.ExpectRollback()

	_, err := suite.service.Update(suite.ctx, suite.householdID, suite.itemID, &ItemUpdate{
		Name:          "Flour",
		MinStockAlert: 2,
	})
	assert.NoError(suite.T(), err)
}

func (suite *ItemServiceTestSuite) TestUpdate_PhotoOmittedIsKept() {
	photo := "household/abc"

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", &photo, 5, 2))
	suite.mock.ExpectExec(`UPDATE item\s+SET category_id = \$1`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// Rename produced a record, but the photo columns stay untouched.
	suite.mock.ExpectExec(`INSERT INTO record`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()
	suite.mock.ExpectRollback()

	item, err := suite.service.Update(suite.ctx, suite.householdID, suite.itemID, &ItemUpdate{
		Name:          "Bread Flour",
		MinStockAlert: 2,
	})
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), item.Photo)
	assert.Equal(suite.T(), photo, *item.Photo)
}

func (suite *ItemServiceTestSuite) TestUpdate_PhotoCleared() {
	photo := "household/abc"

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", &photo, 5, 2))
	suite.mock.ExpectExec(`UPDATE item\s+SET category_id = \$1`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO record`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()
	suite.mock.ExpectRollback()

	item, err := suite.service.Update(suite.ctx, suite.householdID, suite.itemID, &ItemUpdate{
		Name:          "Flour",
		MinStockAlert: 2,
		PhotoProvided: true,
		Photo:         nil,
	})
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), item.Photo)
}

func (suite *ItemServiceTestSuite) TestDelete_CascadesStockAndJoins() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", nil, 5, 2))
	suite.mock.ExpectExec(`DELETE FROM item_cabinet_quantity WHERE household_id = \$1 AND item_id = \$2`).
		WithArgs(suite.householdID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	suite.mock.ExpectExec(`DELETE FROM item_category WHERE item_id = \$1`).
		WithArgs(suite.itemID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`DELETE FROM item WHERE household_id = \$1 AND id = \$2`).
		WithArgs(suite.householdID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`INSERT INTO record`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()
	suite.mock.ExpectRollback()

	err := suite.service.Delete(suite.ctx, suite.householdID, suite.itemID)
	assert.NoError(suite.T(), err)
}

func (suite *ItemServiceTestSuite) TestStockEntries_ResolvesCabinetNames() {
	now := time.Now()
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity\s+WHERE household_id = \$1 AND item_id = \$2\s+ORDER BY cabinet_id ASC NULLS FIRST`).
		WithArgs(suite.householdID, suite.itemID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "household_id", "item_id", "cabinet_id",
			"quantity", "created_at", "updated_at"}).
			AddRow(uuid.New(), suite.householdID, suite.itemID, nil, 2, now, now).
			AddRow(uuid.New(), suite.householdID, suite.itemID, &suite.cabinetID, 3, now, now))
	suite.mock.ExpectQuery(`SELECT id, name FROM cabinet WHERE household_id = \$1 AND id = ANY\(\$2\)`).
		WithArgs(suite.householdID, []uuid.UUID{suite.cabinetID}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(suite.cabinetID, "Pantry Shelf"))

	entries, err := suite.service.StockEntries(suite.ctx, suite.householdID, suite.itemID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), entries, 2)
	assert.Nil(suite.T(), entries[0].CabinetName)
	assert.NotNil(suite.T(), entries[1].CabinetName)
	assert.Equal(suite.T(), "Pantry Shelf", *entries[1].CabinetName)
}

func (suite *ItemServiceTestSuite) TestAdjustStock_InsufficientRollsBack() {
	entryID := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", nil, 1, 0))
	// Ledger re-takes the item lock, then finds too little at the location.
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", nil, 1, 0))
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WillReturnRows(suite.stockRows(entryID, &suite.cabinetID, 1))
	suite.mock.ExpectRollback()

	_, err := suite.service.AdjustStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, -5)
	assert.ErrorIs(suite.T(), err, common.ErrInsufficientStock)
}

func (suite *ItemServiceTestSuite) TestAdjustStock_ConsumptionWarnsAtThreshold() {
	entryID := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", nil, 5, 2))
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", nil, 5, 2))
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WillReturnRows(suite.stockRows(entryID, (*uuid.UUID)(nil), 5))
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(1, entryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE item SET quantity = quantity \+ \$1`).
		WithArgs(-4, suite.householdID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// One adjustment record, one warning record.
	suite.mock.ExpectExec(`INSERT INTO record`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO record`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()
	suite.mock.ExpectRollback()

	item, err := suite.service.AdjustStock(suite.ctx, suite.householdID, suite.itemID, nil, -4)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, item.Quantity)
}

func (suite *ItemServiceTestSuite) TestAdjustStock_ZeroDeltaRejected() {
	_, err := suite.service.AdjustStock(suite.ctx, suite.householdID, suite.itemID, nil, 0)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidArgument)
}

func (suite *ItemServiceTestSuite) TestMoveStock_WritesMoveRecord() {
	srcID := uuid.New()
	now := time.Now()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2`).
		WillReturnRows(suite.itemRows("Flour", nil, 5, 0))
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WillReturnRows(suite.itemRows("Flour", nil, 5, 0))
	// Unassigned source locks first, destination next.
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, (*uuid.UUID)(nil)).
		WillReturnRows(suite.stockRows(srcID, nil, 5))
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, &suite.cabinetID).
		WillReturnError(common.ErrNotFound)
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(3, srcID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO item_cabinet_quantity`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Destination name resolves for the record.
	suite.mock.ExpectQuery(`SELECT .+ FROM cabinet\s+WHERE household_id = \$1 AND id = \$2`).
		WithArgs(suite.householdID, suite.cabinetID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "household_id", "room_id", "name",
			"created_at", "updated_at"}).
			AddRow(suite.cabinetID, suite.householdID, nil, "Cabinet B", now, now))
	suite.mock.ExpectExec(`INSERT INTO record`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()
	suite.mock.ExpectRollback()

	err := suite.service.MoveStock(suite.ctx, suite.householdID, suite.itemID, nil, &suite.cabinetID, 2)
	assert.NoError(suite.T(), err)
}

func (suite *ItemServiceTestSuite) TestMoveStock_SameLocationRejected() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2`).
		WillReturnRows(suite.itemRows("Flour", nil, 5, 0))
	suite.mock.ExpectRollback()

	err := suite.service.MoveStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, &suite.cabinetID, 2)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidArgument)
}
