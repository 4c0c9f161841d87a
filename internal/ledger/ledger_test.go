package ledger

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

type LedgerTestSuite struct {
	suite.Suite
	mock        pgxmock.PgxPoolIface
	ledger      *Ledger
	householdID uuid.UUID
	itemID      uuid.UUID
	cabinetID   uuid.UUID
	ctx         context.Context
}

func (suite *LedgerTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.ledger = New(mock)
	suite.householdID = uuid.New()
	suite.itemID = uuid.New()
	suite.cabinetID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *LedgerTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) itemRow(quantity int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "household_id", "category_id", "name", "description",
		"quantity", "min_stock_alert", "photo", "created_at", "updated_at"}).
		AddRow(suite.itemID, suite.householdID, nil, "Flour", nil, quantity, 2, nil, now, now)
}

func (suite *LedgerTestSuite) stockRow(id uuid.UUID, cabinetID *uuid.UUID, quantity int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "household_id", "item_id", "cabinet_id", "quantity",
		"created_at", "updated_at"}).
		AddRow(id, suite.householdID, suite.itemID, cabinetID, quantity, now, now)
}

func (suite *LedgerTestSuite) expectItemLock(quantity int) {
	suite.mock.ExpectQuery(`SELECT .+ FROM item WHERE household_id = \$1 AND id = \$2 FOR UPDATE`).
		WithArgs(suite.householdID, suite.itemID).
		WillReturnRows(suite.itemRow(quantity))
}

func (suite *LedgerTestSuite) TestPlaceStock_NewLocation() {
	suite.expectItemLock(0)
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity\s+WHERE household_id = \$1 AND item_id = \$2 AND cabinet_id IS NOT DISTINCT FROM \$3\s+FOR UPDATE`).
		WithArgs(suite.householdID, suite.itemID, &suite.cabinetID).
		WillReturnError(common.ErrNotFound)
	suite.mock.ExpectExec(`INSERT INTO item_cabinet_quantity`).
		WithArgs(pgxmock.AnyArg(), suite.householdID, suite.itemID, &suite.cabinetID, 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`UPDATE item SET quantity = quantity \+ \$1`).
		WithArgs(4, suite.householdID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	oldTotal, newTotal, err := suite.ledger.PlaceStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, 4)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, oldTotal)
	assert.Equal(suite.T(), 4, newTotal)
}

func (suite *LedgerTestSuite) TestPlaceStock_InsufficientStock() {
	suite.expectItemLock(3)
	entryID := uuid.New()
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, &suite.cabinetID).
		WillReturnRows(suite.stockRow(entryID, &suite.cabinetID, 3))

	_, _, err := suite.ledger.PlaceStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, -5)
	assert.ErrorIs(suite.T(), err, common.ErrInsufficientStock)
}

func (suite *LedgerTestSuite) TestPlaceStock_PrunesRowAtZero() {
	suite.expectItemLock(2)
	entryID := uuid.New()
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, &suite.cabinetID).
		WillReturnRows(suite.stockRow(entryID, &suite.cabinetID, 2))
	suite.mock.ExpectExec(`DELETE FROM item_cabinet_quantity WHERE id = \$1`).
		WithArgs(entryID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`UPDATE item SET quantity = quantity \+ \$1`).
		WithArgs(-2, suite.householdID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	oldTotal, newTotal, err := suite.ledger.PlaceStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, -2)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, oldTotal)
	assert.Equal(suite.T(), 0, newTotal)
}

func (suite *LedgerTestSuite) TestPlaceStock_UpdatesExistingRow() {
	suite.expectItemLock(5)
	entryID := uuid.New()
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, &suite.cabinetID).
		WillReturnRows(suite.stockRow(entryID, &suite.cabinetID, 5))
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(8, entryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE item SET quantity = quantity \+ \$1`).
		WithArgs(3, suite.householdID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	oldTotal, newTotal, err := suite.ledger.PlaceStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, 3)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, oldTotal)
	assert.Equal(suite.T(), 8, newTotal)
}

func (suite *LedgerTestSuite) TestPlaceStock_ZeroDeltaMissingRowIsNoOp() {
	suite.expectItemLock(4)
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, &suite.cabinetID).
		WillReturnError(common.ErrNotFound)

	oldTotal, newTotal, err := suite.ledger.PlaceStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, 0)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, oldTotal)
	assert.Equal(suite.T(), 4, newTotal)
}

func (suite *LedgerTestSuite) TestMoveStock_RejectsSameLocation() {
	err := suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, &suite.cabinetID, 2)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidArgument)

	err = suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, nil, nil, 2)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidArgument)
}

func (suite *LedgerTestSuite) TestMoveStock_RejectsNonPositiveAmount() {
	other := uuid.New()
	err := suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, &other, 0)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidArgument)

	err = suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, &suite.cabinetID, &other, -3)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidArgument)
}

func (suite *LedgerTestSuite) TestMoveStock_FromUnassignedToCabinet() {
	suite.expectItemLock(6)

	srcID := uuid.New()
	// nil sorts before any cabinet id, so the unassigned row locks first.
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, (*uuid.UUID)(nil)).
		WillReturnRows(suite.stockRow(srcID, nil, 6))
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, &suite.cabinetID).
		WillReturnError(common.ErrNotFound)

	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(4, srcID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO item_cabinet_quantity`).
		WithArgs(pgxmock.AnyArg(), suite.householdID, suite.itemID, &suite.cabinetID, 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, nil, &suite.cabinetID, 2)
	assert.NoError(suite.T(), err)
}

func (suite *LedgerTestSuite) TestMoveStock_DrainsSourceRow() {
	suite.expectItemLock(2)

	srcID := uuid.New()
	dstID := uuid.New()
	from := suite.cabinetID
	to := uuid.New()
	first, second := &from, &to
	if to.String() < from.String() {
		first, second = &to, &from
	}
	rowsByID := map[*uuid.UUID]*pgxmock.Rows{
		&from: suite.stockRow(srcID, &from, 2),
		&to:   suite.stockRow(dstID, &to, 1),
	}
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, first).
		WillReturnRows(rowsByID[first])
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, second).
		WillReturnRows(rowsByID[second])

	// Moving the entire source quantity drops the source row.
	suite.mock.ExpectExec(`DELETE FROM item_cabinet_quantity WHERE id = \$1`).
		WithArgs(srcID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(3, dstID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, &from, &to, 2)
	assert.NoError(suite.T(), err)
}

// Moving an amount and then moving it back leaves both location rows at
// exactly their original quantities.
func (suite *LedgerTestSuite) TestMoveStock_RoundTripRestoresQuantities() {
	srcID := uuid.New()
	dstID := uuid.New()
	from := suite.cabinetID
	to := uuid.New()
	first, second := &from, &to
	if to.String() < from.String() {
		first, second = &to, &from
	}
	rowIDs := map[*uuid.UUID]uuid.UUID{&from: srcID, &to: dstID}

	expectRowLocks := func(fromQty, toQty int) {
		quantities := map[*uuid.UUID]int{&from: fromQty, &to: toQty}
		for _, id := range []*uuid.UUID{first, second} {
			suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
				WithArgs(suite.householdID, suite.itemID, id).
				WillReturnRows(suite.stockRow(rowIDs[id], id, quantities[id]))
		}
	}

	suite.expectItemLock(6)
	expectRowLocks(5, 1)
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(3, srcID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(3, dstID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	// The reverse move writes back exactly the starting quantities.
	suite.expectItemLock(6)
	expectRowLocks(3, 3)
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(1, dstID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(5, srcID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, &from, &to, 2)
	assert.NoError(suite.T(), err)
	err = suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, &to, &from, 2)
	assert.NoError(suite.T(), err)
}

func (suite *LedgerTestSuite) TestMoveStock_InsufficientSource() {
	suite.expectItemLock(1)

	srcID := uuid.New()
	to := uuid.New()
	from := suite.cabinetID
	first, second := &from, &to
	if to.String() < from.String() {
		first, second = &to, &from
	}
	rowsByID := map[*uuid.UUID]*pgxmock.Rows{
		&from: suite.stockRow(srcID, &from, 1),
	}
	for _, id := range []*uuid.UUID{first, second} {
		if rows, ok := rowsByID[id]; ok {
			suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
				WithArgs(suite.householdID, suite.itemID, id).
				WillReturnRows(rows)
		} else {
			suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
				WithArgs(suite.householdID, suite.itemID, id).
				WillReturnError(common.ErrNotFound)
		}
	}

	err := suite.ledger.MoveStock(suite.ctx, suite.householdID, suite.itemID, &from, &to, 2)
	assert.ErrorIs(suite.T(), err, common.ErrInsufficientStock)
}

func (suite *LedgerTestSuite) TestTotalQuantity() {
	suite.mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\) FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(7))

	total, err := suite.ledger.TotalQuantity(suite.ctx, suite.householdID, suite.itemID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7, total)
}

// expectReleaseItemLocks covers the release preamble: the cabinet's item ids
// are read first, then each item row is locked, before any stock row lock.
func (suite *LedgerTestSuite) expectReleaseItemLocks(quantity int) {
	suite.mock.ExpectQuery(`SELECT item_id FROM item_cabinet_quantity\s+WHERE household_id = \$1 AND cabinet_id = \$2\s+ORDER BY item_id ASC`).
		WithArgs(suite.householdID, suite.cabinetID).
		WillReturnRows(pgxmock.NewRows([]string{"item_id"}).AddRow(suite.itemID))
	suite.expectItemLock(quantity)
}

func (suite *LedgerTestSuite) TestReleaseCabinet_MergesIntoUnassigned() {
	entryID := uuid.New()
	unassignedID := uuid.New()
	now := time.Now()

	suite.expectReleaseItemLocks(5)
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity\s+WHERE household_id = \$1 AND cabinet_id = \$2\s+ORDER BY item_id ASC\s+FOR UPDATE`).
		WithArgs(suite.householdID, suite.cabinetID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "household_id", "item_id", "cabinet_id",
			"quantity", "created_at", "updated_at"}).
			AddRow(entryID, suite.householdID, suite.itemID, &suite.cabinetID, 3, now, now))

	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, (*uuid.UUID)(nil)).
		WillReturnRows(suite.stockRow(unassignedID, nil, 2))
	suite.mock.ExpectExec(`UPDATE item_cabinet_quantity SET quantity = \$1`).
		WithArgs(5, unassignedID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`DELETE FROM item_cabinet_quantity WHERE id = \$1`).
		WithArgs(entryID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.ledger.ReleaseCabinet(suite.ctx, suite.householdID, suite.cabinetID)
	assert.NoError(suite.T(), err)
}

func (suite *LedgerTestSuite) TestReleaseCabinet_CreatesUnassignedRow() {
	entryID := uuid.New()
	now := time.Now()

	suite.expectReleaseItemLocks(3)
	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity\s+WHERE household_id = \$1 AND cabinet_id = \$2\s+ORDER BY item_id ASC\s+FOR UPDATE`).
		WithArgs(suite.householdID, suite.cabinetID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "household_id", "item_id", "cabinet_id",
			"quantity", "created_at", "updated_at"}).
			AddRow(entryID, suite.householdID, suite.itemID, &suite.cabinetID, 3, now, now))

	suite.mock.ExpectQuery(`SELECT .+ FROM item_cabinet_quantity`).
		WithArgs(suite.householdID, suite.itemID, (*uuid.UUID)(nil)).
		WillReturnError(common.ErrNotFound)
	suite.mock.ExpectExec(`INSERT INTO item_cabinet_quantity`).
		WithArgs(pgxmock.AnyArg(), suite.householdID, suite.itemID, (*uuid.UUID)(nil), 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`DELETE FROM item_cabinet_quantity WHERE id = \$1`).
		WithArgs(entryID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.ledger.ReleaseCabinet(suite.ctx, suite.householdID, suite.cabinetID)
	assert.NoError(suite.T(), err)
}
