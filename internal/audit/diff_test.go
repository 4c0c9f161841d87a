package audit

import (
	"testing"

	"homestock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type DiffTestSuite struct {
	suite.Suite
}

func TestDiffTestSuite(t *testing.T) {
	suite.Run(t, new(DiffTestSuite))
}

func stringPtr(s string) *string { return &s }

func (suite *DiffTestSuite) TestCompareItems_NoChanges() {
	snap := &ItemSnapshot{
		Name:          "Flour",
		Description:   stringPtr("All purpose"),
		Quantity:      5,
		MinStockAlert: 2,
		CabinetName:   stringPtr("Pantry"),
	}
	other := *snap

	d := CompareItems(snap, &other)
	assert.True(suite.T(), d.Empty())
	assert.Empty(suite.T(), d.Fields())
}

func (suite *DiffTestSuite) TestCompareItems_NameChange() {
	old := &ItemSnapshot{Name: "Flour", Quantity: 5}
	new := &ItemSnapshot{Name: "Bread Flour", Quantity: 5}

	d := CompareItems(old, new)
	assert.False(suite.T(), d.Empty())
	assert.Equal(suite.T(), []int16{models.FieldName}, d.Fields())
	assert.True(suite.T(), d.Has(models.FieldName))
	assert.False(suite.T(), d.Has(models.FieldQuantity))

	r := &models.Record{}
	d.applyTo(r)
	assert.Equal(suite.T(), "Flour", *r.ItemNameOld)
	assert.Equal(suite.T(), "Bread Flour", *r.ItemNameNew)
	assert.Nil(suite.T(), r.QuantityCountOld)
}

func (suite *DiffTestSuite) TestCompareItems_MultipleChanges() {
	old := &ItemSnapshot{
		Name:          "Flour",
		Description:   stringPtr("All purpose"),
		Quantity:      5,
		MinStockAlert: 2,
	}
	new := &ItemSnapshot{
		Name:          "Flour",
		Description:   nil,
		Quantity:      3,
		MinStockAlert: 1,
	}

	d := CompareItems(old, new)
	assert.ElementsMatch(suite.T(),
		[]int16{models.FieldDescription, models.FieldQuantity, models.FieldMinStockAlert},
		d.Fields())

	r := &models.Record{}
	d.applyTo(r)
	assert.Equal(suite.T(), "All purpose", *r.ItemDescriptionOld)
	assert.Nil(suite.T(), r.ItemDescriptionNew)
	assert.Equal(suite.T(), 5, *r.QuantityCountOld)
	assert.Equal(suite.T(), 3, *r.QuantityCountNew)
	assert.Equal(suite.T(), 2, *r.MinStockCountOld)
	assert.Equal(suite.T(), 1, *r.MinStockCountNew)
	assert.Nil(suite.T(), r.ItemNameOld)
}

func (suite *DiffTestSuite) TestCompareItems_PhotoClearedVsUnset() {
	// nil on both sides is no change; nil to value and value to nil are.
	d := CompareItems(&ItemSnapshot{Photo: nil}, &ItemSnapshot{Photo: nil})
	assert.True(suite.T(), d.Empty())

	d = CompareItems(&ItemSnapshot{Photo: stringPtr("key1")}, &ItemSnapshot{Photo: nil})
	assert.Equal(suite.T(), []int16{models.FieldPhoto}, d.Fields())

	d = CompareItems(&ItemSnapshot{Photo: nil}, &ItemSnapshot{Photo: stringPtr("key1")})
	assert.Equal(suite.T(), []int16{models.FieldPhoto}, d.Fields())
}

func (suite *DiffTestSuite) TestCompareItems_LocationChange() {
	old := &ItemSnapshot{Name: "Flour", CabinetName: stringPtr("Cabinet A")}
	new := &ItemSnapshot{Name: "Flour", CabinetName: stringPtr("Cabinet B")}

	d := CompareItems(old, new)
	assert.Equal(suite.T(), []int16{models.FieldMove}, d.Fields())

	r := &models.Record{}
	d.applyTo(r)
	assert.Equal(suite.T(), "Cabinet A", *r.CabinetNameOld)
	assert.Equal(suite.T(), "Cabinet B", *r.CabinetNameNew)
}

func (suite *DiffTestSuite) TestCompareCabinets() {
	old := &CabinetSnapshot{Name: "Top Shelf", RoomName: stringPtr("Kitchen")}
	new := &CabinetSnapshot{Name: "Top Shelf", RoomName: stringPtr("Garage")}

	d := CompareCabinets(old, new)
	assert.Equal(suite.T(), []int16{models.FieldMove}, d.Fields())

	r := &models.Record{}
	d.applyTo(r)
	assert.Equal(suite.T(), "Kitchen", *r.RoomNameOld)
	assert.Equal(suite.T(), "Garage", *r.RoomNameNew)
}

func (suite *DiffTestSuite) TestCompareCategories_PathRename() {
	old := &CategorySnapshot{Path: "Food;Baking;Flour"}
	new := &CategorySnapshot{Path: "Food;Baking;Flours"}

	d := CompareCategories(old, new)
	assert.Equal(suite.T(), []int16{models.FieldName}, d.Fields())

	r := &models.Record{}
	d.applyTo(r)
	assert.Equal(suite.T(), "Food;Baking;Flour", *r.CategoryNameOld)
	assert.Equal(suite.T(), "Food;Baking;Flours", *r.CategoryNameNew)
}

func (suite *DiffTestSuite) TestCompareCategories_SamePath() {
	d := CompareCategories(&CategorySnapshot{Path: "Food"}, &CategorySnapshot{Path: "Food"})
	assert.True(suite.T(), d.Empty())
}

func (suite *DiffTestSuite) TestClassify() {
	d := CompareItems(&ItemSnapshot{Name: "a"}, &ItemSnapshot{Name: "b"})

	op, fields := Classify(d, true, false)
	assert.Equal(suite.T(), models.OperateCreate, op)
	assert.Nil(suite.T(), fields)

	op, fields = Classify(d, false, true)
	assert.Equal(suite.T(), models.OperateDelete, op)
	assert.Nil(suite.T(), fields)

	op, fields = Classify(d, false, false)
	assert.Equal(suite.T(), models.OperateModify, op)
	assert.Equal(suite.T(), []int16{models.FieldName}, fields)
}
