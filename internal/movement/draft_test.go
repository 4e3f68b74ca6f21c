package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

func TestAddLineItemAppendsEmptyEntry(t *testing.T) {
	d := newFixture().draft(models.MovementDistribution)
	d.AddLineItem()
	d.AddLineItem()

	require.Len(t, d.Items, 2)
	assert.Equal(t, LineItem{}, d.Items[1])
}

func TestUpdateQuantityStripsNonDigits(t *testing.T) {
	d := newFixture().draft(models.MovementDistribution)
	d.AddLineItem()

	require.NoError(t, d.UpdateLineItem(0, FieldQuantity, "1a2-3.5"))
	assert.Equal(t, "1235", d.Items[0].Quantity)

	require.NoError(t, d.UpdateLineItem(0, FieldQuantity, "abc"))
	assert.Equal(t, "", d.Items[0].Quantity)
}

func TestUpdateUnitPriceKeepsFirstDot(t *testing.T) {
	d := newFixture().draft(models.MovementStockIn)
	d.AddLineItem()

	require.NoError(t, d.UpdateLineItem(0, FieldUnitPrice, "$12.5.0"))
	assert.Equal(t, "12.50", d.Items[0].UnitPrice)

	require.NoError(t, d.UpdateLineItem(0, FieldUnitPrice, "abc."))
	assert.Equal(t, "", d.Items[0].UnitPrice, "a lone dot is no price")
}

func TestSelectingProductAutofills(t *testing.T) {
	f := newFixture()

	in := f.draft(models.MovementStockIn)
	in.AddLineItem()
	require.NoError(t, in.UpdateLineItem(0, FieldProductID, "P1"))
	assert.Equal(t, LineItem{ProductID: "P1", ProductName: "Flour", Quantity: "1", Unit: "kg"}, in.Items[0])

	in.AddLineItem()
	require.NoError(t, in.UpdateLineItem(1, FieldQuantity, "7"))
	require.NoError(t, in.UpdateLineItem(1, FieldProductID, "P2"))
	assert.Equal(t, "7", in.Items[1].Quantity, "existing quantity is kept")

	out := f.draft(models.MovementDistribution)
	out.AddLineItem()
	require.NoError(t, out.UpdateLineItem(0, FieldProductID, "P1"))
	assert.Equal(t, "", out.Items[0].Quantity, "distributions are not pre-filled")
	assert.Equal(t, "Flour", out.Items[0].ProductName)

	out.AddLineItem()
	require.NoError(t, out.UpdateLineItem(1, FieldProductID, "unknown"))
	assert.Equal(t, LineItem{ProductID: "unknown"}, out.Items[1])
}

func TestUpdateLineItemErrors(t *testing.T) {
	d := newFixture().draft(models.MovementStockIn)
	assert.ErrorIs(t, d.UpdateLineItem(0, FieldQuantity, "1"), ErrIndexOutOfRange)

	d.AddLineItem()
	assert.ErrorIs(t, d.UpdateLineItem(0, LineField("colour"), "red"), ErrUnknownField)
	assert.ErrorIs(t, d.UpdateLineItem(-1, FieldQuantity, "1"), ErrIndexOutOfRange)
}

func TestRemoveLineItemShiftsIndices(t *testing.T) {
	d := newFixture().draft(models.MovementStockIn)
	for _, id := range []string{"a", "b", "c"} {
		d.AddLineItem()
		require.NoError(t, d.UpdateLineItem(len(d.Items)-1, FieldProductID, id))
	}

	require.NoError(t, d.RemoveLineItem(1))
	require.Len(t, d.Items, 2)
	assert.Equal(t, "a", d.Items[0].ProductID)
	assert.Equal(t, "c", d.Items[1].ProductID)
	assert.ErrorIs(t, d.RemoveLineItem(2), ErrIndexOutOfRange)
}

func TestSetTypeClearsCounterpart(t *testing.T) {
	d := newFixture().draft(models.MovementStockIn)
	d.SetSupplier("Acme")

	require.NoError(t, d.SetType(models.MovementStockIn))
	assert.Equal(t, "Acme", d.Supplier)

	require.NoError(t, d.SetType(models.MovementDistribution))
	assert.Equal(t, "", d.Supplier)
	assert.ErrorIs(t, d.SetType("transfer"), ErrInvalidType)
}

func TestCloneDoesNotShareItems(t *testing.T) {
	d := newFixture().draft(models.MovementStockIn)
	d.AddLineItem()
	c := d.Clone()
	require.NoError(t, c.UpdateLineItem(0, FieldQuantity, "4"))
	assert.Equal(t, "", d.Items[0].Quantity)
}

func TestNewDraftRejectsUnknownType(t *testing.T) {
	_, err := NewDraft("adjust", "x", nil)
	assert.ErrorIs(t, err, ErrInvalidType)
}
