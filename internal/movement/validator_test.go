package movement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

func validationErr(t *testing.T, err error) *ValidationError {
	t.Helper()
	var v *ValidationError
	require.True(t, errors.As(err, &v), "expected a validation error, got %v", err)
	return v
}

func TestValidateEmptyCartFailsForEveryType(t *testing.T) {
	f := newFixture()
	for _, typ := range []models.MovementType{models.MovementStockIn, models.MovementDistribution} {
		d := f.draft(typ)
		d.SetSupplier("Acme")
		d.SetDepartment("bakery")

		v := validationErr(t, Validate(d, f.store, testDepartments))
		assert.Equal(t, RuleNoProducts, v.First().Rule, string(typ))
		assert.Equal(t, "Please add at least one product.", v.Error())
	}
}

func TestValidateIncompleteItems(t *testing.T) {
	f := newFixture()
	cases := map[string]LineItem{
		"missing product": {Quantity: "3"},
		"empty quantity":  {ProductID: "P1"},
		"zero quantity":   {ProductID: "P1", Quantity: "0"},
		"non numeric":     {ProductID: "P1", Quantity: "abc"},
		"negative":        {ProductID: "P1", Quantity: "-2"},
		"whitespace id":   {ProductID: "  ", Quantity: "2"},
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			d := f.draft(models.MovementStockIn)
			d.SetSupplier("Acme")
			d.Items = []LineItem{{ProductID: "P2", Quantity: "1"}, item}

			v := validationErr(t, Validate(d, f.store, testDepartments))
			assert.Equal(t, RuleIncompleteItems, v.First().Rule)
			assert.Equal(t, "Please fill all product fields with valid quantities.", v.First().Message)
		})
	}
}

func TestValidateInsufficientStockNamesProduct(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementDistribution)
	d.SetDepartment("bakery")
	d.Items = []LineItem{{ProductID: "P1", ProductName: "Flour", Quantity: "50", Unit: "kg"}}

	v := validationErr(t, Validate(d, f.store, testDepartments))
	assert.Equal(t, RuleInsufficientStock, v.First().Rule)
	assert.Contains(t, v.First().Message, "Flour")
	assert.Contains(t, v.First().Message, "available: 30")
	assert.Equal(t, []string{"P1"}, v.First().ProductIDs)
}

func TestValidateStockChecksOnlyDistributions(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "500"}}

	assert.NoError(t, Validate(d, f.store, testDepartments))
}

func TestValidateUnknownProductHasNoStock(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementDistribution)
	d.SetDepartment("office")
	d.Items = []LineItem{{ProductID: "ghost", Quantity: "1"}}

	v := validationErr(t, Validate(d, f.store, testDepartments))
	assert.True(t, v.Has(RuleInsufficientStock))
	assert.Contains(t, v.First().Message, "ghost")
}

func TestValidateStockInRequiresSupplier(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementStockIn)
	d.SetSupplier("   ")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "2"}}

	v := validationErr(t, Validate(d, f.store, testDepartments))
	require.Len(t, v.Violations, 1)
	assert.Equal(t, "Please enter supplier name.", v.Error())
}

func TestValidateRejectsUnparsablePrice(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{
		{ProductID: "P1", Quantity: "2", UnitPrice: "."},
		{ProductID: "P2", Quantity: "1", UnitPrice: "0.75"},
		{ProductID: "P1", Quantity: "1"},
	}

	v := validationErr(t, Validate(d, f.store, testDepartments))
	require.Len(t, v.Violations, 1)
	assert.Equal(t, RuleInvalidPrice, v.First().Rule)
	assert.Equal(t, "Please enter a valid unit price.", v.Error())
	assert.Equal(t, []string{"P1"}, v.First().ProductIDs)

	d.Items[0].UnitPrice = ""
	assert.NoError(t, Validate(d, f.store, testDepartments))
}

func TestValidateDistributionDepartmentRules(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementDistribution)
	d.Items = []LineItem{{ProductID: "P2", Quantity: "5"}}

	v := validationErr(t, Validate(d, f.store, testDepartments))
	assert.Equal(t, RuleMissingDepartment, v.First().Rule)

	d.SetDepartment("bakery")
	v = validationErr(t, Validate(d, f.store, nil))
	assert.Equal(t, RuleNoDepartments, v.First().Rule)

	d.SetDepartment("warehouse")
	v = validationErr(t, Validate(d, f.store, testDepartments))
	assert.Equal(t, RuleUnknownDepartment, v.First().Rule)

	d.SetDepartment("bakery")
	assert.NoError(t, Validate(d, f.store, testDepartments))
}

func TestValidateCollectsAllViolationsInOrder(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementDistribution)
	d.Items = []LineItem{{ProductID: "P1", Quantity: "31"}, {ProductID: "", Quantity: ""}}

	v := validationErr(t, Validate(d, f.store, testDepartments))
	var rules []Rule
	for _, viol := range v.Violations {
		rules = append(rules, viol.Rule)
	}
	assert.Equal(t, []Rule{RuleIncompleteItems, RuleInsufficientStock, RuleMissingDepartment}, rules)
}

func TestParseQuantity(t *testing.T) {
	n, ok := parseQuantity("12kg")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = parseQuantity("")
	assert.False(t, ok)

	n, ok = parseQuantity(" -4")
	assert.True(t, ok)
	assert.Equal(t, -4, n)

	_, ok = parseQuantity("99999999999999999999999")
	assert.False(t, ok)
}
