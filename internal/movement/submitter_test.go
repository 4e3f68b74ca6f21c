package movement

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

func TestSubmitStockInSendsIntegerQuantitiesAndNotifies(t *testing.T) {
	f := newFixture()
	f.gateway.resp = &models.MovementResponse{Success: true, Data: []byte(`{"id":"mv-1"}`)}

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "10", Unit: "kg"}}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)

	require.Len(t, f.gateway.calls, 1)
	sent := f.gateway.calls[0]
	assert.Equal(t, models.MovementStockIn, sent.Type)
	assert.Equal(t, "Acme", sent.Supplier)
	assert.Empty(t, sent.Department)
	require.Len(t, sent.Products, 1)
	assert.Equal(t, "P1", sent.Products[0].ProductID)
	assert.Equal(t, 10, sent.Products[0].Quantity)
	assert.Equal(t, "kg", sent.Products[0].Unit)

	require.Len(t, f.notifier.stockIn, 1)
	alert := f.notifier.stockIn[0]
	assert.Equal(t, 1, alert.ProductCount)
	assert.Equal(t, "Acme", alert.Supplier)
	assert.Equal(t, "Amadou", alert.StockManager)
	assert.Equal(t, []string{"P1 (10 kg)"}, alert.ProductNames)

	assert.Equal(t, "mv-1", outcome.MovementID)
	assert.Equal(t, models.NotificationSent, outcome.Notification)
	assert.NoError(t, outcome.NotificationErr)
}

func TestSubmitTotalValueTreatsMissingPriceAsZero(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{
		{ProductID: "P1", ProductName: "Flour", Quantity: "4", Unit: "kg", UnitPrice: "2.50"},
		{ProductID: "P2", ProductName: "Soap", Quantity: "3"},
	}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(10).Equal(outcome.TotalValue), outcome.TotalValue.String())
	assert.True(t, decimal.NewFromInt(10).Equal(f.notifier.stockIn[0].TotalValue))
	assert.Equal(t, []string{"Flour (4 kg)", "Soap (3)"}, f.notifier.stockIn[0].ProductNames)
}

func TestSubmitDistributionNotifiesWithDepartmentName(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementDistribution)
	d.SetDepartment("bakery")
	d.Items = []LineItem{{ProductID: "P1", ProductName: "Flour", Quantity: "30", Unit: "kg"}}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)

	assert.Equal(t, "bakery", f.gateway.calls[0].Department)
	assert.Empty(t, f.gateway.calls[0].Supplier)
	require.Len(t, f.notifier.distributions, 1)
	assert.Equal(t, "Bakery", f.notifier.distributions[0].Department)
	assert.Equal(t, 1, f.notifier.distributions[0].ProductCount)
	assert.Equal(t, "Bakery", outcome.DepartmentName)
}

func TestSubmitInsufficientStockNeverReachesBackend(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementDistribution)
	d.SetDepartment("bakery")
	d.Items = []LineItem{{ProductID: "P1", ProductName: "Flour", Quantity: "50", Unit: "kg"}}

	_, err := f.submitter.Submit(context.Background(), d, nil)

	v := validationErr(t, err)
	assert.Equal(t, RuleInsufficientStock, v.First().Rule)
	assert.Contains(t, UserMessage(err), "Flour")
	assert.Zero(t, f.gateway.callCount())
	assert.Empty(t, f.notifier.distributions)
}

func TestSubmitRefreshCompletesBeforeNotification(t *testing.T) {
	f := newFixture()
	f.gateway.onCreate = func(models.StockMovement) {
		f.source.set(models.RawProduct{ID: "P1", Name: "Flour", Quantity: models.Num(40), Unit: "kg"})
	}

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "10", Unit: "kg"}}

	_, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "refresh", "notify", "record"}, f.tl.list())
	assert.Equal(t, []int{40}, f.notifier.stockSeen, "cache already reflects the movement when the alert is scheduled")
}

func TestSubmitDistributionRefreshesDepartmentsBeforeNotification(t *testing.T) {
	f := newFixture()
	f.directory.onRefresh = []models.DisplayDepartment{
		{ID: "bakery", Name: "Bakery & Pastry"},
		{ID: "office", Name: "Office"},
	}

	d := f.draft(models.MovementDistribution)
	d.SetDepartment("bakery")
	d.Items = []LineItem{{ProductID: "P1", ProductName: "Flour", Quantity: "5", Unit: "kg"}}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "refresh", "departments", "notify", "record"}, f.tl.list())
	assert.Equal(t, "Bakery & Pastry", outcome.DepartmentName)
	assert.Equal(t, "Bakery & Pastry", f.notifier.distributions[0].Department)
}

func TestSubmitStockInLeavesDepartmentsAlone(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	_, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)
	assert.NotContains(t, f.tl.list(), "departments")
	assert.Zero(t, f.directory.loads)
}

func TestSubmitDistributionLoadsDepartmentsBeforeValidating(t *testing.T) {
	f := newFixture()
	f.directory.deps = append(f.directory.Departments(), models.DisplayDepartment{ID: "kitchen", Name: "Kitchen"})

	d := f.draft(models.MovementDistribution)
	d.SetDepartment("kitchen")
	d.Items = []LineItem{{ProductID: "P2", Quantity: "1"}}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.directory.loads)
	assert.Equal(t, "Kitchen", outcome.DepartmentName)
}

func TestSubmitReportsStateTransitions(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	var states []State
	_, err := f.submitter.Submit(context.Background(), d, func(s State) { states = append(states, s) })
	require.NoError(t, err)
	assert.Equal(t, []State{StateValidating, StateSubmitting, StateNotifyingAndRefreshing}, states)
}

func TestSubmitRejectionMessages(t *testing.T) {
	cases := []struct {
		name string
		resp *models.MovementResponse
		want string
	}{
		{"joined errors", &models.MovementResponse{Errors: []string{"Department not found", "Bad quantity"}, Message: "ignored"}, "Department not found\nBad quantity"},
		{"message only", &models.MovementResponse{Message: "Product archived"}, "Product archived"},
		{"nothing", &models.MovementResponse{}, "Failed to create stock movement."},
		{"nil response", nil, "Failed to create stock movement."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.gateway.resp = tc.resp

			d := f.draft(models.MovementStockIn)
			d.SetSupplier("Acme")
			d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

			outcome, err := f.submitter.Submit(context.Background(), d, nil)
			require.Error(t, err)
			assert.Nil(t, outcome)

			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tc.want, UserMessage(err))
			assert.Equal(t, []string{"create"}, f.tl.list(), "no side effects after a rejection")
		})
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	f := newFixture()
	f.gateway.err = errors.New("dial tcp: connection refused")

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	_, err := f.submitter.Submit(context.Background(), d, nil)
	require.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "Network error. Please check your connection and try again.", UserMessage(err))
	assert.Empty(t, f.notifier.stockIn)
}

func TestSubmitNotificationFailureKeepsCommit(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("push gateway down")

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationFailed, outcome.Notification)
	assert.EqualError(t, outcome.NotificationErr, "push gateway down")
	require.Len(t, f.recorder.committed, 1)
	assert.Equal(t, models.NotificationFailed, f.recorder.committed[0].Notification)
}

func TestSubmitNotifierPanicIsContained(t *testing.T) {
	f := newFixture()
	f.notifier.panicWith = "boom"

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationFailed, outcome.Notification)
	assert.Error(t, outcome.NotificationErr)
}

func TestSubmitWithoutNotifierSkips(t *testing.T) {
	f := newFixture()
	submitter := NewSubmitter(f.gateway, f.store, f.directory, nil, nil)

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	outcome, err := submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSkipped, outcome.Notification)
}

func TestSubmitRefreshAndRecorderFailuresAreNonFatal(t *testing.T) {
	f := newFixture()
	f.source.err = errors.New("products unavailable")
	f.recorder.err = errors.New("journal offline")

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	outcome, err := f.submitter.Submit(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Error(t, outcome.CatalogRefreshErr)
	require.Len(t, outcome.RecorderErrs, 1)
	assert.Equal(t, models.NotificationSent, outcome.Notification)
}

func TestSubmitSideEffectsSurviveCallerCancellation(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.gateway.onCreate = func(models.StockMovement) { cancel() }

	var notifiedCtxErr error
	f.notifier = &fakeNotifier{tl: f.tl}
	submitter := NewSubmitter(f.gateway, f.store, f.directory, ctxCapture{fakeNotifier: f.notifier, seen: &notifiedCtxErr}, nil)

	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1"}}

	_, err := submitter.Submit(ctx, d, nil)
	require.NoError(t, err)
	assert.NoError(t, notifiedCtxErr)
}

type ctxCapture struct {
	*fakeNotifier
	seen *error
}

func (p ctxCapture) ScheduleStockInAlert(ctx context.Context, a models.StockInAlert) error {
	*p.seen = ctx.Err()
	return p.fakeNotifier.ScheduleStockInAlert(ctx, a)
}

func TestBuildMovementRejectsBadPrice(t *testing.T) {
	d, err := NewDraft(models.MovementStockIn, "x", nil)
	require.NoError(t, err)
	d.Supplier = "Acme"
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1", UnitPrice: "."}}

	_, err = BuildMovement(d)
	assert.Error(t, err)
}

func TestSubmitBadPriceIsAValidationError(t *testing.T) {
	f := newFixture()
	d := f.draft(models.MovementStockIn)
	d.SetSupplier("Acme")
	d.Items = []LineItem{{ProductID: "P1", Quantity: "1", UnitPrice: "."}}

	_, err := f.submitter.Submit(context.Background(), d, nil)

	v := validationErr(t, err)
	assert.Equal(t, RuleInvalidPrice, v.First().Rule)
	assert.Equal(t, "Please enter a valid unit price.", UserMessage(err))
	assert.Zero(t, f.gateway.callCount())
}
