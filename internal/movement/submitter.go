package movement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/catalog"
	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// Gateway creates movements on the backend. A returned error means the
// request never got an answer; business rejections come back as a response
// with Success=false.
type Gateway interface {
	CreateMovement(ctx context.Context, movement models.StockMovement) (*models.MovementResponse, error)
}

// Catalog is the live product cache the submitter validates against and
// refreshes after a commit.
type Catalog interface {
	ProductLookup
	Refresh(ctx context.Context) (catalog.Snapshot, error)
}

// Directory is the department list distributions are checked against. Load
// may serve a cached copy; Refresh always refetches.
type Directory interface {
	Load(ctx context.Context) []models.DisplayDepartment
	Refresh(ctx context.Context) []models.DisplayDepartment
	Lookup(id string) (models.DisplayDepartment, bool)
}

// Notifier schedules the alerts sent after a commit.
type Notifier interface {
	ScheduleStockInAlert(ctx context.Context, alert models.StockInAlert) error
	ScheduleDistributionAlert(ctx context.Context, alert models.DistributionAlert) error
}

// Recorder keeps a copy of committed movements (journal, ledger).
type Recorder interface {
	RecordMovement(ctx context.Context, committed models.CommittedMovement) error
}

// Outcome describes a committed movement and how its side effects went.
// None of the side-effect errors un-commit the movement.
type Outcome struct {
	MovementID        string
	Movement          models.StockMovement
	TotalValue        decimal.Decimal
	DepartmentName    string
	Notification      models.NotificationStatus
	NotificationErr   error
	CatalogRefreshErr error
	RecorderErrs      []error
}

// Submitter validates, submits and runs post-commit side effects in order:
// backend call, catalog refresh, department refresh (distributions only),
// notification, recorders.
type Submitter struct {
	gateway           Gateway
	catalog           Catalog
	directory         Directory
	notifier          Notifier
	recorders         []Recorder
	logger            *zap.Logger
	now               func() time.Time
	postCommitTimeout time.Duration
}

// NewSubmitter wires a submitter. notifier may be nil, in which case
// notifications are reported as skipped.
func NewSubmitter(gateway Gateway, cat Catalog, directory Directory, notifier Notifier, logger *zap.Logger, recorders ...Recorder) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		gateway:           gateway,
		catalog:           cat,
		directory:         directory,
		notifier:          notifier,
		recorders:         recorders,
		logger:            logger,
		now:               time.Now,
		postCommitTimeout: 30 * time.Second,
	}
}

// Submit runs one submission attempt for d, reporting state changes to
// observe. The draft is only read.
func (s *Submitter) Submit(ctx context.Context, d *Draft, observe func(State)) (*Outcome, error) {
	if observe == nil {
		observe = func(State) {}
	}

	observe(StateValidating)
	var departments []models.DisplayDepartment
	if d.Type == models.MovementDistribution {
		departments = s.directory.Load(ctx)
	}
	if err := Validate(d, s.catalog, departments); err != nil {
		return nil, err
	}

	movement, err := BuildMovement(d)
	if err != nil {
		return nil, err
	}

	observe(StateSubmitting)
	resp, err := s.gateway.CreateMovement(ctx, movement)
	if err != nil {
		s.logger.Error("create movement request failed", zap.String("type", string(movement.Type)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp == nil || !resp.Success {
		rejected := &RejectedError{}
		if resp != nil {
			rejected.Message = resp.Message
			rejected.Errors = resp.Errors
		}
		s.logger.Info("movement rejected by backend", zap.String("reason", rejected.Error()))
		return nil, rejected
	}

	observe(StateNotifyingAndRefreshing)

	// The movement is committed; side effects must finish even if the caller gives up.
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.postCommitTimeout)
	defer cancel()

	outcome := &Outcome{
		MovementID: resp.MovementID(),
		Movement:   movement,
		TotalValue: TotalValue(movement),
	}

	if _, err := s.catalog.Refresh(postCtx); err != nil {
		outcome.CatalogRefreshErr = err
		s.logger.Warn("product refresh after commit failed", zap.String("movement_id", outcome.MovementID), zap.Error(err))
	}

	if movement.Type == models.MovementDistribution {
		s.directory.Refresh(postCtx)
		outcome.DepartmentName = movement.Department
		if dep, ok := s.directory.Lookup(movement.Department); ok {
			outcome.DepartmentName = dep.Name
		}
	}

	outcome.Notification, outcome.NotificationErr = s.notify(postCtx, movement, outcome)
	if outcome.NotificationErr != nil {
		s.logger.Warn("movement notification failed", zap.String("movement_id", outcome.MovementID), zap.Error(outcome.NotificationErr))
	}

	committed := models.CommittedMovement{
		ID:             outcome.MovementID,
		Movement:       movement,
		DepartmentName: outcome.DepartmentName,
		TotalValue:     outcome.TotalValue,
		Notification:   outcome.Notification,
		CommittedAt:    s.now().UTC(),
	}
	for _, r := range s.recorders {
		if err := r.RecordMovement(postCtx, committed); err != nil {
			outcome.RecorderErrs = append(outcome.RecorderErrs, err)
			s.logger.Warn("movement recorder failed", zap.String("movement_id", outcome.MovementID), zap.Error(err))
		}
	}

	s.logger.Info("movement committed",
		zap.String("movement_id", outcome.MovementID),
		zap.String("type", string(movement.Type)),
		zap.Int("products", len(movement.Products)),
		zap.String("notification", string(outcome.Notification)))

	return outcome, nil
}

func (s *Submitter) notify(ctx context.Context, movement models.StockMovement, outcome *Outcome) (status models.NotificationStatus, err error) {
	if s.notifier == nil {
		return models.NotificationSkipped, nil
	}

	defer func() {
		if r := recover(); r != nil {
			status, err = models.NotificationFailed, fmt.Errorf("notifier panic: %v", r)
		}
	}()

	names := ProductNames(movement)
	switch movement.Type {
	case models.MovementStockIn:
		err = s.notifier.ScheduleStockInAlert(ctx, models.StockInAlert{
			ProductCount: len(movement.Products),
			Supplier:     movement.Supplier,
			TotalValue:   outcome.TotalValue,
			StockManager: movement.StockManager,
			ProductNames: names,
		})
	case models.MovementDistribution:
		err = s.notifier.ScheduleDistributionAlert(ctx, models.DistributionAlert{
			ProductCount: len(movement.Products),
			Department:   outcome.DepartmentName,
			StockManager: movement.StockManager,
			ProductNames: names,
		})
	default:
		return models.NotificationSkipped, nil
	}

	if err != nil {
		return models.NotificationFailed, err
	}
	return models.NotificationSent, nil
}

// BuildMovement converts a validated draft into the immutable payload.
func BuildMovement(d *Draft) (models.StockMovement, error) {
	m := models.StockMovement{
		Type:         d.Type,
		StockManager: d.StockManager,
		Notes:        strings.TrimSpace(d.Notes),
		Products:     make([]models.MovementLine, 0, len(d.Items)),
	}

	switch d.Type {
	case models.MovementStockIn:
		m.Supplier = strings.TrimSpace(d.Supplier)
	case models.MovementDistribution:
		m.Department = d.Department
	default:
		return models.StockMovement{}, fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}

	for i, item := range d.Items {
		qty, ok := parseQuantity(item.Quantity)
		if !ok || qty <= 0 {
			return models.StockMovement{}, fmt.Errorf("line %d: invalid quantity %q", i, item.Quantity)
		}
		line := models.MovementLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    qty,
			Unit:        item.Unit,
		}
		if item.UnitPrice != "" {
			price, err := decimal.NewFromString(item.UnitPrice)
			if err != nil {
				return models.StockMovement{}, fmt.Errorf("line %d: invalid unit price %q: %w", i, item.UnitPrice, err)
			}
			line.UnitPrice = &price
		}
		m.Products = append(m.Products, line)
	}

	return m, nil
}

// TotalValue sums quantity times unit price; lines without a price count as zero.
func TotalValue(m models.StockMovement) decimal.Decimal {
	total := decimal.Zero
	for _, line := range m.Products {
		if line.UnitPrice == nil {
			continue
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ProductNames renders "Name (qty unit)" strings for notification bodies.
func ProductNames(m models.StockMovement) []string {
	names := make([]string, 0, len(m.Products))
	for _, line := range m.Products {
		name := line.ProductName
		if name == "" {
			name = line.ProductID
		}
		label := fmt.Sprintf("%s (%d", name, line.Quantity)
		if line.Unit != "" {
			label += " " + line.Unit
		}
		names = append(names, label+")")
	}
	return names
}
