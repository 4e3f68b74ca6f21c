package reporting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
	repo "github.com/mamadbah2/stockkeeper/internal/repository/sheets"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	ledgerRange     = "Movements!A:I"
)

// Ledger columns.
const (
	colDate = iota
	colMovementID
	colType
	colCounterparty
	colProductID
	colProductName
	colQuantity
	colUnit
	colUnitPrice
)

// Service keeps the movement ledger and summarizes it.
type Service struct {
	repo     repo.Repository
	location *time.Location
	logger   *zap.Logger
}

// NewService wires a new reporting service instance. Ledger dates are
// written in loc.
func NewService(repository repo.Repository, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repository, location: loc, logger: logger}
}

// RecordMovement appends one ledger row per line item.
func (s *Service) RecordMovement(ctx context.Context, committed models.CommittedMovement) error {
	m := committed.Movement
	counterparty := m.Supplier
	if m.Type == models.MovementDistribution {
		counterparty = committed.DepartmentName
		if counterparty == "" {
			counterparty = m.Department
		}
	}

	date := committed.CommittedAt.In(s.location).Format(timestampLayout)
	rows := make([][]interface{}, 0, len(m.Products))
	for _, line := range m.Products {
		price := ""
		if line.UnitPrice != nil {
			price = line.UnitPrice.String()
		}
		rows = append(rows, []interface{}{
			date,
			committed.ID,
			string(m.Type),
			counterparty,
			line.ProductID,
			line.ProductName,
			line.Quantity,
			line.Unit,
			price,
		})
	}

	if err := s.repo.AppendRows(ctx, ledgerRange, rows); err != nil {
		return fmt.Errorf("append ledger rows: %w", err)
	}
	return nil
}

type typeTotals struct {
	movements map[string]struct{}
	lines     int
	units     int
	value     decimal.Decimal
}

// DailyDigest summarizes the ledger rows dated on day (in the service
// location) and returns a formatted message.
func (s *Service) DailyDigest(ctx context.Context, day time.Time) (string, error) {
	rows, err := s.repo.ReadRange(ctx, ledgerRange)
	if err != nil {
		return "", fmt.Errorf("load ledger range: %w", err)
	}

	target := day.In(s.location).Format(dateLayout)
	totals := map[models.MovementType]*typeTotals{
		models.MovementStockIn:      {movements: map[string]struct{}{}},
		models.MovementDistribution: {movements: map[string]struct{}{}},
	}
	byDepartment := map[string]int{}

	for _, row := range rows {
		if len(row) <= colQuantity {
			continue
		}

		date := cell(row, colDate)
		if len(date) < len(dateLayout) || date[:len(dateLayout)] != target {
			continue
		}

		t, ok := totals[models.MovementType(cell(row, colType))]
		if !ok {
			continue
		}

		qty, err := strconv.Atoi(cell(row, colQuantity))
		if err != nil {
			s.logger.Debug("skip ledger row with invalid quantity", zap.Any("value", row[colQuantity]), zap.Error(err))
			continue
		}

		id := cell(row, colMovementID)
		if id == "" {
			// Rows without a backend id still count as one movement per timestamp and counterparty.
			id = date + "|" + cell(row, colCounterparty)
		}
		t.movements[id] = struct{}{}
		t.lines++
		t.units += qty

		if price := cell(row, colUnitPrice); price != "" {
			if p, err := decimal.NewFromString(price); err == nil {
				t.value = t.value.Add(p.Mul(decimal.NewFromInt(int64(qty))))
			}
		}

		if models.MovementType(cell(row, colType)) == models.MovementDistribution {
			byDepartment[cell(row, colCounterparty)] += qty
		}
	}

	in := totals[models.MovementStockIn]
	out := totals[models.MovementDistribution]
	if len(in.movements) == 0 && len(out.movements) == 0 {
		return fmt.Sprintf("Stock digest (%s): no movements recorded.", target), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stock digest (%s)\n", target)
	fmt.Fprintf(&b, "Stock in: %d movements, %d lines, %d units, value %s\n", len(in.movements), in.lines, in.units, in.value.StringFixed(2))
	fmt.Fprintf(&b, "Distributions: %d movements, %d lines, %d units", len(out.movements), out.lines, out.units)

	if len(byDepartment) > 0 {
		names := make([]string, 0, len(byDepartment))
		for name := range byDepartment {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s %d", name, byDepartment[name]))
		}
		fmt.Fprintf(&b, "\nBy department: %s", strings.Join(parts, ", "))
	}

	return b.String(), nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
