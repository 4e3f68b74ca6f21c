package movement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// Rule identifies a validation rule.
type Rule string

const (
	RuleNoProducts        Rule = "no_products"
	RuleIncompleteItems   Rule = "incomplete_items"
	RuleInvalidPrice      Rule = "invalid_price"
	RuleInsufficientStock Rule = "insufficient_stock"
	RuleMissingSupplier   Rule = "missing_supplier"
	RuleMissingDepartment Rule = "missing_department"
	RuleNoDepartments     Rule = "no_departments"
	RuleUnknownDepartment Rule = "unknown_department"
)

// Violation is one failed rule.
type Violation struct {
	Rule       Rule     `json:"rule"`
	Message    string   `json:"message"`
	ProductIDs []string `json:"productIds,omitempty"`
}

// ValidationError lists every failed rule in evaluation order. The first
// violation is the one surfaced as the blocking alert.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid movement"
	}
	return e.Violations[0].Message
}

// First returns the blocking violation.
func (e *ValidationError) First() Violation {
	if len(e.Violations) == 0 {
		return Violation{}
	}
	return e.Violations[0]
}

// Has reports whether rule failed.
func (e *ValidationError) Has(rule Rule) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Validate checks whether d can be submitted. Stock is read from products at
// call time; a catalog that has not been refreshed recently may let an
// oversized distribution through, and the backend stays the final authority.
func Validate(d *Draft, products ProductLookup, departments []models.DisplayDepartment) error {
	var violations []Violation

	if len(d.Items) == 0 {
		violations = append(violations, Violation{Rule: RuleNoProducts, Message: "Please add at least one product."})
	}

	for _, item := range d.Items {
		qty, ok := parseQuantity(item.Quantity)
		if strings.TrimSpace(item.ProductID) == "" || !ok || qty <= 0 {
			violations = append(violations, Violation{
				Rule:    RuleIncompleteItems,
				Message: "Please fill all product fields with valid quantities.",
			})
			break
		}
	}

	if ids := invalidPrices(d.Items); len(ids) > 0 {
		violations = append(violations, Violation{
			Rule:       RuleInvalidPrice,
			Message:    "Please enter a valid unit price.",
			ProductIDs: ids,
		})
	}

	if d.Type == models.MovementDistribution {
		if v, failed := checkStock(d.Items, products); failed {
			violations = append(violations, v)
		}
	}

	if d.Type == models.MovementStockIn && strings.TrimSpace(d.Supplier) == "" {
		violations = append(violations, Violation{Rule: RuleMissingSupplier, Message: "Please enter supplier name."})
	}

	if d.Type == models.MovementDistribution {
		switch {
		case d.Department == "":
			violations = append(violations, Violation{Rule: RuleMissingDepartment, Message: "Please select a department."})
		case len(departments) == 0:
			violations = append(violations, Violation{Rule: RuleNoDepartments, Message: "No departments available."})
		case !containsDepartment(departments, d.Department):
			violations = append(violations, Violation{Rule: RuleUnknownDepartment, Message: "Selected department is no longer available."})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func checkStock(items []LineItem, products ProductLookup) (Violation, bool) {
	var details []string
	var ids []string

	for _, item := range items {
		qty, ok := parseQuantity(item.Quantity)
		if item.ProductID == "" || !ok || qty <= 0 {
			continue
		}

		available := 0
		name := item.ProductName
		unit := item.Unit
		if products != nil {
			if p, found := products.Lookup(item.ProductID); found {
				available = p.Quantity
				if name == "" {
					name = p.Name
				}
				if unit == "" {
					unit = p.Unit
				}
			}
		}
		if name == "" {
			name = item.ProductID
		}

		if qty > available {
			details = append(details, fmt.Sprintf("%s (available: %d %s, requested: %d %s)", name, available, unit, qty, unit))
			ids = append(ids, item.ProductID)
		}
	}

	if len(details) == 0 {
		return Violation{}, false
	}
	return Violation{
		Rule:       RuleInsufficientStock,
		Message:    "Insufficient stock for: " + strings.Join(details, "; "),
		ProductIDs: ids,
	}, true
}

// invalidPrices returns the products whose unit price is set but not a
// non-negative decimal. An empty price is valid and counts as zero.
func invalidPrices(items []LineItem) []string {
	var ids []string
	for _, item := range items {
		if item.UnitPrice == "" {
			continue
		}
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil || price.IsNegative() {
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

func containsDepartment(departments []models.DisplayDepartment, id string) bool {
	for _, d := range departments {
		if d.ID == id {
			return true
		}
	}
	return false
}

// parseQuantity mimics a lenient integer parse: optional leading
// whitespace and sign, then as many digits as are present. Input without
// leading digits is invalid.
func parseQuantity(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign = s[:1]
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(sign + s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
