package movement

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// LineField names an editable line item field.
type LineField string

const (
	FieldProductID   LineField = "productId"
	FieldProductName LineField = "productName"
	FieldQuantity    LineField = "quantity"
	FieldUnit        LineField = "unit"
	FieldUnitPrice   LineField = "unitPrice"
)

// ProductLookup resolves products from the live catalog.
type ProductLookup interface {
	Lookup(id string) (models.Product, bool)
}

// LineItem is a product selection while it is being edited. Quantity and
// UnitPrice stay strings until the movement is built.
type LineItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unitPrice,omitempty"`
}

// Draft is the mutable, not-yet-submitted movement form. It is not safe for
// concurrent use; Session serializes access.
type Draft struct {
	Type         models.MovementType `json:"type"`
	StockManager string              `json:"stockManager"`
	Supplier     string              `json:"supplier"`
	Department   string              `json:"department"`
	Notes        string              `json:"notes"`
	Items        []LineItem          `json:"products"`

	products ProductLookup
}

// NewDraft starts an empty draft of the given type.
func NewDraft(t models.MovementType, stockManager string, products ProductLookup) (*Draft, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	return &Draft{
		Type:         t,
		StockManager: stockManager,
		Items:        []LineItem{},
		products:     products,
	}, nil
}

// AddLineItem appends an empty line item.
func (d *Draft) AddLineItem() {
	d.Items = append(d.Items, LineItem{})
}

// UpdateLineItem sets one field of the item at index. Quantities keep only
// digits. Choosing a product fills its name and unit from the catalog and,
// for stock-in drafts, defaults an empty quantity to 1.
func (d *Draft) UpdateLineItem(index int, field LineField, value string) error {
	if index < 0 || index >= len(d.Items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	item := &d.Items[index]

	switch field {
	case FieldQuantity:
		item.Quantity = digitsOnly(value)
	case FieldUnitPrice:
		item.UnitPrice = decimalOnly(value)
	case FieldProductName:
		item.ProductName = value
	case FieldUnit:
		item.Unit = value
	case FieldProductID:
		item.ProductID = strings.TrimSpace(value)
		if d.products == nil {
			return nil
		}
		if p, ok := d.products.Lookup(item.ProductID); ok {
			item.ProductName = p.Name
			item.Unit = p.Unit
			if d.Type == models.MovementStockIn && item.Quantity == "" {
				item.Quantity = "1"
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// RemoveLineItem deletes the item at index; later items shift down by one.
func (d *Draft) RemoveLineItem(index int) error {
	if index < 0 || index >= len(d.Items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	return nil
}

// SetType switches the movement type, clearing the counterpart that no longer applies.
func (d *Draft) SetType(t models.MovementType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	if t == d.Type {
		return nil
	}
	d.Type = t
	d.Supplier = ""
	d.Department = ""
	return nil
}

func (d *Draft) SetSupplier(v string) { d.Supplier = v }
func (d *Draft) SetDepartment(v string) { d.Department = strings.TrimSpace(v) }
func (d *Draft) SetNotes(v string) { d.Notes = v }

// Reset returns the draft to its empty initial state, keeping type and stock manager.
func (d *Draft) Reset() {
	d.Supplier = ""
	d.Department = ""
	d.Notes = ""
	d.Items = []LineItem{}
}

// Clone returns a deep copy sharing the product lookup.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Items = append([]LineItem{}, d.Items...)
	return &c
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// decimalOnly keeps digits and the first dot. Input without any digit
// becomes empty, which reads as "no price".
func decimalOnly(s string) string {
	var b strings.Builder
	dot, digit := false, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
			b.WriteRune(r)
		case r == '.' && !dot:
			dot = true
			b.WriteRune(r)
		}
	}
	if !digit {
		return ""
	}
	return b.String()
}
