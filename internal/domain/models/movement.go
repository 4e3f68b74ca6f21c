package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// MovementType enumerates the supported stock transactions.
type MovementType string

const (
	MovementStockIn      MovementType = "stock_in"
	MovementDistribution MovementType = "distribution"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	return t == MovementStockIn || t == MovementDistribution
}

// MovementLine is one product+quantity entry of a submitted movement.
type MovementLine struct {
	ProductID   string           `json:"productId" validate:"required"`
	ProductName string           `json:"productName"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	Unit        string           `json:"unit"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// StockMovement is the payload sent to the backend. It is never mutated
// after creation.
type StockMovement struct {
	Type         MovementType   `json:"type" validate:"required,oneof=stock_in distribution"`
	StockManager string         `json:"stockManager" validate:"required"`
	Products     []MovementLine `json:"products" validate:"required,min=1,dive"`
	Supplier     string         `json:"supplier,omitempty" validate:"required_if=Type stock_in,excluded_if=Type distribution"`
	Department   string         `json:"department,omitempty" validate:"required_if=Type distribution,excluded_if=Type stock_in"`
	Notes        string         `json:"notes,omitempty"`
}

// MovementResponse is the backend's reply to a movement creation.
type MovementResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// MovementID extracts data.id (or data._id) when the backend returns it.
func (r MovementResponse) MovementID() string {
	if len(r.Data) == 0 {
		return ""
	}
	var data struct {
		ID      FlexString `json:"id"`
		MongoID FlexString `json:"_id"`
	}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return ""
	}
	if data.ID != "" {
		return string(data.ID)
	}
	return string(data.MongoID)
}

// MovementRecordLine is a line of a movement read back from history.
type MovementRecordLine struct {
	ProductID   string     `json:"productId"`
	ProductName string     `json:"productName"`
	Quantity    FlexNumber `json:"quantity"`
	Unit        string     `json:"unit"`
}

// MovementRecord is a movement as listed by the backend history endpoint.
type MovementRecord struct {
	ID           FlexString           `json:"id"`
	Type         MovementType         `json:"type"`
	StockManager string               `json:"stockManager"`
	Supplier     string               `json:"supplier,omitempty"`
	Department   DepartmentRef        `json:"department"`
	Products     []MovementRecordLine `json:"products"`
	Notes        string               `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// NotificationStatus records what happened to the post-commit alert.
type NotificationStatus string

const (
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationSkipped NotificationStatus = "skipped"
)

// CommittedMovement is a movement the backend acknowledged, as handed to
// post-commit recorders.
type CommittedMovement struct {
	ID             string             `json:"id"`
	Movement       StockMovement      `json:"movement"`
	DepartmentName string             `json:"departmentName,omitempty"`
	TotalValue     decimal.Decimal    `json:"totalValue"`
	Notification   NotificationStatus `json:"notification"`
	CommittedAt    time.Time          `json:"committedAt"`
}
