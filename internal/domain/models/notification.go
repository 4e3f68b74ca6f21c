package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockInAlert describes a committed stock-in movement.
type StockInAlert struct {
	ProductCount int
	Supplier     string
	TotalValue   decimal.Decimal
	StockManager string
	ProductNames []string
}

// DistributionAlert describes a committed distribution movement.
type DistributionAlert struct {
	ProductCount int
	Department   string
	StockManager string
	ProductNames []string
}

// NotificationKind distinguishes inbox entries.
type NotificationKind string

const (
	NotificationStockIn      NotificationKind = "stock_in"
	NotificationDistribution NotificationKind = "distribution"
	NotificationDigest       NotificationKind = "digest"
	NotificationBroadcast    NotificationKind = "broadcast"
)

// Notification is a rendered alert as stored in the in-app inbox.
type Notification struct {
	Kind      NotificationKind `bson:"kind" json:"kind"`
	Title     string           `bson:"title" json:"title"`
	Body      string           `bson:"body" json:"body"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
}
