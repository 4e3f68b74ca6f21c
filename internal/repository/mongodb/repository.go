package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

const (
	notificationsCollection = "notifications"
	movementsCollection     = "movements"

	// DefaultInboxLimit caps ListNotifications when no limit is given.
	DefaultInboxLimit = 50
)

// Repository defines the storage operations backed by MongoDB.
type Repository interface {
	SaveNotification(ctx context.Context, notification models.Notification) error
	ListNotifications(ctx context.Context, limit int64) ([]models.Notification, error)
	RecordMovement(ctx context.Context, committed models.CommittedMovement) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// SaveNotification stores a rendered alert in the in-app inbox.
func (r *MongoDBRepository) SaveNotification(ctx context.Context, notification models.Notification) error {
	if _, err := r.collection(notificationsCollection).InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the latest inbox entries, newest first.
func (r *MongoDBRepository) ListNotifications(ctx context.Context, limit int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection(notificationsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]models.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// RecordMovement journals a committed movement.
func (r *MongoDBRepository) RecordMovement(ctx context.Context, committed models.CommittedMovement) error {
	if _, err := r.collection(movementsCollection).InsertOne(ctx, newJournalEntry(committed)); err != nil {
		return fmt.Errorf("failed to insert movement journal entry: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// journalEntry is the stored form of a committed movement. Money is kept
// as decimal strings so no precision is lost in BSON.
type journalEntry struct {
	MovementID     string        `bson:"movement_id,omitempty"`
	Type           string        `bson:"type"`
	StockManager   string        `bson:"stock_manager"`
	Supplier       string        `bson:"supplier,omitempty"`
	Department     string        `bson:"department,omitempty"`
	DepartmentName string        `bson:"department_name,omitempty"`
	Notes          string        `bson:"notes,omitempty"`
	Lines          []journalLine `bson:"lines"`
	TotalValue     string        `bson:"total_value"`
	Notification   string        `bson:"notification"`
	CommittedAt    time.Time     `bson:"committed_at"`
}

type journalLine struct {
	ProductID   string `bson:"product_id"`
	ProductName string `bson:"product_name,omitempty"`
	Quantity    int    `bson:"quantity"`
	Unit        string `bson:"unit,omitempty"`
	UnitPrice   string `bson:"unit_price,omitempty"`
}

func newJournalEntry(c models.CommittedMovement) journalEntry {
	m := c.Movement
	entry := journalEntry{
		MovementID:     c.ID,
		Type:           string(m.Type),
		StockManager:   m.StockManager,
		Supplier:       m.Supplier,
		Department:     m.Department,
		DepartmentName: c.DepartmentName,
		Notes:          m.Notes,
		Lines:          make([]journalLine, 0, len(m.Products)),
		TotalValue:     c.TotalValue.String(),
		Notification:   string(c.Notification),
		CommittedAt:    c.CommittedAt,
	}
	for _, line := range m.Products {
		jl := journalLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
		}
		if line.UnitPrice != nil {
			jl.UnitPrice = line.UnitPrice.String()
		}
		entry.Lines = append(entry.Lines, jl)
	}
	return entry
}
