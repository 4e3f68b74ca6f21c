package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/catalog"
	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

const defaultHistoryLimit = 50

// Catalog is the product cache as seen by the API.
type Catalog interface {
	Snapshot() catalog.Snapshot
	Refresh(ctx context.Context) (catalog.Snapshot, error)
}

// Directory is the department cache as seen by the API.
type Directory interface {
	Load(ctx context.Context) []models.DisplayDepartment
	Departments() []models.DisplayDepartment
	FilterOptions() []models.DisplayDepartment
	Refresh(ctx context.Context) []models.DisplayDepartment
	UsingFallback() bool
}

// MovementHistory lists movements from the backend.
type MovementHistory interface {
	ListMovements(ctx context.Context, limit int) ([]models.MovementRecord, error)
}

// NotificationInbox lists stored notifications.
type NotificationInbox interface {
	ListNotifications(ctx context.Context, limit int64) ([]models.Notification, error)
}

// Broadcaster sends a notification on every channel.
type Broadcaster interface {
	Publish(ctx context.Context, n models.Notification) error
}

// InventoryHandler serves the read side: products, departments, history and notifications.
type InventoryHandler struct {
	catalog     Catalog
	directory   Directory
	history     MovementHistory
	inbox       NotificationInbox
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter. inbox and
// broadcaster may be nil.
func NewInventoryHandler(cat Catalog, directory Directory, history MovementHistory, inbox NotificationInbox, broadcaster Broadcaster, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{
		catalog:     cat,
		directory:   directory,
		history:     history,
		inbox:       inbox,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

type productsView struct {
	Products  []models.Product `json:"products"`
	Version   uint64           `json:"version"`
	FetchedAt string           `json:"fetchedAt,omitempty"`
}

func snapshotView(s catalog.Snapshot) productsView {
	v := productsView{Products: s.Products, Version: s.Version}
	if v.Products == nil {
		v.Products = []models.Product{}
	}
	if !s.FetchedAt.IsZero() {
		v.FetchedAt = s.FetchedAt.UTC().Format(time.RFC3339)
	}
	return v
}

// Products returns the cached catalog.
func (h *InventoryHandler) Products(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotView(h.catalog.Snapshot()))
}

// RefreshProducts forces a catalog reload.
func (h *InventoryHandler) RefreshProducts(c *gin.Context) {
	snap, err := h.catalog.Refresh(c.Request.Context())
	if err != nil {
		h.logger.Warn("manual product refresh failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to refresh products"})
		return
	}
	c.JSON(http.StatusOK, snapshotView(snap))
}

// Departments loads the directory, honoring its cache ttl; ?filter=true
// prepends the All entry.
func (h *InventoryHandler) Departments(c *gin.Context) {
	deps := h.directory.Load(c.Request.Context())
	if filter, _ := strconv.ParseBool(c.Query("filter")); filter {
		deps = h.directory.FilterOptions()
	}
	c.JSON(http.StatusOK, gin.H{"departments": deps, "fallback": h.directory.UsingFallback()})
}

// RefreshDepartments forces a directory reload. It never fails; a failed
// fetch is reported through the fallback flag.
func (h *InventoryHandler) RefreshDepartments(c *gin.Context) {
	deps := h.directory.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"departments": deps, "fallback": h.directory.UsingFallback()})
}

type movementView struct {
	models.MovementRecord
	DepartmentName string `json:"departmentName,omitempty"`
}

// Movements lists recent movements with department names resolved.
func (h *InventoryHandler) Movements(c *gin.Context) {
	limit := queryLimit(c, defaultHistoryLimit)
	records, err := h.history.ListMovements(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed listing movements", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load movements"})
		return
	}

	deps := h.directory.Departments()
	views := make([]movementView, 0, len(records))
	for _, r := range records {
		views = append(views, movementView{MovementRecord: r, DepartmentName: r.Department.Resolve(deps)})
	}
	c.JSON(http.StatusOK, gin.H{"movements": views})
}

// Notifications lists the in-app inbox.
func (h *InventoryHandler) Notifications(c *gin.Context) {
	if h.inbox == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []models.Notification{}})
		return
	}
	items, err := h.inbox.ListNotifications(c.Request.Context(), int64(queryLimit(c, defaultHistoryLimit)))
	if err != nil {
		h.logger.Error("failed listing notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// Broadcast sends a manual notification.
func (h *InventoryHandler) Broadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid broadcast payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications are not configured"})
		return
	}

	err := h.broadcaster.Publish(c.Request.Context(), models.Notification{Kind: models.NotificationBroadcast, Title: req.Title, Body: req.Message})
	if err != nil {
		h.logger.Error("failed sending broadcast", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send notification"})
		return
	}
	c.Status(http.StatusAccepted)
}

func queryLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > 200 {
		return 200
	}
	return limit
}
