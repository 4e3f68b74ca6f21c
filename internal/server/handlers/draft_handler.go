package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
	"github.com/mamadbah2/stockkeeper/internal/movement"
)

// DraftHandler exposes movement drafts and their submission over HTTP.
type DraftHandler struct {
	sessions *movement.SessionManager
	logger   *zap.Logger
}

// NewDraftHandler constructs the HTTP handler adapter.
func NewDraftHandler(sessions *movement.SessionManager, logger *zap.Logger) *DraftHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftHandler{sessions: sessions, logger: logger}
}

type draftView struct {
	ID    string          `json:"id"`
	State movement.State  `json:"state"`
	Draft *movement.Draft `json:"draft"`
}

func viewOf(s *movement.Session) draftView {
	d, state := s.View()
	return draftView{ID: s.ID(), State: state, Draft: d}
}

// Create opens a new draft.
func (h *DraftHandler) Create(c *gin.Context) {
	var req models.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create draft payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := h.sessions.Create(req.Type, req.StockManager)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(s))
}

// Get returns the draft and its submission state.
func (h *DraftHandler) Get(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

// Update changes header fields.
func (h *DraftHandler) Update(c *gin.Context) {
	var req models.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update draft payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.edit(c, http.StatusOK, func(d *movement.Draft) error {
		if req.Type != nil {
			if err := d.SetType(*req.Type); err != nil {
				return err
			}
		}
		if req.Supplier != nil {
			d.SetSupplier(*req.Supplier)
		}
		if req.Department != nil {
			d.SetDepartment(*req.Department)
		}
		if req.Notes != nil {
			d.SetNotes(*req.Notes)
		}
		return nil
	})
}

// AddItem appends an empty line item.
func (h *DraftHandler) AddItem(c *gin.Context) {
	h.edit(c, http.StatusCreated, func(d *movement.Draft) error {
		d.AddLineItem()
		return nil
	})
}

// UpdateItem sets one field of a line item.
func (h *DraftHandler) UpdateItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	var req models.UpdateLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.edit(c, http.StatusOK, func(d *movement.Draft) error {
		return d.UpdateLineItem(index, movement.LineField(req.Field), req.Value)
	})
}

// RemoveItem deletes a line item.
func (h *DraftHandler) RemoveItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	h.edit(c, http.StatusOK, func(d *movement.Draft) error {
		return d.RemoveLineItem(index)
	})
}

// Submit validates and submits the draft.
func (h *DraftHandler) Submit(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	outcome, err := s.Submit(c.Request.Context())
	if err != nil {
		h.logger.Info("draft submission failed", zap.String("draft_id", s.ID()), zap.Error(err))
		respondError(c, err)
		return
	}

	resp := gin.H{
		"movementId":   outcome.MovementID,
		"movement":     outcome.Movement,
		"totalValue":   outcome.TotalValue,
		"notification": outcome.Notification,
		"draft":        viewOf(s),
	}
	if outcome.DepartmentName != "" {
		resp["departmentName"] = outcome.DepartmentName
	}
	if outcome.NotificationErr != nil {
		resp["notificationError"] = outcome.NotificationErr.Error()
	}
	c.JSON(http.StatusCreated, resp)
}

// Discard drops a draft.
func (h *DraftHandler) Discard(c *gin.Context) {
	if err := h.sessions.Discard(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) edit(c *gin.Context, status int, fn func(d *movement.Draft) error) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.Edit(fn); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, viewOf(s))
}

func itemIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line item index must be an integer"})
		return 0, false
	}
	return index, true
}
