package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/stockkeeper/internal/movement"
)

// respondError maps movement errors onto HTTP statuses. The body always
// carries the user-facing message.
func respondError(c *gin.Context, err error) {
	var validation *movement.ValidationError
	var rejected *movement.RejectedError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": movement.UserMessage(err), "violations": validation.Violations})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{"error": movement.UserMessage(err), "errors": rejected.Errors})
	case errors.Is(err, movement.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": movement.UserMessage(err)})
	case errors.Is(err, movement.ErrNetwork):
		c.JSON(http.StatusBadGateway, gin.H{"error": movement.UserMessage(err)})
	case errors.Is(err, movement.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, movement.ErrIndexOutOfRange), errors.Is(err, movement.ErrUnknownField), errors.Is(err, movement.ErrInvalidType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": movement.UserMessage(err)})
	}
}
