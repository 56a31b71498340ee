package dispatch

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docket/internal/logger"
	"docket/pkg/errors"
	"docket/pkg/models"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/events", h.HandleEvent)
	}
}

// HandleEvent accepts one change event from the data layer's change-capture
// mechanism and runs it through the dispatch pipeline. Expected no-ops come
// back as 200 with status "skipped"; only malformed events and unexpected
// failures produce an error status.
func (h *Handler) HandleEvent(c *gin.Context) {
	var event models.ChangeEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	result, err := h.service.Process(c.Request.Context(), event)
	if err != nil {
		h.logger.ErrorwCtx(c.Request.Context(), "Event processing failed",
			"table", event.Table, "operation", event.Operation, "error", err)
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, result)
}
