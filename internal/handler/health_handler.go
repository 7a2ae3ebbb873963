package handler

import (
	"context"
	"net/http"
	"time"

	"artgen-go/internal/dto"
	"artgen-go/internal/repository"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthHandler reports liveness together with store reachability.
type HealthHandler struct {
	store   repository.Store
	backend string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store repository.Store, backend string) *HealthHandler {
	return &HealthHandler{store: store, backend: backend}
}

// Health pings the store
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} utils.Response{data=dto.HealthResponse}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, utils.Response{
			Code:    http.StatusServiceUnavailable,
			Message: err.Error(),
			Data:    dto.HealthResponse{Status: "unavailable", Storage: h.backend},
		})
		return
	}

	utils.SuccessResponse(c, dto.HealthResponse{Status: "ok", Storage: h.backend})
}
