package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/otadrift/otadrift/internal/api/dto/common"
	"github.com/otadrift/otadrift/internal/repository"
	"github.com/otadrift/otadrift/internal/utils"
)

type HealthHandler struct {
	repo repository.BundleRepository
}

func NewHealthHandler(repo repository.BundleRepository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// Check probes the bundle store with a cheap read. A store outage turns the
// health endpoint red so the load balancer stops routing update checks here.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.repo.Channels(ctx); err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Bundle store connection error")
		return
	}

	c.JSON(http.StatusOK, common.NewMessageResponse("Health check OK"))
}
