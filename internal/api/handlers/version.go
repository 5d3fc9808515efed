package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/otadrift/otadrift/internal/utils"
	"github.com/otadrift/otadrift/internal/version"
)

type VersionHandler struct{}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// Get returns the server build information
func (h *VersionHandler) Get(c *gin.Context) {
	utils.HandleSuccess(c, version.GetBuildInfo())
}
