package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/otadrift/otadrift/internal/api/handlers"
)

// SetupVersionRoutes configures the public build-info endpoint
func SetupVersionRoutes(rg *gin.RouterGroup, version *handlers.VersionHandler) {
	rg.GET("/version", version.Get)
}
