package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/otadrift/otadrift/internal/api/handlers"
)

// SetupUpdateRoutes configures the device update-check endpoint
func SetupUpdateRoutes(rg *gin.RouterGroup, update *handlers.UpdateHandler) {
	rg.GET("/update/check", update.Check)
}
