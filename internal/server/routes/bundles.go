package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/otadrift/otadrift/internal/api/handlers"
)

// SetupBundleRoutes configures bundle management routes
func SetupBundleRoutes(rg *gin.RouterGroup, bundle *handlers.BundleHandler, m *Middleware) {
	protected := rg.Group("")
	protected.Use(m.Auth.RequireAuth())

	bundles := protected.Group("/bundles")
	{
		bundles.POST("", bundle.CreateBundle)
		bundles.GET("", bundle.ListBundles)
		bundles.GET("/:id", bundle.GetBundle)
		bundles.PATCH("/:id", bundle.UpdateBundle)
		bundles.DELETE("/:id", bundle.DeleteBundle)
	}

	protected.GET("/channels", bundle.ListChannels)
}
