package routes

import (
	"github.com/otadrift/otadrift/internal/api/handlers"
	"github.com/otadrift/otadrift/internal/api/middleware"
)

// Handlers contains all the route handlers
type Handlers struct {
	Update  *handlers.UpdateHandler
	Bundle  *handlers.BundleHandler
	Health  *handlers.HealthHandler
	Version *handlers.VersionHandler
}

// Middleware contains all the middleware
type Middleware struct {
	Auth *middleware.AuthMiddleware
}
