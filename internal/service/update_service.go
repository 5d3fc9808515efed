package service

import (
	"context"

	"github.com/otadrift/otadrift/internal/storage"
	"github.com/otadrift/otadrift/internal/update"
)

// UpdateService answers client update checks. It owns the resolution engine
// and the response builder; handlers only parse headers and render JSON.
type UpdateService struct {
	engine  *update.Engine
	builder *update.ResponseBuilder
}

// NewUpdateService creates a new update service. The source is usually the
// bundle cache wrapping the configured store.
func NewUpdateService(source update.BundleSource, store storage.Storage) *UpdateService {
	return &UpdateService{
		engine:  update.NewEngine(source),
		builder: update.NewResponseBuilder(store),
	}
}

// CheckForUpdate resolves the request and maps the decision onto the wire
// payload. Errors keep their engine sentinels so the handler can pick the
// right status code.
func (s *UpdateService) CheckForUpdate(ctx context.Context, req *update.Request) (*update.Response, error) {
	decision, err := s.engine.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, decision)
}
