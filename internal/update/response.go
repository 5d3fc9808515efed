package update

import (
	"context"
	"fmt"
)

// URLResolver turns an opaque storage locator into a fetchable URL.
// Implemented by the storage adapters (S3 presign, MinIO, Firebase/GCS).
type URLResolver interface {
	ResolveDownloadURL(ctx context.Context, storageURI string) (string, error)
}

// Response is the wire payload for an update check. Message is a pointer so
// the field serializes as null rather than disappearing when no release note
// was set, matching what clients already parse.
type Response struct {
	Status            Status                 `json:"status"`
	ID                string                 `json:"id,omitempty"`
	FileURL           string                 `json:"fileUrl,omitempty"`
	FileHash          string                 `json:"fileHash,omitempty"`
	ShouldForceUpdate bool                   `json:"shouldForceUpdate"`
	Message           *string                `json:"message"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// ResponseBuilder maps engine decisions onto the wire format, resolving the
// bundle's storage locator to a downloadable URL only when a bundle is
// actually being served.
type ResponseBuilder struct {
	storage URLResolver
}

func NewResponseBuilder(storage URLResolver) *ResponseBuilder {
	return &ResponseBuilder{storage: storage}
}

func (rb *ResponseBuilder) Build(ctx context.Context, decision Decision) (*Response, error) {
	if decision.Status == StatusUpToDate {
		return &Response{Status: StatusUpToDate}, nil
	}

	b := decision.Bundle
	fileURL, err := rb.storage.ResolveDownloadURL(ctx, b.StorageURI)
	if err != nil {
		return nil, fmt.Errorf("resolve download url for bundle %s: %w", b.ID, err)
	}

	var message *string
	if b.Message != "" {
		message = &b.Message
	}

	return &Response{
		Status:            decision.Status,
		ID:                b.ID.String(),
		FileURL:           fileURL,
		FileHash:          b.FileHash,
		ShouldForceUpdate: decision.ShouldForceUpdate,
		Message:           message,
		Metadata:          b.Metadata,
	}, nil
}
