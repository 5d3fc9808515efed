package mapper

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/api/dto/v1/bundles"
	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/repository"
)

// BundleToResponse converts a domain Bundle to a management API DTO
func BundleToResponse(b *bundle.Bundle) *bundles.Response {
	if b == nil {
		return nil
	}

	return &bundles.Response{
		ID:                b.ID.String(),
		Platform:          string(b.Platform),
		Channel:           b.Channel,
		TargetAppVersion:  b.TargetAppVersion,
		FingerprintHash:   b.FingerprintHash,
		FileHash:          b.FileHash,
		StorageURI:        b.StorageURI,
		GitCommitHash:     b.GitCommitHash,
		Message:           b.Message,
		Enabled:           b.Enabled,
		ShouldForceUpdate: b.ShouldForceUpdate,
		RolloutPercentage: b.RolloutPercentage,
		TargetDeviceIDs:   b.TargetDeviceIDs,
		Metadata:          b.Metadata,
		CreatedAt:         b.CreatedAt,
	}
}

// BundlesToListResponse converts a slice of domain Bundles to the list DTO
func BundlesToListResponse(items []*bundle.Bundle) *bundles.ListResponse {
	result := make([]bundles.Response, len(items))
	for i, b := range items {
		result[i] = *BundleToResponse(b)
	}
	return &bundles.ListResponse{
		Bundles: result,
		Count:   len(result),
	}
}

// CreateRequestToBundle builds a domain Bundle from a publish request
func CreateRequestToBundle(req *bundles.CreateRequest) (*bundle.Bundle, error) {
	b := &bundle.Bundle{
		Platform:          bundle.Platform(req.Platform),
		Channel:           req.Channel,
		TargetAppVersion:  req.TargetAppVersion,
		FingerprintHash:   req.FingerprintHash,
		FileHash:          req.FileHash,
		StorageURI:        req.StorageURI,
		GitCommitHash:     req.GitCommitHash,
		Message:           req.Message,
		Enabled:           true,
		ShouldForceUpdate: req.ShouldForceUpdate,
		RolloutPercentage: 100,
		TargetDeviceIDs:   req.TargetDeviceIDs,
		Metadata:          req.Metadata,
	}

	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid bundle id %q: %w", req.ID, err)
		}
		b.ID = id
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}
	if req.RolloutPercentage != nil {
		b.RolloutPercentage = *req.RolloutPercentage
	}

	return b, nil
}

// UpdateRequestToPatch converts a patch request to a repository patch
func UpdateRequestToPatch(req *bundles.UpdateRequest) repository.BundlePatch {
	return repository.BundlePatch{
		Enabled:           req.Enabled,
		ShouldForceUpdate: req.ShouldForceUpdate,
		Message:           req.Message,
		RolloutPercentage: req.RolloutPercentage,
		TargetDeviceIDs:   req.TargetDeviceIDs,
		Metadata:          req.Metadata,
	}
}
