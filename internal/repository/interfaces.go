package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/bundle"
)

// ErrNotFound is returned when a bundle id does not exist in the store
var ErrNotFound = errors.New("bundle not found")

// BundleFilter narrows management listings. Zero values mean "any".
type BundleFilter struct {
	Platform bundle.Platform
	Channel  string
	Limit    int
	Offset   int
}

// BundlePatch carries the only fields that may change after a bundle is
// created. Nil pointers leave the field untouched.
type BundlePatch struct {
	Enabled           *bool
	ShouldForceUpdate *bool
	Message           *string
	Metadata          map[string]interface{}
	RolloutPercentage *int
	TargetDeviceIDs   *[]string
}

// BundleRepository defines the interface for bundle-related store operations.
// ListBundles is the read contract the resolution engine consumes; adapters
// merge their own pagination so callers always see the complete set for a
// platform/channel pair.
type BundleRepository interface {
	// ListBundles returns every bundle for a platform/channel pair
	ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error)
	// List returns bundles matching the filter, newest first
	List(ctx context.Context, filter BundleFilter) ([]*bundle.Bundle, error)
	// Get returns a bundle by ID
	Get(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error)
	// Create inserts a new bundle record
	Create(ctx context.Context, b *bundle.Bundle) error
	// Update applies a patch to the mutable fields of an existing bundle
	Update(ctx context.Context, id uuid.UUID, patch BundlePatch) (*bundle.Bundle, error)
	// Delete removes a bundle record
	Delete(ctx context.Context, id uuid.UUID) error
	// Channels returns the distinct channel names present in the store
	Channels(ctx context.Context) ([]string, error)
}

// apply copies the patch onto a bundle record
func (p BundlePatch) apply(b *bundle.Bundle) {
	if p.Enabled != nil {
		b.Enabled = *p.Enabled
	}
	if p.ShouldForceUpdate != nil {
		b.ShouldForceUpdate = *p.ShouldForceUpdate
	}
	if p.Message != nil {
		b.Message = *p.Message
	}
	if p.Metadata != nil {
		b.Metadata = p.Metadata
	}
	if p.RolloutPercentage != nil {
		b.RolloutPercentage = *p.RolloutPercentage
	}
	if p.TargetDeviceIDs != nil {
		b.TargetDeviceIDs = *p.TargetDeviceIDs
	}
}
