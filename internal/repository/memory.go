package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/bundle"
)

// MemoryRepository is an in-process bundle store. Used by the memory backend
// in development and as the store double in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	bundles map[uuid.UUID]*bundle.Bundle
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bundles: make(map[uuid.UUID]*bundle.Bundle),
	}
}

func (m *MemoryRepository) ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*bundle.Bundle
	for _, b := range m.bundles {
		if b.Platform == platform && b.Channel == channel {
			out = append(out, cloneBundle(b))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryRepository) List(ctx context.Context, filter BundleFilter) ([]*bundle.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*bundle.Bundle
	for _, b := range m.bundles {
		if filter.Platform != "" && b.Platform != filter.Platform {
			continue
		}
		if filter.Channel != "" && b.Channel != filter.Channel {
			continue
		}
		out = append(out, cloneBundle(b))
	}
	sortNewestFirst(out)
	return paginate(out, filter.Offset, filter.Limit), nil
}

func (m *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bundles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBundle(b), nil
}

func (m *MemoryRepository) Create(ctx context.Context, b *bundle.Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bundles[b.ID] = cloneBundle(b)
	return nil
}

func (m *MemoryRepository) Update(ctx context.Context, id uuid.UUID, patch BundlePatch) (*bundle.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bundles[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.apply(b)
	return cloneBundle(b), nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bundles[id]; !ok {
		return ErrNotFound
	}
	delete(m.bundles, id)
	return nil
}

func (m *MemoryRepository) Channels(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, b := range m.bundles {
		if !seen[b.Channel] {
			seen[b.Channel] = true
			out = append(out, b.Channel)
		}
	}
	sort.Strings(out)
	return out, nil
}

func cloneBundle(b *bundle.Bundle) *bundle.Bundle {
	clone := *b
	if b.TargetDeviceIDs != nil {
		clone.TargetDeviceIDs = append([]string(nil), b.TargetDeviceIDs...)
	}
	if b.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(b.Metadata))
		for k, v := range b.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

func sortNewestFirst(bundles []*bundle.Bundle) {
	sort.Slice(bundles, func(i, j int) bool {
		return bundle.CompareIDs(bundles[i].ID, bundles[j].ID) > 0
	})
}

func paginate(bundles []*bundle.Bundle, offset, limit int) []*bundle.Bundle {
	if offset >= len(bundles) {
		return nil
	}
	bundles = bundles[offset:]
	if limit > 0 && limit < len(bundles) {
		bundles = bundles[:limit]
	}
	return bundles
}
