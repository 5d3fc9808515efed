package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/cache"
	"github.com/otadrift/otadrift/internal/logging"
	"github.com/otadrift/otadrift/internal/repository"
)

// BundleService handles operator-facing bundle management. Every write
// invalidates the read cache so running clients see the change on their
// next poll, most importantly the enabled flag that drives rollbacks.
type BundleService struct {
	repo   repository.BundleRepository
	cache  *cache.BundleCache
	logger *logging.Logger
}

func NewBundleService(repo repository.BundleRepository, cache *cache.BundleCache) *BundleService {
	return &BundleService{
		repo:   repo,
		cache:  cache,
		logger: logging.GetGlobalLogger(),
	}
}

// Create registers a new bundle record, assigning a fresh time-ordered id
// when the publisher did not supply one
func (s *BundleService) Create(ctx context.Context, b *bundle.Bundle) (*bundle.Bundle, error) {
	if b.ID == uuid.Nil {
		id, err := bundle.NewID()
		if err != nil {
			return nil, fmt.Errorf("generating bundle id: %w", err)
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.repo.Get(ctx, b.ID); err == nil {
		return nil, fmt.Errorf("%w: bundle %s already exists", ErrConflict, b.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Info("created bundle %s (%s/%s)", b.ID, b.Platform, b.Channel)
	return b, nil
}

func (s *BundleService) Get(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BundleService) List(ctx context.Context, filter repository.BundleFilter) ([]*bundle.Bundle, error) {
	return s.repo.List(ctx, filter)
}

// Update applies a patch to the mutable bundle fields. Disabling a bundle
// here is the rollback lever: the next poll of an affected client resolves
// to the newest remaining candidate.
func (s *BundleService) Update(ctx context.Context, id uuid.UUID, patch repository.BundlePatch) (*bundle.Bundle, error) {
	if patch.RolloutPercentage != nil {
		if p := *patch.RolloutPercentage; p < 0 || p > 100 {
			return nil, fmt.Errorf("%w: rollout percentage %d out of range", ErrValidation, p)
		}
	}

	b, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Info("updated bundle %s (enabled=%t)", b.ID, b.Enabled)
	return b, nil
}

func (s *BundleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.cache.Invalidate()
	s.logger.Info("deleted bundle %s", id)
	return nil
}

func (s *BundleService) Channels(ctx context.Context) ([]string, error) {
	return s.repo.Channels(ctx)
}
