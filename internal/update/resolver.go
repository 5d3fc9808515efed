package update

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/logging"
)

// BundleSource is the read contract the engine consumes. Implementations
// (database and object-store adapters, the read-through cache) handle their
// own pagination and merging; the engine always sees the full list for a
// platform/channel pair.
type BundleSource interface {
	ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error)
}

// Status is the outcome class of a resolution
type Status string

const (
	StatusUpdate   Status = "UPDATE"
	StatusRollback Status = "ROLLBACK"
	StatusUpToDate Status = "UP_TO_DATE"
)

// Decision is the engine's verdict for one request. Bundle is nil exactly
// when Status is StatusUpToDate.
type Decision struct {
	Status            Status
	Bundle            *bundle.Bundle
	ShouldForceUpdate bool
}

// Engine resolves update checks. It is stateless and side-effect-free per
// invocation; a single instance serves all requests concurrently.
type Engine struct {
	source BundleSource
	logger *logging.Logger
}

func NewEngine(source BundleSource) *Engine {
	return &Engine{
		source: source,
		logger: logging.GetGlobalLogger(),
	}
}

// Resolve decides whether the requesting client should update, roll back,
// or stay put.
//
// Candidate filtering happens in this order: malformed records are dropped
// with a warning, then the native-compatibility floor, then strategy
// matching, then rollout gating, then the enabled flag. Among the survivors
// the highest ID wins; its position relative to the client's current bundle
// determines the outcome.
func (e *Engine) Resolve(ctx context.Context, req *Request) (Decision, error) {
	if err := req.Validate(); err != nil {
		return Decision{}, err
	}

	// An unparsable client version fails every range match below. Warn once
	// here so the resulting UP_TO_DATE answers are traceable to the cause.
	if !req.UsesFingerprint() {
		if _, err := semver.NewVersion(req.AppVersion); err != nil {
			e.logger.Warn("unparsable app version %q (platform=%s channel=%s), no updates will match: %v",
				req.AppVersion, req.Platform, req.Channel, err)
		}
	}

	bundles, err := e.source.ListBundles(ctx, req.Platform, req.Channel)
	if err != nil {
		// A store outage must surface as retryable, never as "up to date"
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	valid := make([]*bundle.Bundle, 0, len(bundles))
	var sawVersion, sawFingerprint bool
	for _, b := range bundles {
		if err := b.Validate(); err != nil {
			e.logger.Warn("skipping malformed bundle record %s: %v", b.ID, err)
			continue
		}
		if b.UsesFingerprint() {
			sawFingerprint = true
		} else {
			sawVersion = true
		}
		valid = append(valid, b)
	}

	// A channel must use one strategy consistently. Picking a side here
	// would serve updates the operator never intended for this client.
	if sawVersion && sawFingerprint {
		return Decision{}, fmt.Errorf("%w: platform=%s channel=%s", ErrStrategyMismatch, req.Platform, req.Channel)
	}

	selected := e.selectCandidate(valid, req)
	if selected == nil {
		// Nothing eligible. When the client's own bundle was disabled this
		// leaves it on a build we can no longer vouch for, but there is
		// nothing safe to roll back to either, so the conservative answer
		// is to report it current.
		return Decision{Status: StatusUpToDate}, nil
	}

	switch cmp := bundle.CompareIDs(selected.ID, req.CurrentBundleID); {
	case cmp > 0:
		return Decision{
			Status:            StatusUpdate,
			Bundle:            selected,
			ShouldForceUpdate: selected.ShouldForceUpdate,
		}, nil
	case cmp == 0:
		// Already current. The selected bundle's force flag is irrelevant:
		// it governs clients moving onto the bundle, not ones already there.
		return Decision{Status: StatusUpToDate}, nil
	default:
		// Everything eligible is older than what the client runs, which
		// means its bundle was disabled after shipping. Rollbacks are
		// always mandatory: the client is on a build pulled from service.
		return Decision{
			Status:            StatusRollback,
			Bundle:            selected,
			ShouldForceUpdate: true,
		}, nil
	}
}

// selectCandidate applies the per-bundle filters and returns the eligible
// bundle with the highest ID, or nil when none survive.
func (e *Engine) selectCandidate(bundles []*bundle.Bundle, req *Request) *bundle.Bundle {
	var selected *bundle.Bundle
	for _, b := range bundles {
		if !e.eligible(b, req) {
			continue
		}
		if selected == nil || bundle.CompareIDs(b.ID, selected.ID) > 0 {
			selected = b
		}
	}
	return selected
}

func (e *Engine) eligible(b *bundle.Bundle, req *Request) bool {
	// Native-compatibility floor applies before anything else, even to
	// disabled bundles: records below it do not exist for this client.
	if req.MinBundleID != uuid.Nil && bundle.CompareIDs(b.ID, req.MinBundleID) < 0 {
		return false
	}

	ok, err := Compatible(b, req)
	if err != nil {
		e.logger.Warn("skipping bundle %s: %v", b.ID, err)
		return false
	}
	if !ok {
		return false
	}

	// A device outside a partial rollout simply does not see the bundle;
	// that is not an error condition.
	if !Included(b, req.DeviceID) {
		return false
	}

	return b.Enabled
}
