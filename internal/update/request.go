package update

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/bundle"
)

// Request carries everything a single update check needs. One value is built
// per HTTP call from the client headers; nothing in it is shared or mutated.
type Request struct {
	Platform bundle.Platform
	Channel  string

	// CurrentBundleID is uuid.Nil on first run (the client still runs the
	// bundle embedded in the binary).
	CurrentBundleID uuid.UUID

	// Exactly one of AppVersion / FingerprintHash is set, matching the
	// channel's configured strategy.
	AppVersion      string
	FingerprintHash string

	// MinBundleID is the native-compatibility floor: bundles created before
	// it are structurally incompatible with the installed native build and
	// are excluded regardless of any other state. uuid.Nil when absent.
	MinBundleID uuid.UUID

	// DeviceID is a stable per-device token used only for staged-rollout
	// gating. May be empty; such clients never enter partial rollouts.
	DeviceID string
}

// UsesFingerprint reports which compatibility strategy the request carries
func (r *Request) UsesFingerprint() bool {
	return r.FingerprintHash != ""
}

// Validate rejects structurally invalid requests before any store access
func (r *Request) Validate() error {
	if !r.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrValidation, r.Platform)
	}
	if r.Channel == "" {
		return fmt.Errorf("%w: missing channel", ErrValidation)
	}
	if r.AppVersion != "" && r.FingerprintHash != "" {
		return fmt.Errorf("%w: both app version and fingerprint hash present", ErrValidation)
	}
	if r.AppVersion == "" && r.FingerprintHash == "" {
		return fmt.Errorf("%w: neither app version nor fingerprint hash present", ErrValidation)
	}
	return nil
}
