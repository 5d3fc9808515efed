package update

import "errors"

// Sentinel errors surfaced by the resolution engine
var (
	// ErrValidation means the request itself is malformed (missing or
	// contradictory strategy fields). Local to the request, never retryable.
	ErrValidation = errors.New("invalid update request")

	// ErrStoreUnavailable means the bundle store could not be read.
	// Retryable; must never be reported to the client as "up to date".
	ErrStoreUnavailable = errors.New("bundle store unavailable")

	// ErrStrategyMismatch means a channel holds both version-targeted and
	// fingerprint-targeted bundles. Configuration error; the engine refuses
	// to guess which strategy applies.
	ErrStrategyMismatch = errors.New("channel mixes compatibility strategies")
)
