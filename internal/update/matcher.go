package update

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/otadrift/otadrift/internal/bundle"
)

// Compatible reports whether a bundle can be applied by the requesting
// client under the request's strategy.
//
// Version strategy: the client's concrete version must satisfy the bundle's
// target range ("1.2.3", "1.x", "~1.2.0", ">=1.2.0 <2.0.0", "*", ...). An
// unparsable client version is incompatible with everything: we fail closed
// rather than ship an update to a client we cannot reason about.
//
// Fingerprint strategy: exact hash equality, nothing fuzzy. A native rebuild
// produces a new fingerprint and invalidates every bundle built against the
// old one.
//
// A bundle using the opposite strategy from the request is simply not
// compatible; whole-channel strategy mixing is detected by the engine and
// rejected as a configuration error before matching happens.
//
// The returned error is a record-level problem (unparsable target range on
// the bundle); callers treat it as a malformed record and skip the bundle.
func Compatible(b *bundle.Bundle, req *Request) (bool, error) {
	if req.UsesFingerprint() {
		if !b.UsesFingerprint() {
			return false, nil
		}
		return b.FingerprintHash == req.FingerprintHash, nil
	}

	if b.UsesFingerprint() {
		return false, nil
	}

	clientVersion, err := semver.NewVersion(req.AppVersion)
	if err != nil {
		// Fail closed: a buggy version string disables updates for this
		// client but must not break the check endpoint.
		return false, nil
	}

	targetRange, err := semver.NewConstraint(b.TargetAppVersion)
	if err != nil {
		return false, fmt.Errorf("unparsable target app version %q: %w", b.TargetAppVersion, err)
	}

	return targetRange.Check(clientVersion), nil
}
