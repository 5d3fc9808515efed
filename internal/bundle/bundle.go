package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Platform identifies the native platform a bundle targets
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// NilID is the sentinel a client sends before any bundle was ever applied
var NilID = uuid.Nil

// Valid reports whether the platform is one of the supported values
func (p Platform) Valid() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// Bundle is a single release artifact record. IDs are UUIDv7, so their byte
// order is creation order; that ordering, not the enabled flag, defines
// which bundle is "latest".
//
// Everything except Enabled, ShouldForceUpdate, Message, Metadata,
// RolloutPercentage and TargetDeviceIDs is immutable after creation.
type Bundle struct {
	ID                uuid.UUID              `json:"id"`
	Platform          Platform               `json:"platform"`
	Channel           string                 `json:"channel"`
	TargetAppVersion  string                 `json:"targetAppVersion,omitempty"`
	FingerprintHash   string                 `json:"fingerprintHash,omitempty"`
	FileHash          string                 `json:"fileHash"`
	StorageURI        string                 `json:"storageUri"`
	GitCommitHash     string                 `json:"gitCommitHash,omitempty"`
	Message           string                 `json:"message,omitempty"`
	Enabled           bool                   `json:"enabled"`
	ShouldForceUpdate bool                   `json:"shouldForceUpdate"`
	RolloutPercentage int                    `json:"rolloutPercentage"`
	TargetDeviceIDs   []string               `json:"targetDeviceIds,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
}

var (
	ErrInvalidPlatform = errors.New("invalid platform")
	ErrMissingChannel  = errors.New("missing channel")
	ErrMissingFile     = errors.New("missing file hash or storage uri")
	ErrAmbiguousTarget = errors.New("exactly one of targetAppVersion or fingerprintHash must be set")
	ErrInvalidRollout  = errors.New("rollout percentage must be between 0 and 100")
)

// NewID returns a fresh UUIDv7 bundle identifier
func NewID() (uuid.UUID, error) {
	return uuid.NewV7()
}

// Validate checks the structural invariants of a bundle record.
// A record failing validation is treated as malformed and skipped
// during resolution rather than aborting the whole request.
func (b *Bundle) Validate() error {
	if b.ID == uuid.Nil {
		return fmt.Errorf("bundle id is nil")
	}
	if !b.Platform.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlatform, b.Platform)
	}
	if b.Channel == "" {
		return ErrMissingChannel
	}
	if (b.TargetAppVersion == "") == (b.FingerprintHash == "") {
		return ErrAmbiguousTarget
	}
	if b.FileHash == "" || b.StorageURI == "" {
		return ErrMissingFile
	}
	if b.RolloutPercentage < 0 || b.RolloutPercentage > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidRollout, b.RolloutPercentage)
	}
	return nil
}

// UsesFingerprint reports whether this bundle matches clients by native
// build fingerprint rather than by semantic version range
func (b *Bundle) UsesFingerprint() bool {
	return b.FingerprintHash != ""
}

// CompareIDs orders two bundle identifiers by creation time.
// UUIDv7 encodes a millisecond timestamp in its leading bytes, so a
// lexicographic byte comparison is a creation-order comparison.
func CompareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
