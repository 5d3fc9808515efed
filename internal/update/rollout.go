package update

import (
	"hash/fnv"
	"slices"

	"github.com/otadrift/otadrift/internal/bundle"
)

// Included reports whether a device is inside a bundle's staged rollout.
//
// The decision is a pure function of (bundle.ID, deviceID), so a device that
// polls repeatedly always gets the same answer for the same bundle, across
// requests and across process restarts. Different bundles slice the device
// population differently, so being excluded from one rollout says nothing
// about the next.
//
// An explicit target-device list overrides the percentage entirely: when
// present, only listed devices are included.
func Included(b *bundle.Bundle, deviceID string) bool {
	if len(b.TargetDeviceIDs) > 0 {
		return slices.Contains(b.TargetDeviceIDs, deviceID)
	}

	// Full rollout: every device, no hashing
	if b.RolloutPercentage >= 100 {
		return true
	}
	if b.RolloutPercentage <= 0 {
		return false
	}

	// A client that never sent a device token cannot be bucketed
	// deterministically, so it stays out of partial rollouts.
	if deviceID == "" {
		return false
	}

	return rolloutBucket(b, deviceID) < uint64(b.RolloutPercentage)
}

// rolloutBucket maps (bundle.ID, deviceID) to a stable value in [0,100)
func rolloutBucket(b *bundle.Bundle, deviceID string) uint64 {
	h := fnv.New64a()
	h.Write(b.ID[:])
	h.Write([]byte(deviceID))
	return h.Sum64() % 100
}
