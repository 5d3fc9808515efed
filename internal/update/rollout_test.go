package update

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otadrift/otadrift/internal/bundle"
)

func TestIncluded_FullRolloutIncludesEveryone(t *testing.T) {
	b := testBundle(1, nil) // 100%

	for i := 0; i < 100; i++ {
		assert.True(t, Included(b, fmt.Sprintf("device-%d", i)))
	}
	assert.True(t, Included(b, ""), "full rollout needs no device token")
}

func TestIncluded_ZeroRolloutExcludesEveryone(t *testing.T) {
	b := testBundle(1, func(b *bundle.Bundle) { b.RolloutPercentage = 0 })

	for i := 0; i < 100; i++ {
		assert.False(t, Included(b, fmt.Sprintf("device-%d", i)))
	}
}

func TestIncluded_Deterministic(t *testing.T) {
	b := testBundle(1, func(b *bundle.Bundle) { b.RolloutPercentage = 50 })

	for i := 0; i < 50; i++ {
		deviceID := fmt.Sprintf("device-%d", i)
		first := Included(b, deviceID)
		for j := 0; j < 10; j++ {
			assert.Equal(t, first, Included(b, deviceID), "device %s flipped", deviceID)
		}
	}
}

func TestIncluded_DifferentBundlesSliceDifferently(t *testing.T) {
	a := testBundle(1, func(b *bundle.Bundle) { b.RolloutPercentage = 50 })
	b := testBundle(2, func(b *bundle.Bundle) { b.RolloutPercentage = 50 })

	// The two bundles must not gate the exact same device population;
	// with 200 devices at 50% an identical split would mean the bundle id
	// is not part of the hash input.
	differ := false
	for i := 0; i < 200; i++ {
		deviceID := fmt.Sprintf("device-%d", i)
		if Included(a, deviceID) != Included(b, deviceID) {
			differ = true
			break
		}
	}
	assert.True(t, differ)
}

func TestIncluded_ApproximatesPercentage(t *testing.T) {
	b := testBundle(1, func(b *bundle.Bundle) { b.RolloutPercentage = 30 })

	included := 0
	const devices = 5000
	for i := 0; i < devices; i++ {
		if Included(b, fmt.Sprintf("device-%d", i)) {
			included++
		}
	}

	share := float64(included) / devices * 100
	assert.InDelta(t, 30, share, 5, "observed share %.1f%%", share)
}

func TestIncluded_MissingDeviceIDStaysOut(t *testing.T) {
	b := testBundle(1, func(b *bundle.Bundle) { b.RolloutPercentage = 99 })
	assert.False(t, Included(b, ""))
}

func TestIncluded_TargetDeviceListOverridesPercentage(t *testing.T) {
	b := testBundle(1, func(b *bundle.Bundle) {
		b.RolloutPercentage = 0
		b.TargetDeviceIDs = []string{"qa-device"}
	})

	assert.True(t, Included(b, "qa-device"))
	assert.False(t, Included(b, "other-device"))
}
