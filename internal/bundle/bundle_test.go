package bundle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBundle() *Bundle {
	return &Bundle{
		ID:                uuid.MustParse("01900000-0000-7000-8000-000000000001"),
		Platform:          PlatformIOS,
		Channel:           "production",
		TargetAppVersion:  "1.x",
		FileHash:          "deadbeef",
		StorageURI:        "s3://bundles/b.zip",
		Enabled:           true,
		RolloutPercentage: 100,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Bundle)
		wantErr error
	}{
		{"valid version bundle", func(b *Bundle) {}, nil},
		{"valid fingerprint bundle", func(b *Bundle) {
			b.TargetAppVersion = ""
			b.FingerprintHash = "abc"
		}, nil},
		{"bad platform", func(b *Bundle) { b.Platform = "windows" }, ErrInvalidPlatform},
		{"missing channel", func(b *Bundle) { b.Channel = "" }, ErrMissingChannel},
		{"both strategies", func(b *Bundle) { b.FingerprintHash = "abc" }, ErrAmbiguousTarget},
		{"neither strategy", func(b *Bundle) { b.TargetAppVersion = "" }, ErrAmbiguousTarget},
		{"missing file hash", func(b *Bundle) { b.FileHash = "" }, ErrMissingFile},
		{"missing storage uri", func(b *Bundle) { b.StorageURI = "" }, ErrMissingFile},
		{"rollout above 100", func(b *Bundle) { b.RolloutPercentage = 101 }, ErrInvalidRollout},
		{"rollout below 0", func(b *Bundle) { b.RolloutPercentage = -1 }, ErrInvalidRollout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBundle()
			tt.mutate(b)
			err := b.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCompareIDs(t *testing.T) {
	a := uuid.MustParse("01900000-0000-7000-8000-000000000001")
	b := uuid.MustParse("01900000-0000-7000-8000-000000000002")

	assert.Negative(t, CompareIDs(a, b))
	assert.Positive(t, CompareIDs(b, a))
	assert.Zero(t, CompareIDs(a, a))
	assert.Negative(t, CompareIDs(uuid.Nil, a), "nil sentinel sorts before every real id")
}

func TestNewIDIsTimeOrdered(t *testing.T) {
	first, err := NewID()
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	second, err := NewID()
	require.NoError(t, err)

	assert.Negative(t, CompareIDs(first, second))
}
