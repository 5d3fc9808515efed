package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otadrift/otadrift/internal/bundle"
)

// fakeS3 is an in-memory object store that paginates listings like the real
// service, one key per page, to exercise the continuation-token merging.
type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) sortedKeys(prefix string) []string {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	keys := f.sortedKeys(aws.ToString(params.Prefix))

	start := 0
	if params.ContinuationToken != nil {
		for i, key := range keys {
			if key == aws.ToString(params.ContinuationToken) {
				start = i
				break
			}
		}
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if start >= len(keys) {
		return out, nil
	}

	out.Contents = []types.Object{{Key: aws.String(keys[start])}}
	if start+1 < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[start+1])
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newS3TestRepo() (*S3Repository, *fakeS3) {
	fake := newFakeS3()
	return &S3Repository{client: fake, bucket: "test-bucket"}, fake
}

func s3TestBundle(n int, channel string) *bundle.Bundle {
	return &bundle.Bundle{
		ID:                uuid.MustParse(fmt.Sprintf("01900000-0000-7000-8000-%012d", n)),
		Platform:          bundle.PlatformAndroid,
		Channel:           channel,
		TargetAppVersion:  "2.x",
		FileHash:          "abc123",
		StorageURI:        "s3://files/bundle.zip",
		Enabled:           true,
		RolloutPercentage: 100,
		CreatedAt:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestS3Repository_CreateAndGet(t *testing.T) {
	repo, fake := newS3TestRepo()
	ctx := context.Background()

	b := s3TestBundle(1, "production")
	require.NoError(t, repo.Create(ctx, b))
	require.Len(t, fake.objects, 1)

	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.Channel, got.Channel)
}

func TestS3Repository_Get_NotFound(t *testing.T) {
	repo, _ := newS3TestRepo()

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Repository_ListBundles_MergesPages(t *testing.T) {
	repo, _ := newS3TestRepo()
	ctx := context.Background()

	// The fake returns one key per page; five bundles means five pages
	for n := 1; n <= 5; n++ {
		require.NoError(t, repo.Create(ctx, s3TestBundle(n, "production")))
	}
	require.NoError(t, repo.Create(ctx, s3TestBundle(6, "staging")))

	bundles, err := repo.ListBundles(ctx, bundle.PlatformAndroid, "production")
	require.NoError(t, err)
	assert.Len(t, bundles, 5)
}

func TestS3Repository_Update_RoundTrips(t *testing.T) {
	repo, _ := newS3TestRepo()
	ctx := context.Background()

	b := s3TestBundle(1, "production")
	require.NoError(t, repo.Create(ctx, b))

	disabled := false
	updated, err := repo.Update(ctx, b.ID, BundlePatch{Enabled: &disabled})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
}

func TestS3Repository_Delete(t *testing.T) {
	repo, fake := newS3TestRepo()
	ctx := context.Background()

	b := s3TestBundle(1, "production")
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.Empty(t, fake.objects)

	assert.ErrorIs(t, repo.Delete(ctx, b.ID), ErrNotFound)
}

func TestS3Repository_Channels(t *testing.T) {
	repo, _ := newS3TestRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, s3TestBundle(1, "production")))
	require.NoError(t, repo.Create(ctx, s3TestBundle(2, "staging")))
	require.NoError(t, repo.Create(ctx, s3TestBundle(3, "production")))

	channels, err := repo.Channels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"production", "staging"}, channels)
}

func TestS3Repository_MalformedObjectSurfacesError(t *testing.T) {
	repo, fake := newS3TestRepo()
	ctx := context.Background()

	fake.objects["bundles/android/production/garbage.json"] = []byte("{not json")

	_, err := repo.ListBundles(ctx, bundle.PlatformAndroid, "production")
	assert.Error(t, err)
}
