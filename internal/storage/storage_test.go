package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		scheme  string
		bucket  string
		key     string
		wantErr bool
	}{
		{name: "s3 uri", uri: "s3://my-bucket/bundles/app.zip", scheme: "s3", bucket: "my-bucket", key: "bundles/app.zip"},
		{name: "gs uri", uri: "gs://releases/v2/app.zip", scheme: "gs", bucket: "releases", key: "v2/app.zip"},
		{name: "nested key", uri: "s3://b/a/b/c/d.zip", scheme: "s3", bucket: "b", key: "a/b/c/d.zip"},
		{name: "missing scheme", uri: "my-bucket/key", wantErr: true},
		{name: "missing key", uri: "s3://my-bucket", wantErr: true},
		{name: "missing bucket", uri: "s3:///key", wantErr: true},
		{name: "empty", uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme, bucket, key, err := parseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

type fakePresign struct {
	lastInput *s3.GetObjectInput
	err       error
}

func (f *fakePresign) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastInput = params
	return &v4.PresignedHTTPRequest{
		URL: "https://" + aws.ToString(params.Bucket) + ".s3.amazonaws.com/" + aws.ToString(params.Key) + "?signed",
	}, nil
}

func TestS3Storage_ResolveDownloadURL(t *testing.T) {
	fake := &fakePresign{}
	store := &S3Storage{presign: fake, ttl: 15 * time.Minute}

	url, err := store.ResolveDownloadURL(context.Background(), "s3://my-bucket/bundles/app.zip")
	require.NoError(t, err)

	assert.Equal(t, "https://my-bucket.s3.amazonaws.com/bundles/app.zip?signed", url)
	assert.Equal(t, "my-bucket", aws.ToString(fake.lastInput.Bucket))
	assert.Equal(t, "bundles/app.zip", aws.ToString(fake.lastInput.Key))
}

func TestS3Storage_RejectsForeignScheme(t *testing.T) {
	store := &S3Storage{presign: &fakePresign{}, ttl: time.Minute}

	_, err := store.ResolveDownloadURL(context.Background(), "gs://bucket/key")
	assert.Error(t, err)
}

func TestS3Storage_PresignFailurePropagates(t *testing.T) {
	boom := errors.New("signer unavailable")
	store := &S3Storage{presign: &fakePresign{err: boom}, ttl: time.Minute}

	_, err := store.ResolveDownloadURL(context.Background(), "s3://bucket/key")
	assert.ErrorIs(t, err, boom)
}
