package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/bundle"
	cfgpkg "github.com/otadrift/otadrift/internal/config"
)

const s3KeyPrefix = "bundles"

// s3Client is the slice of the S3 API this store uses; narrowed for tests
type s3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Repository keeps one JSON document per bundle under
// bundles/<platform>/<channel>/<id>.json. Object listings are paginated by
// S3 at 1000 keys; pages are merged here, never exposed to the engine.
type S3Repository struct {
	client s3Client
	bucket string
}

func NewS3Repository(ctx context.Context, cfg *cfgpkg.Config) (*S3Repository, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Repository{client: client, bucket: cfg.S3Bucket}, nil
}

func (r *S3Repository) ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error) {
	prefix := path.Join(s3KeyPrefix, string(platform), channel) + "/"

	keys, err := r.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	bundles := make([]*bundle.Bundle, 0, len(keys))
	for _, key := range keys {
		b, err := r.getByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	sortNewestFirst(bundles)
	return bundles, nil
}

func (r *S3Repository) List(ctx context.Context, filter BundleFilter) ([]*bundle.Bundle, error) {
	prefix := s3KeyPrefix + "/"
	if filter.Platform != "" {
		prefix = path.Join(s3KeyPrefix, string(filter.Platform)) + "/"
		if filter.Channel != "" {
			prefix = path.Join(s3KeyPrefix, string(filter.Platform), filter.Channel) + "/"
		}
	}

	keys, err := r.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var bundles []*bundle.Bundle
	for _, key := range keys {
		if filter.Channel != "" && keyChannel(key) != filter.Channel {
			continue
		}
		b, err := r.getByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	sortNewestFirst(bundles)
	return paginate(bundles, filter.Offset, filter.Limit), nil
}

func (r *S3Repository) Get(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	key, err := r.findKey(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.getByKey(ctx, key)
}

func (r *S3Repository) Create(ctx context.Context, b *bundle.Bundle) error {
	return r.put(ctx, b)
}

func (r *S3Repository) Update(ctx context.Context, id uuid.UUID, patch BundlePatch) (*bundle.Bundle, error) {
	b, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(b)
	if err := r.put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *S3Repository) Delete(ctx context.Context, id uuid.UUID) error {
	key, err := r.findKey(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting bundle object: %w", err)
	}
	return nil
}

func (r *S3Repository) Channels(ctx context.Context) ([]string, error) {
	keys, err := r.listKeys(ctx, s3KeyPrefix+"/")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var channels []string
	for _, key := range keys {
		channel := keyChannel(key)
		if channel != "" && !seen[channel] {
			seen[channel] = true
			channels = append(channels, channel)
		}
	}
	sort.Strings(channels)
	return channels, nil
}

// listKeys merges every listing page under the prefix
func (r *S3Repository) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var continuation *string

	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("listing bundle objects: %w", err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".json") {
				keys = append(keys, key)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}

	return keys, nil
}

func (r *S3Repository) findKey(ctx context.Context, id uuid.UUID) (string, error) {
	keys, err := r.listKeys(ctx, s3KeyPrefix+"/")
	if err != nil {
		return "", err
	}
	suffix := "/" + id.String() + ".json"
	for _, key := range keys {
		if strings.HasSuffix(key, suffix) {
			return key, nil
		}
	}
	return "", ErrNotFound
}

func (r *S3Repository) getByKey(ctx context.Context, key string) (*bundle.Bundle, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading bundle object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bundle object %s: %w", key, err)
	}

	var b bundle.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding bundle object %s: %w", key, err)
	}
	return &b, nil
}

func (r *S3Repository) put(ctx context.Context, b *bundle.Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding bundle %s: %w", b.ID, err)
	}

	key := path.Join(s3KeyPrefix, string(b.Platform), b.Channel, b.ID.String()+".json")
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("writing bundle object %s: %w", key, err)
	}
	return nil
}

// keyChannel extracts the channel segment from bundles/<platform>/<channel>/<id>.json
func keyChannel(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[2]
}
