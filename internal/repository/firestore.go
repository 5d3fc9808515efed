package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/otadrift/otadrift/internal/bundle"
	fb "github.com/otadrift/otadrift/internal/config/firebase"
)

const bundlesCollection = "bundles"

// firestoreBundle is the document shape stored in the bundles collection
type firestoreBundle struct {
	ID                string                 `firestore:"id"`
	Platform          string                 `firestore:"platform"`
	Channel           string                 `firestore:"channel"`
	TargetAppVersion  string                 `firestore:"targetAppVersion"`
	FingerprintHash   string                 `firestore:"fingerprintHash"`
	FileHash          string                 `firestore:"fileHash"`
	StorageURI        string                 `firestore:"storageUri"`
	GitCommitHash     string                 `firestore:"gitCommitHash"`
	Message           string                 `firestore:"message"`
	Enabled           bool                   `firestore:"enabled"`
	ShouldForceUpdate bool                   `firestore:"shouldForceUpdate"`
	RolloutPercentage int                    `firestore:"rolloutPercentage"`
	TargetDeviceIDs   []string               `firestore:"targetDeviceIds"`
	Metadata          map[string]interface{} `firestore:"metadata"`
	CreatedAt         time.Time              `firestore:"createdAt"`
}

// FirestoreRepository stores bundle records as Firestore documents keyed by
// bundle id
type FirestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(ctx context.Context) (*FirestoreRepository, error) {
	app := fb.GetApp()
	if app == nil {
		return nil, fmt.Errorf("firebase app not initialized")
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreRepository{client: client}, nil
}

func (r *FirestoreRepository) Close() error {
	return r.client.Close()
}

func (r *FirestoreRepository) ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error) {
	iter := r.client.Collection(bundlesCollection).
		Where("platform", "==", string(platform)).
		Where("channel", "==", channel).
		Documents(ctx)
	defer iter.Stop()

	bundles, err := collectDocs(iter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(bundles)
	return bundles, nil
}

func (r *FirestoreRepository) List(ctx context.Context, filter BundleFilter) ([]*bundle.Bundle, error) {
	query := r.client.Collection(bundlesCollection).Query
	if filter.Platform != "" {
		query = query.Where("platform", "==", string(filter.Platform))
	}
	if filter.Channel != "" {
		query = query.Where("channel", "==", filter.Channel)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	bundles, err := collectDocs(iter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(bundles)
	return paginate(bundles, filter.Offset, filter.Limit), nil
}

func (r *FirestoreRepository) Get(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	doc, err := r.client.Collection(bundlesCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading bundle document: %w", err)
	}
	return docToBundle(doc)
}

func (r *FirestoreRepository) Create(ctx context.Context, b *bundle.Bundle) error {
	_, err := r.client.Collection(bundlesCollection).Doc(b.ID.String()).Set(ctx, toFirestore(b))
	if err != nil {
		return fmt.Errorf("writing bundle document: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) Update(ctx context.Context, id uuid.UUID, patch BundlePatch) (*bundle.Bundle, error) {
	b, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(b)
	if err := r.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *FirestoreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	_, err := r.client.Collection(bundlesCollection).Doc(id.String()).Delete(ctx)
	if err != nil {
		return fmt.Errorf("deleting bundle document: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) Channels(ctx context.Context) ([]string, error) {
	iter := r.client.Collection(bundlesCollection).Select("channel").Documents(ctx)
	defer iter.Stop()

	seen := make(map[string]bool)
	var channels []string
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating bundle documents: %w", err)
		}
		if channel, ok := doc.Data()["channel"].(string); ok && !seen[channel] {
			seen[channel] = true
			channels = append(channels, channel)
		}
	}
	sort.Strings(channels)
	return channels, nil
}

func collectDocs(iter *firestore.DocumentIterator) ([]*bundle.Bundle, error) {
	var bundles []*bundle.Bundle
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating bundle documents: %w", err)
		}
		b, err := docToBundle(doc)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func docToBundle(doc *firestore.DocumentSnapshot) (*bundle.Bundle, error) {
	var record firestoreBundle
	if err := doc.DataTo(&record); err != nil {
		return nil, fmt.Errorf("decoding bundle document %s: %w", doc.Ref.ID, err)
	}

	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("bundle document %s has invalid id: %w", doc.Ref.ID, err)
	}

	return &bundle.Bundle{
		ID:                id,
		Platform:          bundle.Platform(record.Platform),
		Channel:           record.Channel,
		TargetAppVersion:  record.TargetAppVersion,
		FingerprintHash:   record.FingerprintHash,
		FileHash:          record.FileHash,
		StorageURI:        record.StorageURI,
		GitCommitHash:     record.GitCommitHash,
		Message:           record.Message,
		Enabled:           record.Enabled,
		ShouldForceUpdate: record.ShouldForceUpdate,
		RolloutPercentage: record.RolloutPercentage,
		TargetDeviceIDs:   record.TargetDeviceIDs,
		Metadata:          record.Metadata,
		CreatedAt:         record.CreatedAt,
	}, nil
}

func toFirestore(b *bundle.Bundle) firestoreBundle {
	return firestoreBundle{
		ID:                b.ID.String(),
		Platform:          string(b.Platform),
		Channel:           b.Channel,
		TargetAppVersion:  b.TargetAppVersion,
		FingerprintHash:   b.FingerprintHash,
		FileHash:          b.FileHash,
		StorageURI:        b.StorageURI,
		GitCommitHash:     b.GitCommitHash,
		Message:           b.Message,
		Enabled:           b.Enabled,
		ShouldForceUpdate: b.ShouldForceUpdate,
		RolloutPercentage: b.RolloutPercentage,
		TargetDeviceIDs:   b.TargetDeviceIDs,
		Metadata:          b.Metadata,
		CreatedAt:         b.CreatedAt,
	}
}
