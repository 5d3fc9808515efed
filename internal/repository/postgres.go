package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/repository/migrations"
)

const bundleColumns = `id, platform, channel, target_app_version, fingerprint_hash,
	file_hash, storage_uri, git_commit_hash, message, enabled, should_force_update,
	rollout_percentage, target_device_ids, metadata, created_at`

// PostgresRepository stores bundle records in a Postgres table
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

// RunMigrations brings the schema up to date via goose
func (r *PostgresRepository) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, r.db, "."); err != nil {
		return err
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks connectivity for the health endpoint
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM bundles
		WHERE platform = $1 AND channel = $2
		ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, string(platform), channel)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	return scanBundles(rows)
}

func (r *PostgresRepository) List(ctx context.Context, filter BundleFilter) ([]*bundle.Bundle, error) {
	var conditions []string
	var args []interface{}

	if filter.Platform != "" {
		args = append(args, string(filter.Platform))
		conditions = append(conditions, fmt.Sprintf("platform = $%d", len(args)))
	}
	if filter.Channel != "" {
		args = append(args, filter.Channel)
		conditions = append(conditions, fmt.Sprintf("channel = $%d", len(args)))
	}

	query := `SELECT ` + bundleColumns + ` FROM bundles`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	return scanBundles(rows)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM bundles WHERE id = $1`

	b, err := scanBundle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, b *bundle.Bundle) error {
	query := `INSERT INTO bundles (` + bundleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	deviceIDs, metadata, err := marshalJSONFields(b)
	if err != nil {
		return err
	}

	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, query,
		b.ID,
		string(b.Platform),
		b.Channel,
		nullString(b.TargetAppVersion),
		nullString(b.FingerprintHash),
		b.FileHash,
		b.StorageURI,
		nullString(b.GitCommitHash),
		nullString(b.Message),
		b.Enabled,
		b.ShouldForceUpdate,
		b.RolloutPercentage,
		deviceIDs,
		metadata,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, patch BundlePatch) (*bundle.Bundle, error) {
	// Read-modify-write keeps the patch semantics in one place; bundle
	// updates are rare operator actions, not a hot path.
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(current)

	deviceIDs, metadata, err := marshalJSONFields(current)
	if err != nil {
		return nil, err
	}

	query := `UPDATE bundles SET
		enabled = $2, should_force_update = $3, message = $4,
		rollout_percentage = $5, target_device_ids = $6, metadata = $7
		WHERE id = $1`

	_, err = r.db.ExecContext(ctx, query,
		id,
		current.Enabled,
		current.ShouldForceUpdate,
		nullString(current.Message),
		current.RolloutPercentage,
		deviceIDs,
		metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return current, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bundles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Channels(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT channel FROM bundles ORDER BY channel`)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var channel string
		if err := rows.Scan(&channel); err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBundle(row rowScanner) (*bundle.Bundle, error) {
	var (
		b                bundle.Bundle
		platform         string
		targetAppVersion sql.NullString
		fingerprintHash  sql.NullString
		gitCommitHash    sql.NullString
		message          sql.NullString
		targetDeviceIDs  []byte
		metadata         []byte
	)

	err := row.Scan(
		&b.ID,
		&platform,
		&b.Channel,
		&targetAppVersion,
		&fingerprintHash,
		&b.FileHash,
		&b.StorageURI,
		&gitCommitHash,
		&message,
		&b.Enabled,
		&b.ShouldForceUpdate,
		&b.RolloutPercentage,
		&targetDeviceIDs,
		&metadata,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Platform = bundle.Platform(platform)
	b.TargetAppVersion = targetAppVersion.String
	b.FingerprintHash = fingerprintHash.String
	b.GitCommitHash = gitCommitHash.String
	b.Message = message.String

	if len(targetDeviceIDs) > 0 {
		if err := json.Unmarshal(targetDeviceIDs, &b.TargetDeviceIDs); err != nil {
			return nil, fmt.Errorf("decoding target_device_ids for %s: %w", b.ID, err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &b.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", b.ID, err)
		}
	}

	return &b, nil
}

func scanBundles(rows *sql.Rows) ([]*bundle.Bundle, error) {
	var bundles []*bundle.Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

func marshalJSONFields(b *bundle.Bundle) (deviceIDs, metadata []byte, err error) {
	if b.TargetDeviceIDs != nil {
		deviceIDs, err = json.Marshal(b.TargetDeviceIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding target_device_ids: %w", err)
		}
	}
	if b.Metadata != nil {
		metadata, err = json.Marshal(b.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding metadata: %w", err)
		}
	}
	return deviceIDs, metadata, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
