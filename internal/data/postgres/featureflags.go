package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jurisai/jurisai/internal/domain/usermodel"
)

type FeatureFlagStore struct {
	pool *pgxpool.Pool
}

func NewFeatureFlagStore(pool *pgxpool.Pool) *FeatureFlagStore {
	return &FeatureFlagStore{pool: pool}
}

const flagColumns = `key, name, COALESCE(description, ''), is_enabled, config,
	COALESCE(created_by, ''), created_at, updated_at`

func scanFlag(row pgx.Row) (usermodel.FeatureFlag, error) {
	var f usermodel.FeatureFlag
	err := row.Scan(&f.Key, &f.Name, &f.Description, &f.IsEnabled, &f.Config,
		&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (s *FeatureFlagStore) Create(ctx context.Context, f usermodel.FeatureFlag) (usermodel.FeatureFlag, error) {
	if f.Config == nil {
		f.Config = map[string]any{}
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO feature_flags (key, name, description, is_enabled, config, created_by)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''))
		 ON CONFLICT (key) DO NOTHING
		 RETURNING `+flagColumns,
		f.Key, f.Name, f.Description, f.IsEnabled, f.Config, f.CreatedBy)
	created, err := scanFlag(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return created, fmt.Errorf("flag %s: %w", f.Key, ErrDuplicate)
	}
	if err != nil {
		return created, fmt.Errorf("failed to create flag: %w", err)
	}
	return created, nil
}

func (s *FeatureFlagStore) Get(ctx context.Context, key string) (usermodel.FeatureFlag, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+flagColumns+` FROM feature_flags WHERE key = $1`, key)
	f, err := scanFlag(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return f, ErrNotFound
	}
	if err != nil {
		return f, fmt.Errorf("failed to load flag: %w", err)
	}
	return f, nil
}

func (s *FeatureFlagStore) Update(ctx context.Context, key string, isEnabled *bool, cfg map[string]any) (usermodel.FeatureFlag, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE feature_flags SET is_enabled = COALESCE($2, is_enabled),
		        config = COALESCE($3, config), updated_at = now()
		 WHERE key = $1`, key, isEnabled, cfg)
	if err != nil {
		return usermodel.FeatureFlag{}, fmt.Errorf("failed to update flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usermodel.FeatureFlag{}, ErrNotFound
	}
	return s.Get(ctx, key)
}

func (s *FeatureFlagStore) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM feature_flags WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FeatureFlagStore) List(ctx context.Context) ([]usermodel.FeatureFlag, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+flagColumns+` FROM feature_flags ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	defer rows.Close()

	var flags []usermodel.FeatureFlag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}
