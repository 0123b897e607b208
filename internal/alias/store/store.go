package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindMatch prefers the longest alias contained in label, then the newest.
func (s *Store) FindMatch(ctx context.Context, label string) (string, error) {
	query := `
		SELECT asset_code
		FROM asset_aliases
		WHERE $1 ILIKE '%' || label || '%'
		ORDER BY LENGTH(label) DESC, created_at DESC
		LIMIT 1
	`

	var code string

	err := s.db.QueryRowContext(ctx, query, label).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding alias: %w", err)
	}

	return code, nil
}

func (s *Store) CreateAlias(ctx context.Context, label, assetCode string) error {
	query := `
		INSERT INTO asset_aliases (label, asset_code, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (label) DO UPDATE SET asset_code = EXCLUDED.asset_code, created_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, label, assetCode)
	if err != nil {
		return fmt.Errorf("creating alias: %w", err)
	}

	return nil
}
