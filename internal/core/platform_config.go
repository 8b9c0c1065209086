package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type PlatformConfigService struct {
	db DB
}

func NewPlatformConfigService(db DB) *PlatformConfigService {
	return &PlatformConfigService{db: db}
}

// Get returns the value for a key, or "" when the key is absent.
func (s *PlatformConfigService) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM platform_config WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get platform config %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a config value.
func (s *PlatformConfigService) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO platform_config (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set platform config %s: %w", key, err)
	}
	return nil
}
