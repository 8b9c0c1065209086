package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrator applies goose migrations and reports pending ones. The audit cycle
// uses PendingCount to gate automatic schema repair.
type Migrator struct {
	databaseURL   string
	migrationsDir string
}

func NewMigrator(databaseURL, migrationsDir string) *Migrator {
	return &Migrator{databaseURL: databaseURL, migrationsDir: migrationsDir}
}

func (m *Migrator) provider() (*goose.Provider, *sql.DB, error) {
	db, err := sql.Open("pgx", m.databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(m.migrationsDir))
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create goose provider: %w", err)
	}
	return p, db, nil
}

// PendingCount returns the number of migrations not yet applied.
func (m *Migrator) PendingCount(ctx context.Context) (int, error) {
	p, db, err := m.provider()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	statuses, err := p.Status(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration status: %w", err)
	}

	var pending int
	for _, s := range statuses {
		if s.State == goose.StatePending {
			pending++
		}
	}
	return pending, nil
}

// Apply runs all pending migrations.
func (m *Migrator) Apply(ctx context.Context) error {
	p, db, err := m.provider()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
