// Package store persists all application state in sqlite. Each table has
// its own store type; business-rule guards that must not race (last
// super_admin, single-use tokens) live here next to the queries that
// enforce them.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jobmail/jobboard/internal/store/migrations"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidRole       = errors.New("invalid role")
	ErrSelfDeletion      = errors.New("cannot delete your own account")
	ErrLastSuperAdmin    = errors.New("cannot remove the last approved super_admin")
	ErrNotPending        = errors.New("admin is not pending")
	ErrWrongPassword     = errors.New("current password is incorrect")
	ErrInvalidToken      = errors.New("invalid or expired registration token")
	ErrUsernameTaken     = errors.New("username already taken")
)

// Open opens the sqlite database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time prevents SQLITE_BUSY under concurrent requests
	// and keeps check-then-write sequences serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}

	dbDriver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return err
	}
	return m.Up()
}
