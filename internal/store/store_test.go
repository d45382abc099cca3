package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobmail/jobboard/internal/model"
)

// defaultTimeout mirrors the default session timeout setting.
const defaultTimeout = 30 * time.Minute

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedApproved inserts an approved admin and returns the stored record.
func seedApproved(t *testing.T, admins *AdminStore, username string, role model.Role) *model.Admin {
	t.Helper()
	ctx := context.Background()
	if err := admins.CreateApproved(ctx, username, "hash-"+username, role); err != nil {
		t.Fatalf("seed admin %s: %v", username, err)
	}
	a, err := admins.GetByUsername(ctx, username)
	if err != nil {
		t.Fatalf("fetch seeded admin %s: %v", username, err)
	}
	return a
}
