package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/perm"
)

// Session is the server-side state behind a session cookie. Permissions is
// the effective set snapshotted at login; it is a read-through cache and is
// rewritten by AdminStore.ChangeRoleAndPermissions when the admin is edited
// while logged in.
type Session struct {
	ID           string
	AdminID      int64
	Username     string
	Role         model.Role
	Permissions  perm.Set
	LastActivity time.Time
}

type sessionRow struct {
	ID           string    `db:"id"`
	AdminID      int64     `db:"admin_id"`
	Username     string    `db:"username"`
	Role         string    `db:"role"`
	Permissions  string    `db:"permissions"`
	LastActivity time.Time `db:"last_activity"`
}

type SessionStore struct {
	db *sqlx.DB
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a new session for the admin with its permission snapshot
// and returns the session ID.
func (s *SessionStore) Create(ctx context.Context, a *model.Admin, permissions perm.Set) (string, error) {
	snapshot, err := json.Marshal(permissions)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, admin_id, username, role, permissions, last_activity) VALUES (?, ?, ?, ?, ?, ?)`,
		id, a.ID, a.Username, a.Role, string(snapshot), time.Now().UTC())
	return id, err
}

// Touch applies the sliding-expiration rule: if the session's last activity
// is within timeout it is bumped to now and the session returned; otherwise
// the row is discarded and ErrNotFound returned. The conditional UPDATE is
// the expiry check, so an expired session can never be revived by the same
// request that observed it.
func (s *SessionStore) Touch(ctx context.Context, id string, timeout time.Duration) (*Session, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ? WHERE id = ? AND last_activity >= ?`,
		now, id, now.Add(-timeout))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		return nil, ErrNotFound
	}

	var row sessionRow
	err = s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var permissions perm.Set
	if err := json.Unmarshal([]byte(row.Permissions), &permissions); err != nil {
		return nil, err
	}
	return &Session{
		ID:           row.ID,
		AdminID:      row.AdminID,
		Username:     row.Username,
		Role:         model.Role(row.Role),
		Permissions:  permissions,
		LastActivity: row.LastActivity,
	}, nil
}

// Delete removes a single session (logout).
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteOthers removes every session of the admin except keepID. Used on
// password change so stolen sessions don't outlive the old credential.
func (s *SessionStore) DeleteOthers(ctx context.Context, adminID int64, keepID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE admin_id = ? AND id != ?`, adminID, keepID)
	return err
}

// DeleteExpired removes sessions idle beyond timeout.
func (s *SessionStore) DeleteExpired(ctx context.Context, timeout time.Duration) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_activity < ?`, time.Now().UTC().Add(-timeout))
	return err
}
