package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobmail/jobboard/internal/model"
)

// RetentionWindow is how long audit entries are kept by Prune.
const RetentionWindow = 30 * 24 * time.Hour

type AuditStore struct {
	db *sqlx.DB
}

func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record appends an audit entry. A failed write is logged and swallowed so
// audit trouble never fails the operation being audited.
func (s *AuditStore) Record(ctx context.Context, username, action string) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (username, action, created_at) VALUES (?, ?, ?)`,
		username, action, time.Now().UTC())
	if err != nil {
		slog.Error("audit: failed to record action", "username", username, "action", action, "err", err)
	}
}

// AuditFilter narrows Query results. Action matches as a substring,
// Username exactly; empty fields match everything.
type AuditFilter struct {
	Action   string
	Username string
}

// Query returns a page of entries newest-first plus the total match count.
func (s *AuditStore) Query(ctx context.Context, f AuditFilter, page, pageSize int) ([]model.AuditEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	where := ` WHERE 1=1`
	args := []any{}
	if f.Action != "" {
		where += ` AND action LIKE ?`
		args = append(args, "%"+f.Action+"%")
	}
	if f.Username != "" {
		where += ` AND username = ?`
		args = append(args, f.Username)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM logs`+where, args...); err != nil {
		return nil, 0, err
	}

	var entries []model.AuditEntry
	args = append(args, pageSize, (page-1)*pageSize)
	err := s.db.SelectContext(ctx, &entries,
		`SELECT * FROM logs`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Usernames returns the distinct usernames present in the log, for filter
// dropdowns.
func (s *AuditStore) Usernames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `SELECT DISTINCT username FROM logs ORDER BY username`)
	return names, err
}

// Prune deletes entries older than the retention window and reports how
// many were removed.
func (s *AuditStore) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE created_at < ?`, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
