package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/perm"
)

type AdminStore struct {
	db *sqlx.DB
}

func NewAdminStore(db *sqlx.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) CountAll(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins`)
	return n, err
}

// Create inserts a new pending admin. The password must already be hashed.
func (s *AdminStore) Create(ctx context.Context, username, passwordHash string, role model.Role) (*model.Admin, error) {
	return s.create(ctx, username, passwordHash, role, model.StatusPending)
}

// CreateApproved inserts an already-approved admin. Used only for seeding
// the first super_admin.
func (s *AdminStore) CreateApproved(ctx context.Context, username, passwordHash string, role model.Role) error {
	_, err := s.create(ctx, username, passwordHash, role, model.StatusApproved)
	return err
}

func (s *AdminStore) create(ctx context.Context, username, passwordHash string, role model.Role, status model.Status) (*model.Admin, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins WHERE username = ?`, username); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateUsername
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO admins (username, password_hash, role, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		username, passwordHash, role, status, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Admin{
		ID:        id,
		Username:  username,
		Role:      role,
		Status:    status,
		CreatedAt: now,
	}, nil
}

func (s *AdminStore) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	var a model.Admin
	err := s.db.GetContext(ctx, &a, `SELECT * FROM admins WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AdminStore) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := s.db.GetContext(ctx, &a, `SELECT * FROM admins WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AdminStore) List(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	err := s.db.SelectContext(ctx, &admins, `SELECT * FROM admins ORDER BY id ASC`)
	return admins, err
}

type overrideRow struct {
	Key   string `db:"permission_key"`
	Value bool   `db:"permission_value"`
}

// Overrides returns the stored per-admin permission overrides.
func (s *AdminStore) Overrides(ctx context.Context, adminID int64) (map[perm.Key]bool, error) {
	var rows []overrideRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT permission_key, permission_value FROM admin_permissions WHERE admin_id = ?`, adminID)
	if err != nil {
		return nil, err
	}
	overrides := make(map[perm.Key]bool, len(rows))
	for _, r := range rows {
		overrides[perm.Key(r.Key)] = r.Value
	}
	return overrides, nil
}

// EffectivePermissions resolves the admin's role defaults against their
// stored overrides.
func (s *AdminStore) EffectivePermissions(ctx context.Context, a *model.Admin) (perm.Set, error) {
	overrides, err := s.Overrides(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return perm.Resolve(a.Role, overrides)
}

// Approve transitions a pending admin to approved. The status predicate in
// the UPDATE makes a repeated approval report failure instead of silently
// rewriting the row.
func (s *AdminStore) Approve(ctx context.Context, id int64) (string, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admins SET status = ? WHERE id = ? AND status = ?`,
		model.StatusApproved, id, model.StatusPending)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return "", err
		}
		return "", ErrNotPending
	}

	var username string
	if err := s.db.GetContext(ctx, &username, `SELECT username FROM admins WHERE id = ?`, id); err != nil {
		return "", err
	}
	return username, nil
}

// Reject deletes a pending admin. Non-pending records are not touched.
func (s *AdminStore) Reject(ctx context.Context, id int64) (string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var username string
	err = tx.GetContext(ctx, &username,
		`SELECT username FROM admins WHERE id = ? AND status = ?`, id, model.StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM admins WHERE id = ? AND status = ?`, id, model.StatusPending); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM admin_permissions WHERE admin_id = ?`, id); err != nil {
		return "", err
	}
	return username, tx.Commit()
}

// Delete removes an admin. Deleting yourself and deleting the last
// approved super_admin are refused; the check and the delete run in one
// transaction over the single-writer pool so two concurrent deletes cannot
// both see "not last".
func (s *AdminStore) Delete(ctx context.Context, id, callerID int64) (string, error) {
	if id == callerID {
		return "", ErrSelfDeletion
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var target model.Admin
	err = tx.GetContext(ctx, &target, `SELECT * FROM admins WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if target.Role == model.RoleSuperAdmin && target.Status == model.StatusApproved {
		var supers int
		if err := tx.GetContext(ctx, &supers,
			`SELECT COUNT(*) FROM admins WHERE role = ? AND status = ?`,
			model.RoleSuperAdmin, model.StatusApproved); err != nil {
			return "", err
		}
		if supers <= 1 {
			return "", ErrLastSuperAdmin
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM admin_permissions WHERE admin_id = ?`, id); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE admin_id = ?`, id); err != nil {
		return "", err
	}
	return target.Username, tx.Commit()
}

// ChangeRoleAndPermissions persists a new role and replaces the stored
// overrides wholesale, then rewrites the permission snapshot on every live
// session of the target so the session cache never outlives an edit. The
// sole approved super_admin cannot be demoted or stripped of
// canManagePermissions.
func (s *AdminStore) ChangeRoleAndPermissions(ctx context.Context, id int64, newRole model.Role, overrides map[perm.Key]bool) (*model.Admin, perm.Set, error) {
	if !newRole.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}
	effective, err := perm.Resolve(newRole, overrides)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var target model.Admin
	err = tx.GetContext(ctx, &target, `SELECT * FROM admins WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if target.Role == model.RoleSuperAdmin && target.Status == model.StatusApproved {
		var supers int
		if err := tx.GetContext(ctx, &supers,
			`SELECT COUNT(*) FROM admins WHERE role = ? AND status = ?`,
			model.RoleSuperAdmin, model.StatusApproved); err != nil {
			return nil, nil, err
		}
		if supers <= 1 && (newRole != model.RoleSuperAdmin || !effective.Allows(perm.KeyManagePermissions)) {
			return nil, nil, ErrLastSuperAdmin
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE admins SET role = ? WHERE id = ?`, newRole, id); err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM admin_permissions WHERE admin_id = ?`, id); err != nil {
		return nil, nil, err
	}
	for key, value := range overrides {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO admin_permissions (admin_id, permission_key, permission_value) VALUES (?, ?, ?)`,
			id, string(key), value); err != nil {
			return nil, nil, err
		}
	}

	snapshot, err := json.Marshal(effective)
	if err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET role = ?, permissions = ? WHERE admin_id = ?`,
		newRole, string(snapshot), id); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	target.Role = newRole
	return &target, effective, nil
}

// UpdatePassword verifies nothing; callers check the current password and
// the policy before re-hashing.
func (s *AdminStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE admins SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AdminStore) CountApprovedSuperAdmins(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM admins WHERE role = ? AND status = ?`,
		model.RoleSuperAdmin, model.StatusApproved)
	return n, err
}
