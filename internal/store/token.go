package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobmail/jobboard/internal/auth"
	"github.com/jobmail/jobboard/internal/model"
)

const tokenTTL = 24 * time.Hour

// RegisteredRole is the role given to admins created through token
// redemption.
const RegisteredRole = model.RoleEditor

type TokenStore struct {
	db *sqlx.DB
}

func NewTokenStore(db *sqlx.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Issue creates a new single-use registration token valid for 24 hours.
func (s *TokenStore) Issue(ctx context.Context, createdBy string) (*model.RegistrationToken, error) {
	now := time.Now().UTC()
	t := &model.RegistrationToken{
		Token:     auth.GenerateToken(),
		ExpiresAt: now.Add(tokenTTL),
		CreatedBy: createdBy,
		CreatedAt: now,
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO registration_tokens (token, used, expires_at, created_by, created_at) VALUES (?, 0, ?, ?, ?)`,
		t.Token, t.ExpiresAt, t.CreatedBy, t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TokenStore) List(ctx context.Context) ([]model.RegistrationToken, error) {
	var tokens []model.RegistrationToken
	err := s.db.SelectContext(ctx, &tokens, `SELECT * FROM registration_tokens ORDER BY created_at DESC`)
	return tokens, err
}

// Redeem consumes a token and creates the pending admin in one
// transaction. The conditional UPDATE is the single atomic check-and-mark:
// its affected-row count decides whether this request won the token, so a
// token can never be redeemed twice even under concurrent attempts. A
// failed username check rolls the mark back, leaving the token usable.
func (s *TokenStore) Redeem(ctx context.Context, token, username, passwordHash string) (*model.Admin, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE registration_tokens SET used = 1 WHERE token = ? AND used = 0 AND expires_at > ?`,
		token, now)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInvalidToken
	}

	var taken int
	if err := tx.GetContext(ctx, &taken, `SELECT COUNT(*) FROM admins WHERE username = ?`, username); err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrUsernameTaken
	}

	insert, err := tx.ExecContext(ctx,
		`INSERT INTO admins (username, password_hash, role, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		username, passwordHash, RegisteredRole, model.StatusPending, now)
	if err != nil {
		return nil, err
	}
	id, err := insert.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Admin{
		ID:        id,
		Username:  username,
		Role:      RegisteredRole,
		Status:    model.StatusPending,
		CreatedAt: now,
	}, nil
}
