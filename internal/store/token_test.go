package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobmail/jobboard/internal/model"
)

func TestTokenRedeemOnce(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenStore(db)
	ctx := context.Background()

	issued, err := tokens.Issue(ctx, "boss")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(issued.Token) != 32 {
		t.Errorf("token length = %d, want 32 hex chars", len(issued.Token))
	}
	if issued.CreatedBy != "boss" {
		t.Errorf("created_by = %q, want boss", issued.CreatedBy)
	}

	a, err := tokens.Redeem(ctx, issued.Token, "newhire", "hash")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if a.Role != RegisteredRole {
		t.Errorf("registered role = %q, want %q", a.Role, RegisteredRole)
	}
	if a.Status != model.StatusPending {
		t.Errorf("registered status = %q, want pending", a.Status)
	}

	if _, err := tokens.Redeem(ctx, issued.Token, "another", "hash"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("second redemption error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRedeemExpired(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenStore(db)
	ctx := context.Background()

	issued, err := tokens.Issue(ctx, "boss")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := db.ExecContext(ctx, `UPDATE registration_tokens SET expires_at = ? WHERE id = ?`, past, issued.ID); err != nil {
		t.Fatalf("expire token: %v", err)
	}

	if _, err := tokens.Redeem(ctx, issued.Token, "latecomer", "hash"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("redeem expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRedeemUnknown(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenStore(db)

	if _, err := tokens.Redeem(context.Background(), "deadbeef", "nobody", "hash"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("redeem unknown token error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRedeemUsernameTaken(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	tokens := NewTokenStore(db)
	ctx := context.Background()

	seedApproved(t, admins, "alice", model.RoleEditor)

	issued, err := tokens.Issue(ctx, "boss")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tokens.Redeem(ctx, issued.Token, "alice", "hash"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("redeem taken username error = %v, want ErrUsernameTaken", err)
	}

	// The failed attempt rolls back the consumption, so the token still works.
	if _, err := tokens.Redeem(ctx, issued.Token, "alice2", "hash"); err != nil {
		t.Errorf("redeem after rolled-back attempt: %v", err)
	}
}

func TestTokenList(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenStore(db)
	ctx := context.Background()

	first, err := tokens.Issue(ctx, "boss")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Issue(ctx, "boss"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Redeem(ctx, first.Token, "hire", "hash"); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	list, err := tokens.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}
	used := 0
	for _, tok := range list {
		if tok.Used {
			used++
		}
	}
	if used != 1 {
		t.Errorf("used tokens = %d, want 1", used)
	}
}
