package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/perm"
)

func newSession(t *testing.T, sessions *SessionStore, a *model.Admin) string {
	t.Helper()
	set, err := perm.DefaultsFor(a.Role)
	if err != nil {
		t.Fatalf("defaults for %s: %v", a.Role, err)
	}
	id, err := sessions.Create(context.Background(), a, set)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return id
}

func TestSessionTouchSlides(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	sessions := NewSessionStore(db)
	ctx := context.Background()

	a := seedApproved(t, admins, "alice", model.RoleEditor)
	sid := newSession(t, sessions, a)

	// Put the session near the edge of its window, then touch it.
	stale := time.Now().UTC().Add(-defaultTimeout + time.Minute)
	if _, err := db.ExecContext(ctx, `UPDATE sessions SET last_activity = ? WHERE id = ?`, stale, sid); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	sess, err := sessions.Touch(ctx, sid, defaultTimeout)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if sess.Username != "alice" || sess.AdminID != a.ID {
		t.Errorf("touched session = %s/%d, want alice/%d", sess.Username, sess.AdminID, a.ID)
	}
	if !sess.LastActivity.After(stale) {
		t.Error("touch did not advance last_activity")
	}
	if !sess.Permissions.Allows(perm.KeyEditJobs) {
		t.Error("editor session snapshot missing canEditJobs")
	}
}

func TestSessionTouchExpired(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	sessions := NewSessionStore(db)
	ctx := context.Background()

	a := seedApproved(t, admins, "bob", model.RoleViewer)
	sid := newSession(t, sessions, a)

	expired := time.Now().UTC().Add(-defaultTimeout - time.Minute)
	if _, err := db.ExecContext(ctx, `UPDATE sessions SET last_activity = ? WHERE id = ?`, expired, sid); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	if _, err := sessions.Touch(ctx, sid, defaultTimeout); !errors.Is(err, ErrNotFound) {
		t.Fatalf("touch expired session error = %v, want ErrNotFound", err)
	}

	// The expired row is discarded, not merely rejected.
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sid); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 0 {
		t.Errorf("expired session row still present")
	}
}

func TestSessionTouchUnknownID(t *testing.T) {
	db := newTestDB(t)
	sessions := NewSessionStore(db)

	if _, err := sessions.Touch(context.Background(), "no-such-session", defaultTimeout); !errors.Is(err, ErrNotFound) {
		t.Errorf("touch unknown session error = %v, want ErrNotFound", err)
	}
}

func TestSessionDeleteOthers(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	sessions := NewSessionStore(db)
	ctx := context.Background()

	a := seedApproved(t, admins, "carol", model.RoleEditor)
	keep := newSession(t, sessions, a)
	other1 := newSession(t, sessions, a)
	other2 := newSession(t, sessions, a)

	if err := sessions.DeleteOthers(ctx, a.ID, keep); err != nil {
		t.Fatalf("delete others: %v", err)
	}

	if _, err := sessions.Touch(ctx, keep, defaultTimeout); err != nil {
		t.Errorf("kept session was deleted: %v", err)
	}
	for _, id := range []string{other1, other2} {
		if _, err := sessions.Touch(ctx, id, defaultTimeout); !errors.Is(err, ErrNotFound) {
			t.Errorf("other session %s survived, touch error = %v", id, err)
		}
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	sessions := NewSessionStore(db)
	ctx := context.Background()

	a := seedApproved(t, admins, "dave", model.RoleEditor)
	fresh := newSession(t, sessions, a)
	old := newSession(t, sessions, a)

	expired := time.Now().UTC().Add(-defaultTimeout - time.Hour)
	if _, err := db.ExecContext(ctx, `UPDATE sessions SET last_activity = ? WHERE id = ?`, expired, old); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	if err := sessions.DeleteExpired(ctx, defaultTimeout); err != nil {
		t.Fatalf("delete expired: %v", err)
	}

	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions`); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("session count after sweep = %d, want 1", n)
	}
	if _, err := sessions.Touch(ctx, fresh, defaultTimeout); err != nil {
		t.Errorf("fresh session swept: %v", err)
	}
}
