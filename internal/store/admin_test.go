package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/perm"
)

func TestAdminCreate(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	ctx := context.Background()

	a, err := admins.Create(ctx, "alice", "hash", model.RoleEditor)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != model.StatusPending {
		t.Errorf("new admin status = %q, want %q", a.Status, model.StatusPending)
	}
	if a.ID == 0 {
		t.Error("new admin has zero ID")
	}

	if _, err := admins.Create(ctx, "alice", "hash2", model.RoleViewer); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("duplicate username error = %v, want ErrDuplicateUsername", err)
	}
	if _, err := admins.Create(ctx, "bob", "hash", model.Role("data_entry")); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("invalid role error = %v, want ErrInvalidRole", err)
	}
}

func TestAdminApprove(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	ctx := context.Background()

	a, err := admins.Create(ctx, "carol", "hash", model.RoleModerator)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	username, err := admins.Approve(ctx, a.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if username != "carol" {
		t.Errorf("approve returned username %q, want carol", username)
	}

	got, err := admins.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusApproved {
		t.Errorf("status after approve = %q, want approved", got.Status)
	}

	if _, err := admins.Approve(ctx, a.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("second approve error = %v, want ErrNotPending", err)
	}
	if _, err := admins.Approve(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("approve missing admin error = %v, want ErrNotFound", err)
	}
}

func TestAdminReject(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	ctx := context.Background()

	a, err := admins.Create(ctx, "dave", "hash", model.RoleViewer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	username, err := admins.Reject(ctx, a.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if username != "dave" {
		t.Errorf("reject returned username %q, want dave", username)
	}
	if _, err := admins.GetByID(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("rejected admin still present, get error = %v", err)
	}

	approved := seedApproved(t, admins, "erin", model.RoleEditor)
	if _, err := admins.Reject(ctx, approved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("reject approved admin error = %v, want ErrNotFound", err)
	}
}

func TestAdminDeleteGuards(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	ctx := context.Background()

	boss := seedApproved(t, admins, "boss", model.RoleSuperAdmin)
	editor := seedApproved(t, admins, "editor", model.RoleEditor)

	if _, err := admins.Delete(ctx, boss.ID, boss.ID); !errors.Is(err, ErrSelfDeletion) {
		t.Errorf("self delete error = %v, want ErrSelfDeletion", err)
	}
	if _, err := admins.Delete(ctx, boss.ID, editor.ID); !errors.Is(err, ErrLastSuperAdmin) {
		t.Errorf("delete sole super_admin error = %v, want ErrLastSuperAdmin", err)
	}
	if _, err := admins.Delete(ctx, 9999, boss.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing admin error = %v, want ErrNotFound", err)
	}

	// With a second approved super_admin the first becomes deletable.
	second := seedApproved(t, admins, "boss2", model.RoleSuperAdmin)
	username, err := admins.Delete(ctx, boss.ID, second.ID)
	if err != nil {
		t.Fatalf("delete with two super_admins: %v", err)
	}
	if username != "boss" {
		t.Errorf("delete returned username %q, want boss", username)
	}
	if n, _ := admins.CountApprovedSuperAdmins(ctx); n != 1 {
		t.Errorf("approved super_admin count after delete = %d, want 1", n)
	}
}

func TestAdminDeleteRemovesSessions(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	sessions := NewSessionStore(db)
	ctx := context.Background()

	keeper := seedApproved(t, admins, "keeper", model.RoleSuperAdmin)
	target := seedApproved(t, admins, "target", model.RoleEditor)

	set, err := perm.DefaultsFor(target.Role)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	sid, err := sessions.Create(ctx, target, set)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := admins.Delete(ctx, target.ID, keeper.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := sessions.Touch(ctx, sid, defaultTimeout); !errors.Is(err, ErrNotFound) {
		t.Errorf("session survived admin deletion, touch error = %v", err)
	}
}

func TestChangeRoleSoleSuperAdminGuard(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	ctx := context.Background()

	boss := seedApproved(t, admins, "boss", model.RoleSuperAdmin)

	if _, _, err := admins.ChangeRoleAndPermissions(ctx, boss.ID, model.RoleEditor, nil); !errors.Is(err, ErrLastSuperAdmin) {
		t.Errorf("demote sole super_admin error = %v, want ErrLastSuperAdmin", err)
	}

	overrides := map[perm.Key]bool{perm.KeyManagePermissions: false}
	if _, _, err := admins.ChangeRoleAndPermissions(ctx, boss.ID, model.RoleSuperAdmin, overrides); !errors.Is(err, ErrLastSuperAdmin) {
		t.Errorf("strip canManagePermissions from sole super_admin error = %v, want ErrLastSuperAdmin", err)
	}

	// Keeping the role and the critical key is allowed.
	_, effective, err := admins.ChangeRoleAndPermissions(ctx, boss.ID, model.RoleSuperAdmin, map[perm.Key]bool{perm.KeyManageBlog: false})
	if err != nil {
		t.Fatalf("benign override on sole super_admin: %v", err)
	}
	if effective.Allows(perm.KeyManageBlog) {
		t.Error("override canManageBlog=false not applied")
	}

	// A second approved super_admin lifts the guard.
	seedApproved(t, admins, "boss2", model.RoleSuperAdmin)
	updated, effective, err := admins.ChangeRoleAndPermissions(ctx, boss.ID, model.RoleViewer, nil)
	if err != nil {
		t.Fatalf("demote with two super_admins: %v", err)
	}
	if updated.Role != model.RoleViewer {
		t.Errorf("role after demotion = %q, want viewer", updated.Role)
	}
	if effective.Allows(perm.KeyManageAdmins) {
		t.Error("demoted viewer still allows canManageAdmins")
	}
}

func TestChangeRoleRewritesSessionSnapshot(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	sessions := NewSessionStore(db)
	ctx := context.Background()

	seedApproved(t, admins, "boss", model.RoleSuperAdmin)
	editor := seedApproved(t, admins, "editor", model.RoleEditor)

	set, err := admins.EffectivePermissions(ctx, editor)
	if err != nil {
		t.Fatalf("effective permissions: %v", err)
	}
	sid, err := sessions.Create(ctx, editor, set)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, _, err := admins.ChangeRoleAndPermissions(ctx, editor.ID, model.RoleViewer, map[perm.Key]bool{perm.KeyViewStats: true}); err != nil {
		t.Fatalf("change role: %v", err)
	}

	sess, err := sessions.Touch(ctx, sid, defaultTimeout)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if sess.Role != model.RoleViewer {
		t.Errorf("session role after edit = %q, want viewer", sess.Role)
	}
	if sess.Permissions.Allows(perm.KeyEditJobs) {
		t.Error("live session kept canEditJobs after demotion to viewer")
	}
	if !sess.Permissions.Allows(perm.KeyViewStats) {
		t.Error("live session missing canViewStats override")
	}
}

func TestEffectivePermissionsUsesOverrides(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)
	ctx := context.Background()

	seedApproved(t, admins, "boss", model.RoleSuperAdmin)
	mod := seedApproved(t, admins, "mod", model.RoleModerator)

	overrides := map[perm.Key]bool{
		perm.KeyPostJobs:        true,
		perm.KeyViewActivityLog: false,
	}
	if _, _, err := admins.ChangeRoleAndPermissions(ctx, mod.ID, model.RoleModerator, overrides); err != nil {
		t.Fatalf("set overrides: %v", err)
	}

	stored, err := admins.Overrides(ctx, mod.ID)
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if len(stored) != 2 || !stored[perm.KeyPostJobs] || stored[perm.KeyViewActivityLog] {
		t.Errorf("stored overrides = %v, want {canPostJobs:true canViewActivityLog:false}", stored)
	}

	effective, err := admins.EffectivePermissions(ctx, mod)
	if err != nil {
		t.Fatalf("effective permissions: %v", err)
	}
	if !effective.Allows(perm.KeyPostJobs) {
		t.Error("override canPostJobs=true not reflected")
	}
	if effective.Allows(perm.KeyViewActivityLog) {
		t.Error("override canViewActivityLog=false not reflected")
	}
}

func TestUpdatePasswordMissingAdmin(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminStore(db)

	if err := admins.UpdatePassword(context.Background(), 42, "newhash"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update password for missing admin error = %v, want ErrNotFound", err)
	}
}
