package perm

import (
	"errors"
	"testing"

	"github.com/jobmail/jobboard/internal/model"
)

func TestDefaultsForCoversEveryKey(t *testing.T) {
	for _, role := range []model.Role{model.RoleSuperAdmin, model.RoleEditor, model.RoleModerator, model.RoleViewer} {
		set, err := DefaultsFor(role)
		if err != nil {
			t.Fatalf("DefaultsFor(%s): %v", role, err)
		}
		if len(set) != len(Keys) {
			t.Errorf("DefaultsFor(%s) has %d keys, want %d", role, len(set), len(Keys))
		}
		for _, k := range Keys {
			if _, ok := set[k]; !ok {
				t.Errorf("DefaultsFor(%s) missing key %s", role, k)
			}
		}
	}
}

func TestDefaultsForSuperAdminAllTrue(t *testing.T) {
	set, err := DefaultsFor(model.RoleSuperAdmin)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range set {
		if !v {
			t.Errorf("super_admin default for %s = false, want true", k)
		}
	}
}

func TestDefaultsForViewerOnlyChangePassword(t *testing.T) {
	set, err := DefaultsFor(model.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range set {
		want := k == KeyChangePassword
		if v != want {
			t.Errorf("viewer default for %s = %v, want %v", k, v, want)
		}
	}
}

func TestDefaultsForUnknownRole(t *testing.T) {
	if _, err := DefaultsFor(model.Role("data_entry")); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("err = %v, want ErrUnknownRole", err)
	}
}

func TestResolveOnlyDiffersAtOverriddenKeys(t *testing.T) {
	overrides := map[Key]bool{
		KeyPostJobs:        true,
		KeyViewActivityLog: true,
		KeyChangePassword:  false,
	}
	defaults, err := DefaultsFor(model.RoleModerator)
	if err != nil {
		t.Fatal(err)
	}
	set, err := Resolve(model.RoleModerator, overrides)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range Keys {
		want, overridden := overrides[k]
		if !overridden {
			want = defaults[k]
		}
		if set[k] != want {
			t.Errorf("resolved %s = %v, want %v (overridden=%v)", k, set[k], want, overridden)
		}
	}
}

func TestResolveOverrideWinsOverDefaultTrue(t *testing.T) {
	// viewer defaults canChangePassword true; an explicit false override
	// must still be honored.
	set, err := Resolve(model.RoleViewer, map[Key]bool{KeyChangePassword: false})
	if err != nil {
		t.Fatal(err)
	}
	if set.Allows(KeyChangePassword) {
		t.Fatal("override canChangePassword=false did not win over viewer default")
	}
}

func TestResolveIgnoresUnknownKeys(t *testing.T) {
	set, err := Resolve(model.RoleViewer, map[Key]bool{"canLaunchRockets": true})
	if err != nil {
		t.Fatal(err)
	}
	if set.Allows("canLaunchRockets") {
		t.Fatal("unknown override key leaked into the effective set")
	}
	if len(set) != len(Keys) {
		t.Fatalf("effective set has %d keys, want %d", len(set), len(Keys))
	}
}

func TestResolveDoesNotMutateDefaults(t *testing.T) {
	if _, err := Resolve(model.RoleEditor, map[Key]bool{KeyPostJobs: false}); err != nil {
		t.Fatal(err)
	}
	defaults, err := DefaultsFor(model.RoleEditor)
	if err != nil {
		t.Fatal(err)
	}
	if !defaults.Allows(KeyPostJobs) {
		t.Fatal("Resolve mutated the shared role defaults")
	}
}
