// Package perm defines the permission catalog and the merge of role
// defaults with per-admin overrides.
package perm

import (
	"errors"
	"fmt"

	"github.com/jobmail/jobboard/internal/model"
)

// ErrUnknownRole indicates a role outside the closed set. Roles are
// validated at admin creation and edit time, so hitting this is a
// configuration fault, not a user-facing condition.
var ErrUnknownRole = errors.New("unknown role")

type Key string

const (
	KeyPostJobs          Key = "canPostJobs"
	KeyEditJobs          Key = "canEditJobs"
	KeyDeleteJobs        Key = "canDeleteJobs"
	KeyManageAdmins      Key = "canManageAdmins"
	KeyDeleteAdmins      Key = "canDeleteAdmins"
	KeyGenerateRSS       Key = "canGenerateRSS"
	KeyViewStats         Key = "canViewStats"
	KeyChangePassword    Key = "canChangePassword"
	KeyViewActivityLog   Key = "canViewActivityLog"
	KeyManageSettings    Key = "canManageSettings"
	KeyManagePermissions Key = "canManagePermissions"
	KeyGenerateTokens    Key = "canGenerateTokens"
	KeyManageBlog        Key = "canManageBlog"
)

// Keys lists every permission key in the catalog.
var Keys = []Key{
	KeyPostJobs,
	KeyEditJobs,
	KeyDeleteJobs,
	KeyManageAdmins,
	KeyDeleteAdmins,
	KeyGenerateRSS,
	KeyViewStats,
	KeyChangePassword,
	KeyViewActivityLog,
	KeyManageSettings,
	KeyManagePermissions,
	KeyGenerateTokens,
	KeyManageBlog,
}

// Set maps every catalog key to whether the admin holds that capability.
type Set map[Key]bool

// Allows reports whether the set grants k. Absent keys are denied.
func (s Set) Allows(k Key) bool { return s[k] }

func (s Set) clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

var roleDefaults = map[model.Role]Set{
	model.RoleSuperAdmin: {
		KeyPostJobs:          true,
		KeyEditJobs:          true,
		KeyDeleteJobs:        true,
		KeyManageAdmins:      true,
		KeyDeleteAdmins:      true,
		KeyGenerateRSS:       true,
		KeyViewStats:         true,
		KeyChangePassword:    true,
		KeyViewActivityLog:   true,
		KeyManageSettings:    true,
		KeyManagePermissions: true,
		KeyGenerateTokens:    true,
		KeyManageBlog:        true,
	},
	model.RoleEditor: {
		KeyPostJobs:          true,
		KeyEditJobs:          true,
		KeyDeleteJobs:        false,
		KeyManageAdmins:      false,
		KeyDeleteAdmins:      false,
		KeyGenerateRSS:       false,
		KeyViewStats:         true,
		KeyChangePassword:    true,
		KeyViewActivityLog:   false,
		KeyManageSettings:    false,
		KeyManagePermissions: false,
		KeyGenerateTokens:    false,
		KeyManageBlog:        true,
	},
	model.RoleModerator: {
		KeyPostJobs:          false,
		KeyEditJobs:          true,
		KeyDeleteJobs:        false,
		KeyManageAdmins:      false,
		KeyDeleteAdmins:      false,
		KeyGenerateRSS:       false,
		KeyViewStats:         true,
		KeyChangePassword:    true,
		KeyViewActivityLog:   true,
		KeyManageSettings:    false,
		KeyManagePermissions: false,
		KeyGenerateTokens:    false,
		KeyManageBlog:        false,
	},
	model.RoleViewer: {
		KeyPostJobs:          false,
		KeyEditJobs:          false,
		KeyDeleteJobs:        false,
		KeyManageAdmins:      false,
		KeyDeleteAdmins:      false,
		KeyGenerateRSS:       false,
		KeyViewStats:         false,
		KeyChangePassword:    true,
		KeyViewActivityLog:   false,
		KeyManageSettings:    false,
		KeyManagePermissions: false,
		KeyGenerateTokens:    false,
		KeyManageBlog:        false,
	},
}

// DefaultsFor returns the default permission set for a role.
func DefaultsFor(role model.Role) (Set, error) {
	defaults, ok := roleDefaults[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return defaults.clone(), nil
}

// Resolve overlays per-admin overrides on the role defaults. Keys present
// in overrides replace the default; absent keys keep it. Keys outside the
// catalog are ignored so stale override rows never grant anything.
func Resolve(role model.Role, overrides map[Key]bool) (Set, error) {
	set, err := DefaultsFor(role)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		if _, known := set[k]; known {
			set[k] = v
		}
	}
	return set, nil
}
