package model

import "time"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleEditor     Role = "editor"
	RoleModerator  Role = "moderator"
	RoleViewer     Role = "viewer"
)

// Valid reports whether r is one of the closed set of roles accepted at
// admin creation and role-change time.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleEditor, RoleModerator, RoleViewer:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Role         Role      `json:"role" db:"role"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
