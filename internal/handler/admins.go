package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jobmail/jobboard/internal/auth"
	appmw "github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/perm"
	"github.com/jobmail/jobboard/internal/store"
)

// AdminsHandler manages admin accounts and their permissions.
type AdminsHandler struct {
	BaseHandler
	admins   *store.AdminStore
	sessions *store.SessionStore
	settings *store.SettingsStore
	audit    *store.AuditStore
}

func NewAdminsHandler(logger *slog.Logger, admins *store.AdminStore, sessions *store.SessionStore, settings *store.SettingsStore, audit *store.AuditStore) *AdminsHandler {
	return &AdminsHandler{
		BaseHandler: BaseHandler{Logger: logger},
		admins:      admins,
		sessions:    sessions,
		settings:    settings,
		audit:       audit,
	}
}

// List returns all admin accounts with their effective permissions.
func (h *AdminsHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	type adminWithPermissions struct {
		model.Admin
		Permissions perm.Set `json:"permissions"`
	}
	out := make([]adminWithPermissions, 0, len(admins))
	for i := range admins {
		permissions, err := h.admins.EffectivePermissions(r.Context(), &admins[i])
		if err != nil {
			h.serverErrorResponse(w, r, err)
			return
		}
		out = append(out, adminWithPermissions{Admin: admins[i], Permissions: permissions})
	}
	_ = h.writeJSON(w, http.StatusOK, envelope{"admins": out}, nil)
}

// Create adds a new admin in pending status.
func (h *AdminsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string     `json:"username"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	admin, err := h.admins.Create(r.Context(), input.Username, hash, input.Role)
	switch {
	case errors.Is(err, store.ErrInvalidRole):
		h.errorResponse(w, r, http.StatusBadRequest, "invalid access level")
		return
	case errors.Is(err, store.ErrDuplicateUsername):
		h.errorResponse(w, r, http.StatusConflict, "username already exists")
		return
	case err != nil:
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s added new admin: %s (pending approval)", caller.Username, admin.Username))
	_ = h.writeJSON(w, http.StatusCreated, envelope{"admin": admin}, nil)
}

// Approve transitions a pending admin to approved.
func (h *AdminsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	username, err := h.admins.Approve(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.notFoundResponse(w, r)
		return
	case errors.Is(err, store.ErrNotPending):
		h.errorResponse(w, r, http.StatusConflict, "admin is not pending approval")
		return
	case err != nil:
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s approved admin: %s", caller.Username, username))
	_ = h.writeJSON(w, http.StatusOK, envelope{"message": "admin approved"}, nil)
}

// Reject deletes a pending admin.
func (h *AdminsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	username, err := h.admins.Reject(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.notFoundResponse(w, r)
		return
	case err != nil:
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s rejected admin: %s", caller.Username, username))
	_ = h.writeJSON(w, http.StatusOK, envelope{"message": "admin rejected and removed"}, nil)
}

// Delete removes an admin account and its sessions.
func (h *AdminsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	caller := appmw.PrincipalFromContext(r.Context())

	username, err := h.admins.Delete(r.Context(), id, caller.AdminID)
	switch {
	case errors.Is(err, store.ErrSelfDeletion):
		h.errorResponse(w, r, http.StatusBadRequest, "you cannot delete yourself")
		return
	case errors.Is(err, store.ErrLastSuperAdmin):
		h.errorResponse(w, r, http.StatusConflict, "cannot delete the last super admin")
		return
	case errors.Is(err, store.ErrNotFound):
		h.notFoundResponse(w, r)
		return
	case err != nil:
		h.serverErrorResponse(w, r, err)
		return
	}

	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s deleted admin account: %s", caller.Username, username))
	_ = h.writeJSON(w, http.StatusOK, envelope{"message": "admin deleted"}, nil)
}

// UpdatePermissions changes an admin's role and replaces their permission
// overrides.
func (h *AdminsHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	var input struct {
		Role      model.Role        `json:"role"`
		Overrides map[perm.Key]bool `json:"overrides"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	admin, permissions, err := h.admins.ChangeRoleAndPermissions(r.Context(), id, input.Role, input.Overrides)
	switch {
	case errors.Is(err, store.ErrInvalidRole), errors.Is(err, perm.ErrUnknownRole):
		h.errorResponse(w, r, http.StatusBadRequest, "invalid access level")
		return
	case errors.Is(err, store.ErrNotFound):
		h.notFoundResponse(w, r)
		return
	case errors.Is(err, store.ErrLastSuperAdmin):
		h.errorResponse(w, r, http.StatusConflict,
			"cannot remove permissions management from the last super admin")
		return
	case err != nil:
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s updated permissions for admin: %s", caller.Username, admin.Username))
	_ = h.writeJSON(w, http.StatusOK, envelope{"admin": admin, "permissions": permissions}, nil)
}

// ChangePassword updates the caller's own password after verifying the
// current one and the site policy.
func (h *AdminsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	caller := appmw.PrincipalFromContext(r.Context())

	admin, err := h.admins.GetByID(r.Context(), caller.AdminID)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if !auth.Verify(admin.PasswordHash, input.CurrentPassword) {
		h.errorResponse(w, r, http.StatusBadRequest, "current password is incorrect")
		return
	}

	settings, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := auth.CheckPolicy(input.NewPassword, settings); err != nil {
		h.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hash, err := auth.Hash(input.NewPassword)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := h.admins.UpdatePassword(r.Context(), admin.ID, hash); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	// Revoke every other session on the old credential.
	if err := h.sessions.DeleteOthers(r.Context(), admin.ID, caller.SessionID); err != nil {
		h.logError(r, err)
	}

	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s changed their password", caller.Username))
	_ = h.writeJSON(w, http.StatusOK, envelope{"message": "password changed"}, nil)
}

func (h *BaseHandler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		h.errorResponse(w, r, http.StatusBadRequest, "invalid id parameter")
		return 0, false
	}
	return id, true
}
