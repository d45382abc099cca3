package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jobmail/jobboard/internal/auth"
	appmw "github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/store"
)

// AuthHandler handles login, logout and token-gated self-registration.
type AuthHandler struct {
	BaseHandler
	admins        *store.AdminStore
	sessions      *store.SessionStore
	tokens        *store.TokenStore
	settings      *store.SettingsStore
	audit         *store.AuditStore
	secureCookies bool
}

func NewAuthHandler(logger *slog.Logger, admins *store.AdminStore, sessions *store.SessionStore, tokens *store.TokenStore, settings *store.SettingsStore, audit *store.AuditStore, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		admins:        admins,
		sessions:      sessions,
		tokens:        tokens,
		settings:      settings,
		audit:         audit,
		secureCookies: secureCookies,
	}
}

// Login authenticates an admin and issues a session cookie carrying the
// resolved permission snapshot.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	input.Username = strings.TrimSpace(input.Username)

	admin, err := h.admins.GetByUsername(r.Context(), input.Username)
	if err != nil || !auth.Verify(admin.PasswordHash, input.Password) {
		h.errorResponse(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if admin.Status == model.StatusPending {
		h.errorResponse(w, r, http.StatusForbidden, "your account is pending approval by a super admin")
		return
	}

	permissions, err := h.admins.EffectivePermissions(r.Context(), admin)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), admin, permissions)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	h.audit.Record(r.Context(), admin.Username, fmt.Sprintf("Admin %s logged in", admin.Username))

	http.SetCookie(w, h.sessionCookie(sessionID, time.Now().Add(24*time.Hour)))
	_ = h.writeJSON(w, http.StatusOK, envelope{"admin": admin, "permissions": permissions}, nil)
}

// Logout destroys the presented session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p := appmw.PrincipalFromContext(r.Context())
	if p != nil {
		if err := h.sessions.Delete(r.Context(), p.SessionID); err != nil {
			h.serverErrorResponse(w, r, err)
			return
		}
		h.audit.Record(r.Context(), p.Username, fmt.Sprintf("Admin %s logged out", p.Username))
	}

	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	_ = h.writeJSON(w, http.StatusOK, envelope{"message": "logged out"}, nil)
}

// Register redeems a registration token and creates a pending admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token    string `json:"token"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "username is required")
		return
	}

	settings, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := auth.CheckPolicy(input.Password, settings); err != nil {
		h.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	admin, err := h.tokens.Redeem(r.Context(), input.Token, input.Username, hash)
	switch {
	case errors.Is(err, store.ErrInvalidToken):
		h.errorResponse(w, r, http.StatusBadRequest,
			"invalid or expired registration token, please obtain a new link from a super admin")
		return
	case errors.Is(err, store.ErrUsernameTaken):
		h.errorResponse(w, r, http.StatusConflict, "username already exists, please choose a different one")
		return
	case err != nil:
		h.serverErrorResponse(w, r, err)
		return
	}

	h.audit.Record(r.Context(), admin.Username,
		fmt.Sprintf("New admin registered: %s (pending approval)", admin.Username))
	_ = h.writeJSON(w, http.StatusCreated, envelope{
		"admin":   admin,
		"message": "registration successful, awaiting super admin approval",
	}, nil)
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     appmw.SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Expires:  expires,
	}
}
