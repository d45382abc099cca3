package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/perm"
	"github.com/jobmail/jobboard/internal/store"
)

const SessionCookieName = "session"

const defaultSessionTimeout = 1800 * time.Second

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// Principal is the authenticated identity threaded through the request
// context. Permissions is the session's snapshot of the effective set.
type Principal struct {
	SessionID   string
	AdminID     int64
	Username    string
	Role        model.Role
	Permissions perm.Set
}

// SessionToucher validates a session and applies the sliding expiration.
type SessionToucher interface {
	Touch(ctx context.Context, id string, timeout time.Duration) (*store.Session, error)
}

// SettingsLoader reads the site settings for the idle-timeout value.
type SettingsLoader interface {
	Load(ctx context.Context) (*model.Settings, error)
}

// Session validates the session cookie, applies the idle timeout from the
// site settings and attaches a Principal to the request context. Requests
// without a live session get 401.
func Session(sessions SessionToucher, settings SettingsLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			timeout := defaultSessionTimeout
			if s, err := settings.Load(r.Context()); err == nil && s.SessionTimeout > 0 {
				timeout = time.Duration(s.SessionTimeout) * time.Second
			}

			sess, err := sessions.Touch(r.Context(), cookie.Value, timeout)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "session expired, please log in again")
				return
			}

			p := &Principal{
				SessionID:   sess.ID,
				AdminID:     sess.AdminID,
				Username:    sess.Username,
				Role:        sess.Role,
				Permissions: sess.Permissions,
			}
			ctx := context.WithValue(r.Context(), contextKeyPrincipal, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated principal, or nil for an
// anonymous request.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKeyPrincipal).(*Principal)
	return p
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":` + `"` + message + `"}`))
}
