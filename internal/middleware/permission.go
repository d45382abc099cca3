package middleware

import (
	"net/http"

	"github.com/jobmail/jobboard/internal/perm"
)

// RequirePermission returns middleware that allows only principals whose
// effective permission set grants key. It must run after Session. A
// missing or false key yields 403; a missing principal means Session was
// bypassed and yields 401.
func RequirePermission(key perm.Key) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !p.Permissions.Allows(key) {
				writeError(w, http.StatusForbidden, "you do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
