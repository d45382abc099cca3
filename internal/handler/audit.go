package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	appmw "github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/store"
)

// AuditHandler serves the activity log.
type AuditHandler struct {
	BaseHandler
	audit *store.AuditStore
}

func NewAuditHandler(logger *slog.Logger, audit *store.AuditStore) *AuditHandler {
	return &AuditHandler{BaseHandler: BaseHandler{Logger: logger}, audit: audit}
}

// List returns a page of audit entries newest-first, filterable by action
// substring and exact username.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AuditFilter{
		Action:   q.Get("action"),
		Username: q.Get("username"),
	}
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 10)

	entries, total, err := h.audit.Query(r.Context(), filter, page, pageSize)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	usernames, err := h.audit.Usernames(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	_ = h.writeJSON(w, http.StatusOK, envelope{
		"entries":   entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"usernames": usernames,
	}, nil)
}

// Prune deletes audit entries past the retention window.
func (h *AuditHandler) Prune(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.audit.Prune(r.Context(), store.RetentionWindow)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s pruned %d activity log entries", caller.Username, deleted))
	_ = h.writeJSON(w, http.StatusOK, envelope{"deleted": deleted}, nil)
}

func queryInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
