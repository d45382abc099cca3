package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	appmw "github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/store"
)

// SettingsHandler reads and updates the site-wide settings row.
type SettingsHandler struct {
	BaseHandler
	settings *store.SettingsStore
	audit    *store.AuditStore
}

func NewSettingsHandler(logger *slog.Logger, settings *store.SettingsStore, audit *store.AuditStore) *SettingsHandler {
	return &SettingsHandler{BaseHandler: BaseHandler{Logger: logger}, settings: settings, audit: audit}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	_ = h.writeJSON(w, http.StatusOK, envelope{"settings": settings}, nil)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input model.Settings
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.SessionTimeout < 60 {
		h.errorResponse(w, r, http.StatusUnprocessableEntity, "session_timeout must be at least 60 seconds")
		return
	}
	if input.MinPasswordLength < 4 {
		h.errorResponse(w, r, http.StatusUnprocessableEntity, "min_password_length must be at least 4")
		return
	}
	if input.SiteName == "" || input.SiteURL == "" {
		h.errorResponse(w, r, http.StatusUnprocessableEntity, "site_name and site_url are required")
		return
	}

	if err := h.settings.Save(r.Context(), &input); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s changed settings", caller.Username))
	_ = h.writeJSON(w, http.StatusOK, envelope{"settings": input}, nil)
}
