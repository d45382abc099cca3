package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	appmw "github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/store"
)

// TokensHandler issues and lists registration tokens.
type TokensHandler struct {
	BaseHandler
	tokens   *store.TokenStore
	settings *store.SettingsStore
	audit    *store.AuditStore
}

func NewTokensHandler(logger *slog.Logger, tokens *store.TokenStore, settings *store.SettingsStore, audit *store.AuditStore) *TokensHandler {
	return &TokensHandler{
		BaseHandler: BaseHandler{Logger: logger},
		tokens:      tokens,
		settings:    settings,
		audit:       audit,
	}
}

// Issue generates a new single-use registration token and the signup URL
// carrying it.
func (h *TokensHandler) Issue(w http.ResponseWriter, r *http.Request) {
	caller := appmw.PrincipalFromContext(r.Context())

	token, err := h.tokens.Issue(r.Context(), caller.Username)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	registrationURL := ""
	if settings, err := h.settings.Load(r.Context()); err == nil {
		registrationURL = fmt.Sprintf("%s/register?token=%s", settings.SiteURL, token.Token)
	}

	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s generated registration token: %s", caller.Username, token.Token))
	_ = h.writeJSON(w, http.StatusCreated, envelope{
		"token":            token,
		"registration_url": registrationURL,
	}, nil)
}

// List returns all registration tokens newest-first.
func (h *TokensHandler) List(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.List(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	_ = h.writeJSON(w, http.StatusOK, envelope{"tokens": tokens}, nil)
}
