package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/feeds"

	appmw "github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/store"
)

// RSSHandler renders published jobs as an RSS 2.0 feed.
type RSSHandler struct {
	BaseHandler
	jobs     *store.JobStore
	settings *store.SettingsStore
	audit    *store.AuditStore
}

func NewRSSHandler(logger *slog.Logger, jobs *store.JobStore, settings *store.SettingsStore, audit *store.AuditStore) *RSSHandler {
	return &RSSHandler{
		BaseHandler: BaseHandler{Logger: logger},
		jobs:        jobs,
		settings:    settings,
		audit:       audit,
	}
}

// Feed is the public feed endpoint. It 404s while the feed is disabled in
// settings.
func (h *RSSHandler) Feed(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if !settings.EnableRSSFeed {
		h.notFoundResponse(w, r)
		return
	}
	h.writeFeed(w, r)
}

// Generate is the audit-logged admin endpoint producing the same feed.
func (h *RSSHandler) Generate(w http.ResponseWriter, r *http.Request) {
	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s generated RSS feed", caller.Username))
	h.writeFeed(w, r)
}

func (h *RSSHandler) writeFeed(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	jobs, err := h.jobs.ListPublished(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s - Latest Jobs", settings.SiteName),
		Link:        &feeds.Link{Href: settings.SiteURL},
		Description: fmt.Sprintf("Latest published job listings from %s", settings.SiteName),
	}
	for _, job := range jobs {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       job.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/jobs/%d", settings.SiteURL, job.ID)},
			Description: job.Description,
			Created:     job.PostedAt,
			Id:          fmt.Sprintf("%s/jobs/%d", settings.SiteURL, job.ID),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(rss))
}
