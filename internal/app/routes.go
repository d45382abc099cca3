package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/jobmail/jobboard/internal/handler"
	"github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/perm"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Health check
	r.Get("/api/health", handler.Health(app.db))

	// Public job listings and feed
	jobsHandler := handler.NewJobsHandler(app.logger, app.jobStore, app.auditStore)
	r.Get("/api/jobs", jobsHandler.PublicList)
	r.Get("/api/jobs/{id}", jobsHandler.PublicGet)

	rssHandler := handler.NewRSSHandler(app.logger, app.jobStore, app.settingsStore, app.auditStore)
	r.Get("/feed.xml", rssHandler.Feed)

	// Credential endpoints, throttled per IP
	authHandler := handler.NewAuthHandler(app.logger, app.adminStore, app.sessionStore,
		app.tokenStore, app.settingsStore, app.auditStore, app.config.SecureCookies)
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(5, 5*time.Minute))
		r.Post("/api/login", authHandler.Login)
		r.Post("/api/register", authHandler.Register)
	})

	// Protected admin routes
	sessionMW := middleware.Session(app.sessionStore, app.settingsStore)
	r.Group(func(r chi.Router) {
		r.Use(sessionMW)

		r.Post("/api/logout", authHandler.Logout)

		adminsHandler := handler.NewAdminsHandler(app.logger, app.adminStore, app.sessionStore,
			app.settingsStore, app.auditStore)
		r.With(middleware.RequirePermission(perm.KeyChangePassword)).
			Post("/api/admin/password", adminsHandler.ChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(perm.KeyManageAdmins))
			r.Get("/api/admin/users", adminsHandler.List)
			r.Post("/api/admin/users", adminsHandler.Create)
			r.Post("/api/admin/users/{id}/approve", adminsHandler.Approve)
			r.Post("/api/admin/users/{id}/reject", adminsHandler.Reject)
		})
		r.With(middleware.RequirePermission(perm.KeyDeleteAdmins)).
			Delete("/api/admin/users/{id}", adminsHandler.Delete)
		r.With(middleware.RequirePermission(perm.KeyManagePermissions)).
			Put("/api/admin/users/{id}/permissions", adminsHandler.UpdatePermissions)

		tokensHandler := handler.NewTokensHandler(app.logger, app.tokenStore, app.settingsStore, app.auditStore)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(perm.KeyGenerateTokens))
			r.Post("/api/admin/tokens", tokensHandler.Issue)
			r.Get("/api/admin/tokens", tokensHandler.List)
		})

		auditHandler := handler.NewAuditHandler(app.logger, app.auditStore)
		r.With(middleware.RequirePermission(perm.KeyViewActivityLog)).
			Get("/api/admin/logs", auditHandler.List)
		r.With(middleware.RequirePermission(perm.KeyManageSettings)).
			Post("/api/admin/logs/prune", auditHandler.Prune)

		settingsHandler := handler.NewSettingsHandler(app.logger, app.settingsStore, app.auditStore)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(perm.KeyManageSettings))
			r.Get("/api/admin/settings", settingsHandler.Get)
			r.Put("/api/admin/settings", settingsHandler.Update)
		})

		r.With(middleware.RequirePermission(perm.KeyPostJobs)).
			Post("/api/admin/jobs", jobsHandler.Create)
		r.With(middleware.RequirePermission(perm.KeyEditJobs)).
			Get("/api/admin/jobs", jobsHandler.AdminList)
		r.With(middleware.RequirePermission(perm.KeyEditJobs)).
			Put("/api/admin/jobs/{id}", jobsHandler.Update)
		r.With(middleware.RequirePermission(perm.KeyDeleteJobs)).
			Delete("/api/admin/jobs/{id}", jobsHandler.Delete)
		r.With(middleware.RequirePermission(perm.KeyViewStats)).
			Get("/api/admin/jobs/stats", jobsHandler.Stats)
		r.With(middleware.RequirePermission(perm.KeyGenerateRSS)).
			Post("/api/admin/rss", rssHandler.Generate)
	})

	return r
}
