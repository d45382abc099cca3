package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/jobmail/jobboard/internal/auth"
	"github.com/jobmail/jobboard/internal/config"
	"github.com/jobmail/jobboard/internal/store"
)

type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *sqlx.DB
	adminStore    *store.AdminStore
	sessionStore  *store.SessionStore
	tokenStore    *store.TokenStore
	settingsStore *store.SettingsStore
	auditStore    *store.AuditStore
	jobStore      *store.JobStore
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		adminStore:    store.NewAdminStore(db),
		sessionStore:  store.NewSessionStore(db),
		tokenStore:    store.NewTokenStore(db),
		settingsStore: store.NewSettingsStore(db),
		auditStore:    store.NewAuditStore(db),
		jobStore:      store.NewJobStore(db),
	}

	auth.SeedFirstAdmin(ctx, app.adminStore)

	return app, nil
}

func (app *App) Close() {
	app.db.Close()
}

func (app *App) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	app.logger.Info("stopped server")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
