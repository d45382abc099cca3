package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/jobmail/jobboard/internal/model"
)

type SettingsStore struct {
	db *sqlx.DB
}

func NewSettingsStore(db *sqlx.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Load returns the settings row, seeding defaults if none exists yet.
func (s *SettingsStore) Load(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	err := s.db.GetContext(ctx, &settings,
		`SELECT session_timeout, min_password_length, require_special_char, require_number,
		        site_name, site_url, enable_rss_feed
		 FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := model.DefaultSettings()
		if saveErr := s.Save(ctx, defaults); saveErr != nil {
			return nil, saveErr
		}
		return defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save upserts the single settings row.
func (s *SettingsStore) Save(ctx context.Context, settings *model.Settings) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO settings (id, session_timeout, min_password_length, require_special_char,
		                       require_number, site_name, site_url, enable_rss_feed)
		 VALUES (1, :session_timeout, :min_password_length, :require_special_char,
		         :require_number, :site_name, :site_url, :enable_rss_feed)
		 ON CONFLICT (id) DO UPDATE SET
		     session_timeout = excluded.session_timeout,
		     min_password_length = excluded.min_password_length,
		     require_special_char = excluded.require_special_char,
		     require_number = excluded.require_number,
		     site_name = excluded.site_name,
		     site_url = excluded.site_url,
		     enable_rss_feed = excluded.enable_rss_feed`,
		settings)
	return err
}
