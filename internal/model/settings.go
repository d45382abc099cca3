package model

// Settings is the single site-wide configuration row. SessionTimeout is in
// seconds and is read on every authenticated request; the password fields
// drive the policy applied at registration and password change.
type Settings struct {
	SessionTimeout     int    `json:"session_timeout" db:"session_timeout"`
	MinPasswordLength  int    `json:"min_password_length" db:"min_password_length"`
	RequireSpecialChar bool   `json:"require_special_char" db:"require_special_char"`
	RequireNumber      bool   `json:"require_number" db:"require_number"`
	SiteName           string `json:"site_name" db:"site_name"`
	SiteURL            string `json:"site_url" db:"site_url"`
	EnableRSSFeed      bool   `json:"enable_rss_feed" db:"enable_rss_feed"`
}

// DefaultSettings returns the values used before an administrator has
// saved the settings row.
func DefaultSettings() *Settings {
	return &Settings{
		SessionTimeout:     1800,
		MinPasswordLength:  8,
		RequireSpecialChar: true,
		RequireNumber:      true,
		SiteName:           "JobMail",
		SiteURL:            "http://localhost:8080",
		EnableRSSFeed:      true,
	}
}
