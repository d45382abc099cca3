package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Database
	DatabasePath string

	SecureCookies bool
}

func Load() (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	flag.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	flag.StringVar(&cfg.DatabasePath, "database-path", getEnv("DATABASE_PATH", "jobboard.db"), "sqlite database path")
	cfg.SecureCookies = getEnv("SECURE_COOKIES", "false") == "true"

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be development or production, got %q", c.Env)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
