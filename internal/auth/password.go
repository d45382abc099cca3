package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobmail/jobboard/internal/model"
)

const bcryptCost = 12

// ErrWeakPassword indicates a password that fails the site policy. The
// wrapped message is safe to show to the user.
var ErrWeakPassword = errors.New("weak password")

const specialChars = `!@#$%^&*(),.?":{}|<>`

// Hash returns a bcrypt hash of the password.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(b), err
}

// Verify reports whether password matches the stored bcrypt hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken returns a 16-byte cryptographically random hex string,
// used for registration tokens.
func GenerateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// CheckPolicy validates a candidate password against the persisted site
// policy. Violations return an error wrapping ErrWeakPassword.
func CheckPolicy(password string, s *model.Settings) error {
	if len(password) < s.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, s.MinPasswordLength)
	}
	if s.RequireSpecialChar && !strings.ContainsAny(password, specialChars) {
		return fmt.Errorf("%w: must contain at least one special character", ErrWeakPassword)
	}
	if s.RequireNumber && !strings.ContainsFunc(password, unicode.IsDigit) {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}
	return nil
}

// AdminCreator is the minimal interface needed for seeding the first admin.
type AdminCreator interface {
	CountAll(ctx context.Context) (int, error)
	CreateApproved(ctx context.Context, username, passwordHash string, role model.Role) error
}

// SeedFirstAdmin creates the initial approved super_admin from env vars if
// the admins table is empty.
func SeedFirstAdmin(ctx context.Context, admins AdminCreator) {
	username := os.Getenv("SEED_ADMIN_USERNAME")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}

	count, err := admins.CountAll(ctx)
	if err != nil {
		slog.Error("seed: failed to count admins", "err", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := Hash(password)
	if err != nil {
		slog.Error("seed: failed to hash password", "err", err)
		return
	}

	if err := admins.CreateApproved(ctx, username, hash, model.RoleSuperAdmin); err != nil {
		slog.Error("seed: failed to create admin", "err", err)
		return
	}
	slog.Info("seed: created first super_admin", "username", username)
}
