package model

import "time"

// RegistrationToken gates self-service admin signup. A token is consumed by
// exactly one successful registration and is invalid after its expiry.
type RegistrationToken struct {
	ID        int64     `json:"id" db:"id"`
	Token     string    `json:"token" db:"token"`
	Used      bool      `json:"used" db:"used"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
