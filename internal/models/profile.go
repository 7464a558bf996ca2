package models

import (
	"time"
)

// Profile represents a user profile in the system
type Profile struct {
	UserID    string    `json:"user_id" db:"user_id"` // ID owned by the identity provider
	Credits   int       `json:"credits" db:"credits"` // Default value: 3 credits
	Tier      string    `json:"tier" db:"tier"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	TierFree = "free"

	DefaultCredits = 3
)
