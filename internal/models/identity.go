package models

import "time"

// Identity providers.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// Identity is a sign-in record. Its id is shared with the matching Profile.
type Identity struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `json:"-"`
	Provider     string    `gorm:"size:32;not null" json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}
