package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the public face of an authenticated identity.
type Profile struct {
	Base
	Username        string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	FullName        string     `gorm:"size:120" json:"full_name"`
	AvatarURL       string     `json:"avatar_url"`
	Bio             string     `gorm:"type:text" json:"bio"`
	Region          string     `gorm:"size:120" json:"region"`
	Website         string     `json:"website"`
	ReputationScore int        `gorm:"not null;default:0;index" json:"reputation_score"`
	Badges          StringList `gorm:"type:jsonb" json:"badges"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	if p.Badges == nil {
		p.Badges = StringList{}
	}
	return nil
}

// ProfileStats mirrors the four counting functions of the schema.
type ProfileStats struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	SavoirsCount   int64 `json:"savoirs_count"`
	TotalVotes     int64 `json:"total_votes"`
}

// ProfileWithStats is the payload of GET /api/profiles/:username.
type ProfileWithStats struct {
	Profile
	Stats ProfileStats `json:"stats"`
	Tier  string       `json:"tier"`
}

// ProfileUpdate lists the mutable profile fields; nil means untouched.
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Region    *string `json:"region,omitempty"`
	Website   *string `json:"website,omitempty"`
}
