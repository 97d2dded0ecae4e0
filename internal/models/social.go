package models

import "gorm.io/gorm"

// Favorite marks a savoir as bookmarked by a user; existence is the state.
type Favorite struct {
	Base
	SavoirID string  `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_savoir_user" json:"savoir_id"`
	UserID   string  `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_savoir_user;index" json:"user_id"`
	Savoir   *Savoir `gorm:"foreignKey:SavoirID" json:"savoir,omitempty"`
}

// BeforeCreate assigns an id when the caller did not.
func (f *Favorite) BeforeCreate(_ *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// Follow is a directed edge between two profiles.
type Follow struct {
	Base
	FollowerID  string `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FollowingID string `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair;index" json:"following_id"`
}

// BeforeCreate assigns an id when the caller did not.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// Follow listing directions.
const (
	DirectionFollowers = "followers"
	DirectionFollowing = "following"
)
