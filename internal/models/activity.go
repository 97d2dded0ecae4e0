package models

import "gorm.io/gorm"

// Activity types written to the feed.
const (
	ActivitySavoirPublished = "savoir_published"
	ActivityVoteCast        = "vote_cast"
	ActivityCommentPosted   = "comment_posted"
	ActivityReactionAdded   = "reaction_added"
	ActivityFavoriteAdded   = "favorite_added"
	ActivityFollowStarted   = "follow_started"
)

// Activity is an append-only feed event.
type Activity struct {
	Base
	UserID       string   `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ActivityType string   `gorm:"size:32;not null;index" json:"activity_type"`
	TargetID     string   `gorm:"type:uuid" json:"target_id"`
	Metadata     JSONMap  `gorm:"type:jsonb" json:"metadata"`
}

// BeforeCreate assigns an id when the caller did not.
func (a *Activity) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.ID)
	if a.Metadata == nil {
		a.Metadata = JSONMap{}
	}
	return nil
}
