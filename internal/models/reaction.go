package models

import "gorm.io/gorm"

// Reaction is an emoji left on a savoir. A user may leave several.
type Reaction struct {
	Base
	SavoirID string `gorm:"type:uuid;not null;index" json:"savoir_id"`
	UserID   string `gorm:"type:uuid;not null;index" json:"user_id"`
	Emoji    string `gorm:"size:16;not null" json:"emoji"`
}

// BeforeCreate assigns an id when the caller did not.
func (r *Reaction) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// ReactionOption is one entry of the reaction palette.
type ReactionOption struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

// ReactionOptions is the accepted palette, in display order.
var ReactionOptions = []ReactionOption{
	{Emoji: "👍", Label: "Utile"},
	{Emoji: "❤️", Label: "J'aime"},
	{Emoji: "🔥", Label: "C'est chaud !"},
	{Emoji: "🎓", Label: "Instructif"},
	{Emoji: "💯", Label: "Parfait"},
	{Emoji: "🤔", Label: "Intéressant"},
}

// IsReactionEmoji reports whether emoji belongs to the palette.
func IsReactionEmoji(emoji string) bool {
	for _, o := range ReactionOptions {
		if o.Emoji == emoji {
			return true
		}
	}
	return false
}

// ReactionCount aggregates reactions per emoji.
type ReactionCount struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ReactionSummary is the payload of GET /api/reactions.
type ReactionSummary struct {
	SavoirID string          `json:"savoir_id"`
	Counts   []ReactionCount `json:"counts"`
	Mine     []string        `json:"mine"`
}
