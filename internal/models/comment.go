package models

import "gorm.io/gorm"

// Comment on a savoir. ParentID links a reply to the comment it answers.
type Comment struct {
	Base
	SavoirID   string     `gorm:"type:uuid;not null;index" json:"savoir_id"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *Profile   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ParentID   *string    `gorm:"type:uuid;index" json:"parent_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	LikesCount int        `gorm:"not null;default:0" json:"likes_count"`
	Replies    []*Comment `gorm:"-" json:"replies,omitempty"`
}

// BeforeCreate assigns an id when the caller did not.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
