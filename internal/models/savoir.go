package models

import (
	"time"

	"gorm.io/gorm"
)

// Savoir is a published knowledge article.
type Savoir struct {
	Base
	Slug          string     `gorm:"uniqueIndex;size:160;not null" json:"slug"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Excerpt       string     `gorm:"size:400;not null" json:"excerpt"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Category      string     `gorm:"size:64;not null;index" json:"category"`
	Era           string     `gorm:"size:64;not null;index" json:"era"`
	Region        string     `gorm:"size:120;index" json:"region"`
	Tags          StringList `gorm:"type:jsonb" json:"tags"`
	Images        StringList `gorm:"type:jsonb" json:"images"`
	ContributorID string     `gorm:"type:uuid;not null;index" json:"contributor_id"`
	Contributor   *Profile   `gorm:"foreignKey:ContributorID" json:"contributor,omitempty"`
	VotesCount    int        `gorm:"not null;default:0" json:"votes_count"`
	ApprovalRate  int        `gorm:"not null;default:0" json:"approval_rate"`
	ViewsCount    int        `gorm:"not null;default:0" json:"views_count"`
	CommentsCount int        `gorm:"not null;default:0" json:"comments_count"`
	Published     bool       `gorm:"not null;index" json:"published"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an id and normalises list columns.
func (s *Savoir) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	if s.Tags == nil {
		s.Tags = StringList{}
	}
	if s.Images == nil {
		s.Images = StringList{}
	}
	return nil
}

// Listing sort orders.
const (
	SortRecent   = "recent"
	SortVotes    = "votes"
	SortTrending = "trending"
)

// SavoirFilter holds the listing query parameters.
type SavoirFilter struct {
	Category      string
	Era           string
	Region        string
	Search        string
	Sort          string
	ContributorID string
	Limit         int
	Offset        int
	// IncludeDrafts lists unpublished savoirs too; only set for the owner or service tier.
	IncludeDrafts bool
}

// SavoirPatch lists the owner-editable fields; nil means untouched.
type SavoirPatch struct {
	Title     *string   `json:"title,omitempty"`
	Excerpt   *string   `json:"excerpt,omitempty"`
	Content   *string   `json:"content,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Era       *string   `json:"era,omitempty"`
	Region    *string   `json:"region,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
	Images    *[]string `json:"images,omitempty"`
	Published *bool     `json:"published,omitempty"`
}

// Page is the envelope of every paginated listing.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
}
