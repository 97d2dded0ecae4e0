package models

import (
	"time"

	"gorm.io/gorm"
)

// Vote directions.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is a user's directional vote on a savoir. One row per (savoir, user).
type Vote struct {
	Base
	SavoirID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_savoir_user" json:"savoir_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_savoir_user;index" json:"user_id"`
	VoteType  int       `gorm:"not null" json:"vote_type"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (v *Vote) BeforeCreate(_ *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// VoteTally is the raw vote distribution of one savoir.
type VoteTally struct {
	Up   int64
	Down int64
}

// Net is upvotes minus downvotes.
func (t VoteTally) Net() int {
	return int(t.Up - t.Down)
}

// ApprovalRate is the rounded share of upvotes, 0 without votes.
func (t VoteTally) ApprovalRate() int {
	total := t.Up + t.Down
	if total == 0 {
		return 0
	}
	return int((t.Up*100 + total/2) / total)
}

// VoteResult is returned after casting a vote.
type VoteResult struct {
	SavoirID     string `json:"savoir_id"`
	Vote         int    `json:"vote"`
	VotesCount   int    `json:"votes_count"`
	ApprovalRate int    `json:"approval_rate"`
}
