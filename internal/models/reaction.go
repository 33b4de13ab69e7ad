package models

import "time"

// ReactionType is the value of a user's reaction to a post.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// ReactionTypes lists every accepted reaction, in display order.
var ReactionTypes = []ReactionType{ReactionLike, ReactionDislike}

// ParseReactionType validates a raw reaction value. The empty string is
// accepted and means "remove my reaction".
func ParseReactionType(raw string) (ReactionType, bool) {
	if raw == "" {
		return "", true
	}
	for _, t := range ReactionTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Reaction is at most one per (user, post).
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reactions_user_post" json:"user_id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_reactions_user_post;index" json:"post_id"`
	Type      ReactionType `gorm:"size:16;not null" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// ReactionSummary aggregates the reactions on a post for one viewer.
type ReactionSummary struct {
	PostID       uint                 `json:"post_id"`
	Counts       map[ReactionType]int `json:"counts"`
	UserReaction *ReactionType        `json:"user_reaction"`
}
