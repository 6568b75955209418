package models

import (
	"time"
)

// ReactionType enumerates the supported reaction kinds.
type ReactionType string

const (
	ReactionLike  ReactionType = "LIKE"
	ReactionLove  ReactionType = "LOVE"
	ReactionHaha  ReactionType = "HAHA"
	ReactionSad   ReactionType = "SAD"
	ReactionAngry ReactionType = "ANGRY"
)

// ValidReactionType reports whether t is one of the supported reaction kinds.
func ValidReactionType(t ReactionType) bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// Reaction represents a user's reaction to a post.
// The combination of UserID and PostID must be unique: a second reaction by
// the same user on the same post updates the existing record's type.
type Reaction struct {
	ID     uint         `gorm:"primaryKey" json:"id"`
	PostID uint         `gorm:"not null;uniqueIndex:idx_reaction_user_post" json:"post_id"`
	Post   Post         `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID uint         `gorm:"not null;uniqueIndex:idx_reaction_user_post" json:"user_id"`
	User   User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Type   ReactionType `gorm:"size:10;not null;default:LIKE" json:"type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
