// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusArchived  PostStatus = "ARCHIVED"
)

// Post represents a blog post in the Tati Blog application.
//
// Slug is derived from the title and is unique across all posts; colliding
// titles get a numeric suffix (my-title, my-title-1, ...).
type Post struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Title    string     `gorm:"size:255;not null" json:"title"`
	Content  string     `gorm:"type:text;not null" json:"content"`
	Slug     string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Status   PostStatus `gorm:"size:10;not null;default:DRAFT" json:"status"`
	AuthorID uint       `gorm:"not null;index" json:"author_id"`
	Author   User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`

	// CommentsCount and ReactionsCount are not persisted; computed at query time.
	CommentsCount  int `gorm:"->" json:"comments_count"`
	ReactionsCount int `gorm:"->" json:"reactions_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Comments  []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Reactions []Reaction `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"reactions,omitempty"`
}
