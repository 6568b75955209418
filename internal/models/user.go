// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the access level assigned to a user account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a registered account in the Tati Blog application.
//
// UserSecret is mixed into the signature of every access token issued for the
// user; rotating it invalidates all previously issued access tokens without a
// server-side blocklist.
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:50;not null" json:"name"`
	Lastname   string `gorm:"size:50;not null" json:"lastname"`
	Email      string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password   string `gorm:"not null" json:"-"`
	UserSecret string `gorm:"size:255;uniqueIndex;not null" json:"-"`
	Role       Role   `gorm:"size:10;not null;default:USER" json:"role"`
	IsActive   bool   `gorm:"not null;default:false" json:"is_active"`

	// ActivationToken is single-use: it is cleared when the account is
	// activated, so a consumed token no longer matches any row.
	ActivationToken *string `gorm:"size:50;uniqueIndex" json:"-"`

	PasswordResetToken          *string    `gorm:"size:50;uniqueIndex" json:"-"`
	PasswordResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Posts     []Post     `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
	Comments  []Comment  `gorm:"foreignKey:UserID" json:"comments,omitempty"`
	Reactions []Reaction `gorm:"foreignKey:UserID" json:"reactions,omitempty"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.Name + " " + u.Lastname
}
