// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents an author or reader account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password  string    `gorm:"not null" json:"-"`
	Intro     string    `gorm:"size:500" json:"intro"`
	About     string    `gorm:"type:text" json:"about"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicProfile strips account-only fields before a user is shown to others.
func (u User) PublicProfile() User {
	u.Email = ""
	u.IsAdmin = false
	return u
}
