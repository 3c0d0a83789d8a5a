// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is a local row for an identity managed by the external OAuth provider.
// Only the fields the blog consumes are stored; credentials never are.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Provider and Subject identify the user at the auth provider. The pair is
	// unique and is how sessions are mapped to local rows.
	Provider  string    `gorm:"size:32;not null;uniqueIndex:idx_users_identity" json:"-"`
	Subject   string    `gorm:"size:191;not null;uniqueIndex:idx_users_identity" json:"-"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Posts     []Post    `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}

// Session is the resolved identity of the requesting user. Middleware builds
// it once per request from the verified token and it is carried explicitly
// through handlers and services instead of re-deriving it from headers.
type Session struct {
	UserID uint
	Name   string
	Image  string
}
