// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post represents a published article in the Inkwell application.
type Post struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Title string `gorm:"not null" json:"title"`
	// Content is the rich-text body; never included in list projections.
	Content string `gorm:"type:text;not null" json:"content"`
	Excerpt string `gorm:"type:text" json:"excerpt"`
	// CoverImageURL and CoverImagePublicID are set or cleared together; the
	// public ID is the asset store's key for the uploaded cover image.
	CoverImageURL      string    `json:"coverImageURL"`
	CoverImagePublicID string    `json:"coverImagePublicId"`
	AuthorID           uint      `gorm:"not null;index" json:"authorId"`
	Author             User      `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
