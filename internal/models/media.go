package models

import "time"

// MediaSubmission is an uploaded piece of media waiting for review.
// pending → approved spawns exactly one PublishedMedium; pending →
// rejected is terminal. A submission is never reopened.
type MediaSubmission struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UploaderID      uint       `gorm:"index;not null" json:"uploader_id"`
	Title           string     `gorm:"size:200" json:"title"`
	Locator         string     `gorm:"size:500;not null" json:"locator"`
	ContentType     string     `gorm:"size:100" json:"content_type"`
	ModerationState string     `gorm:"size:20;default:pending;index" json:"moderation_state"`
	ModerationNotes string     `gorm:"size:500" json:"moderation_notes,omitempty"`
	ModeratorID     *uint      `json:"moderator_id,omitempty"`
	ModeratedAt     *time.Time `json:"moderated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (MediaSubmission) TableName() string { return "media_submissions" }

// PublishedMedium is community-visible media that cleared review. It is
// created only by the moderation flow and never edited by it afterward.
type PublishedMedium struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200" json:"title"`
	Locator       string    `gorm:"size:500;not null" json:"locator"`
	Year          int       `json:"year"`
	Category      string    `gorm:"size:100" json:"category"`
	ContributedBy uint      `gorm:"index" json:"contributed_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PublishedMedium) TableName() string { return "published_media" }
