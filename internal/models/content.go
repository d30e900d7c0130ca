package models

import (
	"time"

	"gorm.io/gorm"
)

// JobPost is a job board entry. PostedBy holds the internal member id.
type JobPost struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Company     string         `gorm:"size:200" json:"company"`
	Location    string         `gorm:"size:200" json:"location"`
	Description string         `gorm:"type:text" json:"description"`
	ApplyURL    string         `gorm:"size:500" json:"apply_url"`
	PostedBy    uint           `gorm:"index" json:"posted_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (JobPost) TableName() string { return "jobs" }

// Story is an alumni story card. AuthorSubject holds the external
// subject id rather than the internal member id; the two content
// families key authors differently, an inconsistency inherited from the
// original data model and preserved for schema compatibility. The
// listing joiner resolves either key.
type Story struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Body          string         `gorm:"type:text" json:"body"`
	AuthorSubject string         `gorm:"size:128;index" json:"author_subject"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Story) TableName() string { return "stories" }

// Event is a community event entry. CreatedBy holds the internal member id.
type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Venue       string         `gorm:"size:300" json:"venue"`
	StartsAt    time.Time      `json:"starts_at"`
	CreatedBy   uint           `gorm:"index" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string { return "events" }
