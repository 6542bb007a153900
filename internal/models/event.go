package models

import (
	"time"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

type RsvpStatus string

const (
	RsvpGoing    RsvpStatus = "going"
	RsvpMaybe    RsvpStatus = "maybe"
	RsvpNotGoing RsvpStatus = "not_going"
)

// Event represents a community event (feste, assemblee, mercatini)
type Event struct {
	ID           string      `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID     string      `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	OrganizerID  string      `gorm:"type:varchar(64);not null;index" json:"organizer_id"`
	Organizer    *User       `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
	Title        string      `gorm:"size:500;not null" json:"title"`
	Description  string      `gorm:"type:text" json:"description"`
	Location     string      `gorm:"size:500" json:"location,omitempty"`
	CoverImage   string      `gorm:"size:500" json:"cover_image,omitempty"`
	StartDate    time.Time   `gorm:"not null" json:"start_date"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
	IsPrivate    bool        `gorm:"default:false;not null" json:"is_private"`
	MaxAttendees *int        `json:"max_attendees,omitempty"`
	Status       EventStatus `gorm:"size:50;default:draft;not null;index" json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Filled by queries, not stored
	RsvpCount int `gorm:"-" json:"rsvp_count"`
}

// TableName specifies the table name for Event model
func (Event) TableName() string {
	return "events"
}

// EventRsvp is one user's attendance answer for one event
type EventRsvp struct {
	ID        string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	EventID   string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID    string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_event_user" json:"user_id"`
	Status    RsvpStatus `gorm:"size:20;default:going;not null" json:"status"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for EventRsvp model
func (EventRsvp) TableName() string {
	return "event_rsvps"
}
