package models

import (
	"time"
)

// Announcement is a committee notice shown on the bacheca and in the feed
type Announcement struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	AuthorID  string    `gorm:"type:varchar(64);not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title     string    `gorm:"size:500;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  string    `gorm:"size:100" json:"category,omitempty"`
	IsPinned  bool      `gorm:"default:false;not null" json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Announcement model
func (Announcement) TableName() string {
	return "announcements"
}
