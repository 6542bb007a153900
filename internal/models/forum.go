package models

import (
	"time"
)

// ForumCategory is a top-level discussion board
type ForumCategory struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID    string    `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Icon        string    `gorm:"size:100" json:"icon,omitempty"`
	OrderIndex  int       `gorm:"default:0" json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for ForumCategory model
func (ForumCategory) TableName() string {
	return "forum_categories"
}

// ForumThread is a discussion started inside a category
type ForumThread struct {
	ID         string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CategoryID string    `gorm:"type:varchar(64);not null;index" json:"category_id"`
	AuthorID   string    `gorm:"type:varchar(64);not null;index" json:"author_id"`
	Author     *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title      string    `gorm:"size:500;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsPinned   bool      `gorm:"default:false;not null" json:"is_pinned"`
	IsLocked   bool      `gorm:"default:false;not null" json:"is_locked"`
	ViewCount  int       `gorm:"default:0;not null" json:"view_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Filled by queries, not stored
	PostCount int `gorm:"-" json:"post_count"`
}

// TableName specifies the table name for ForumThread model
func (ForumThread) TableName() string {
	return "forum_threads"
}

// ForumPost is a reply inside a thread
type ForumPost struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	ThreadID  string    `gorm:"type:varchar(64);not null;index" json:"thread_id"`
	AuthorID  string    `gorm:"type:varchar(64);not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ForumPost model
func (ForumPost) TableName() string {
	return "forum_posts"
}
