package models

import (
	"time"
)

// Badge defines an achievement and the points it is worth
type Badge struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_tenant_slug" json:"tenant_id"`
	Slug        string    `gorm:"size:100;not null;uniqueIndex:idx_tenant_slug" json:"slug"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Icon        string    `gorm:"size:500" json:"icon,omitempty"`
	Points      int       `gorm:"default:0;not null" json:"points"`
	Category    string    `gorm:"size:100" json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for Badge model
func (Badge) TableName() string {
	return "badges"
}

// UserBadge records a badge award, immutable once created
type UserBadge struct {
	ID       string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge    *Badge    `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model
func (UserBadge) TableName() string {
	return "user_badges"
}
