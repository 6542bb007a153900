package models

import (
	"time"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

type ModerationItemType string

const (
	ModerationItemMarketplace ModerationItemType = "marketplace"
	ModerationItemProposal    ModerationItemType = "proposal"
	ModerationItemEvent       ModerationItemType = "event"
	ModerationItemForumThread ModerationItemType = "forum_thread"
)

// ModerationItem is a queue entry pointing at a content row awaiting review.
// The queue holds no state of its own beyond the status and audit fields;
// approving or rejecting flips the status on the underlying row.
type ModerationItem struct {
	ID            string             `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID      string             `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	ItemType      ModerationItemType `gorm:"size:50;not null;index" json:"item_type"`
	ItemID        string             `gorm:"type:varchar(64);not null;index" json:"item_id"`
	ItemCreatorID string             `gorm:"type:varchar(64);not null" json:"item_creator_id"`
	Submitter     *User              `gorm:"foreignKey:ItemCreatorID" json:"submitter,omitempty"`
	Status        ModerationStatus   `gorm:"size:50;default:pending;not null;index" json:"status"`
	AssignedTo    *string            `gorm:"type:varchar(64);index" json:"assigned_to,omitempty"`
	Assignee      *User              `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	ModeratedBy   *string            `gorm:"type:varchar(64)" json:"moderated_by,omitempty"`
	ModeratedAt   *time.Time         `json:"moderated_at,omitempty"`
	Note          *string            `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TableName specifies the table name for ModerationItem model
func (ModerationItem) TableName() string {
	return "moderation_queue"
}

// ModerationActionLog is the audit trail for queue decisions
type ModerationActionLog struct {
	ID          string             `gorm:"type:varchar(64);primaryKey" json:"id"`
	QueueItemID string             `gorm:"type:varchar(64);not null;index" json:"queue_item_id"`
	TenantID    string             `gorm:"type:varchar(64);not null" json:"tenant_id"`
	ItemType    ModerationItemType `gorm:"size:50;not null" json:"item_type"`
	ItemID      string             `gorm:"type:varchar(64);not null" json:"item_id"`
	PerformedBy string             `gorm:"type:varchar(64);not null" json:"performed_by"`
	Action      string             `gorm:"size:50;not null" json:"action"` // approved, rejected, assigned, unassigned
	Note        string             `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TableName specifies the table name for ModerationActionLog model
func (ModerationActionLog) TableName() string {
	return "moderation_actions_log"
}
