package models

import (
	"time"
)

type ProposalStatus string

const (
	ProposalStatusProposed    ProposalStatus = "proposed"
	ProposalStatusUnderReview ProposalStatus = "under_review"
	ProposalStatusApproved    ProposalStatus = "approved"
	ProposalStatusInProgress  ProposalStatus = "in_progress"
	ProposalStatusCompleted   ProposalStatus = "completed"
	ProposalStatusDeclined    ProposalStatus = "declined"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// ProposalCategory groups agora proposals (e.g. viability, green areas)
type ProposalCategory struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID    string    `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Icon        string    `gorm:"size:100" json:"icon,omitempty"`
	Color       string    `gorm:"size:20" json:"color,omitempty"`
	OrderIndex  int       `gorm:"default:0" json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for ProposalCategory model
func (ProposalCategory) TableName() string {
	return "proposal_categories"
}

// Proposal represents a civic-improvement suggestion residents vote on.
// Score is denormalized (upvotes - downvotes) and kept in sync inside the
// same transaction that mutates the vote rows.
type Proposal struct {
	ID            string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID      string            `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	CategoryID    string            `gorm:"type:varchar(64);not null;index" json:"category_id"`
	Category      *ProposalCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AuthorID      string            `gorm:"type:varchar(64);not null;index" json:"author_id"`
	Author        *User             `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title         string            `gorm:"size:500;not null" json:"title"`
	Description   string            `gorm:"type:text;not null" json:"description"`
	Status        ProposalStatus    `gorm:"size:50;default:proposed;not null;index" json:"status"`
	Upvotes       int               `gorm:"default:0;not null" json:"upvotes"`
	Downvotes     int               `gorm:"default:0;not null" json:"downvotes"`
	Score         int               `gorm:"default:0;not null;index" json:"score"`
	ViewCount     int               `gorm:"default:0;not null" json:"view_count"`
	DeclineReason *string           `gorm:"type:text" json:"decline_reason,omitempty"`
	PlannedDate   *time.Time        `json:"planned_date,omitempty"`
	CompletedDate *time.Time        `json:"completed_date,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Proposal model
func (Proposal) TableName() string {
	return "proposals"
}

// ProposalVote is one resident's vote on one proposal, unique per pair
type ProposalVote struct {
	ID         string        `gorm:"type:varchar(64);primaryKey" json:"id"`
	ProposalID string        `gorm:"type:varchar(64);not null;uniqueIndex:idx_proposal_user" json:"proposal_id"`
	UserID     string        `gorm:"type:varchar(64);not null;uniqueIndex:idx_proposal_user" json:"user_id"`
	Direction  VoteDirection `gorm:"size:10;not null" json:"direction"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName specifies the table name for ProposalVote model
func (ProposalVote) TableName() string {
	return "proposal_votes"
}

// ProposalComment is a discussion entry under a proposal
type ProposalComment struct {
	ID         string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID   string    `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	ProposalID string    `gorm:"type:varchar(64);not null;index" json:"proposal_id"`
	UserID     string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for ProposalComment model
func (ProposalComment) TableName() string {
	return "proposal_comments"
}

// ProposalStatusHistory records every status transition with the actor
type ProposalStatusHistory struct {
	ID         string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	ProposalID string         `gorm:"type:varchar(64);not null;index" json:"proposal_id"`
	NewStatus  ProposalStatus `gorm:"size:50;not null" json:"new_status"`
	ChangedBy  string         `gorm:"type:varchar(64);not null" json:"changed_by"`
	Reason     *string        `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName specifies the table name for ProposalStatusHistory model
func (ProposalStatusHistory) TableName() string {
	return "proposal_status_history"
}
