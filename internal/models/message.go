package models

import (
	"time"
)

// Message is a direct message between two residents
type Message struct {
	ID          string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID    string     `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	SenderID    string     `gorm:"type:varchar(64);not null;index" json:"sender_id"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	RecipientID string     `gorm:"type:varchar(64);not null;index" json:"recipient_id"`
	Recipient   *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for Message model
func (Message) TableName() string {
	return "messages"
}
