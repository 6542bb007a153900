package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusApproved ListingStatus = "approved"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusRejected ListingStatus = "rejected"
)

// MarketplaceItem represents a mercatino listing. New listings start in
// pending and only become publicly visible once moderation approves them.
type MarketplaceItem struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID    string          `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	SellerID    string          `gorm:"type:varchar(64);not null;index" json:"seller_id"`
	Seller      *User           `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Title       string          `gorm:"size:500;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Condition   string          `gorm:"size:50" json:"condition,omitempty"` // new, like_new, good, fair, poor
	Images      pq.StringArray  `gorm:"type:text[]" json:"images"`
	IsPrivate   bool            `gorm:"default:false;not null" json:"is_private"`
	Status      ListingStatus   `gorm:"size:50;default:pending;not null;index" json:"status"`
	ViewCount   int             `gorm:"default:0;not null" json:"view_count"`
	ApprovedBy  *string         `gorm:"type:varchar(64)" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	SoldAt      *time.Time      `json:"sold_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for MarketplaceItem model
func (MarketplaceItem) TableName() string {
	return "marketplace_items"
}
