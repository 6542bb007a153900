package models

import (
	"time"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleModerator  AdminRole = "moderator"
)

// User represents a registered resident or admin of a community
type User struct {
	ID                 string             `gorm:"type:varchar(64);primaryKey" json:"id"`
	TenantID           string             `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	Name               string             `gorm:"size:255;not null" json:"name"`
	Email              string             `gorm:"size:320;uniqueIndex;not null" json:"email"`
	PasswordHash       string             `gorm:"size:255;not null" json:"-"`
	Role               string             `gorm:"size:50;default:user;not null" json:"role"` // user, admin, super_admin
	AdminRole          *AdminRole         `gorm:"size:50" json:"admin_role,omitempty"`
	VerificationStatus VerificationStatus `gorm:"size:50;default:pending;not null;index" json:"verification_status"`
	IsInBoard          bool               `gorm:"default:false;not null" json:"is_in_board"`
	Phone              string             `gorm:"size:50" json:"phone,omitempty"`
	Bio                string             `gorm:"type:text" json:"bio,omitempty"`
	Avatar             string             `gorm:"size:500" json:"avatar,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user can access admin areas
func (u *User) IsAdmin() bool {
	return u.Role == "admin" || u.Role == "super_admin"
}

// IsModerator reports whether the user can act on the moderation queue
func (u *User) IsModerator() bool {
	if u.IsAdmin() {
		return true
	}
	return u.AdminRole != nil && *u.AdminRole == AdminRoleModerator
}

// IsVerifiedResident reports whether residency checks have passed,
// gating the private sections (agora, private feed)
func (u *User) IsVerifiedResident() bool {
	return u.VerificationStatus == VerificationApproved
}
