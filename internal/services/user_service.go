package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"prato-rinaldo/internal/models"
)

type UserService struct {
	db           *gorm.DB
	gamification *GamificationService
}

func NewUserService(db *gorm.DB, gamification *GamificationService) *UserService {
	return &UserService{db: db, gamification: gamification}
}

// GetProfile loads a user's public profile
func (s *UserService) GetProfile(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate carries the self-editable profile fields
type ProfileUpdate struct {
	Name   *string
	Phone  *string
	Bio    *string
	Avatar *string
}

// UpdateProfile edits the user's own profile fields
func (s *UserService) UpdateProfile(user *models.User, update ProfileUpdate) (*models.User, error) {
	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		user.Name = *update.Name
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ListUsers returns one page of a tenant's users, optionally narrowed by
// verification status. Admin only.
func (s *UserService) ListUsers(actor *models.User, status string, page, limit int) ([]models.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.User{}).Where("tenant_id = ?", actor.TenantID)
	if status != "" {
		query = query.Where("verification_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// ApproveResident marks a pending user as a verified resident. Admin only.
// Approval unlocks the private sections and grants the welcome badge.
func (s *UserService) ApproveResident(actor *models.User, userID string) (*models.User, error) {
	return s.setVerification(actor, userID, models.VerificationApproved)
}

// RejectResident declines a pending verification request. Admin only.
func (s *UserService) RejectResident(actor *models.User, userID string) (*models.User, error) {
	return s.setVerification(actor, userID, models.VerificationRejected)
}

func (s *UserService) setVerification(actor *models.User, userID string, status models.VerificationStatus) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	if user.TenantID != actor.TenantID {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if user.VerificationStatus != models.VerificationPending {
		return nil, fmt.Errorf("%w: user is already %s", ErrValidation, user.VerificationStatus)
	}

	if err := s.db.Model(&user).Update("verification_status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update verification: %w", err)
	}
	user.VerificationStatus = status

	if status == models.VerificationApproved {
		if _, err := s.gamification.AwardBadge(user.TenantID, user.ID, "benvenuto"); err != nil {
			// Badge is best effort; verification itself already succeeded
			log.Printf("Welcome badge not awarded to %s: %v", user.ID, err)
		}
	}

	return &user, nil
}

// SetAdminRole grants or clears a user's admin role. Super admin only.
func (s *UserService) SetAdminRole(actor *models.User, userID string, role *models.AdminRole) (*models.User, error) {
	if actor.Role != "super_admin" {
		return nil, fmt.Errorf("%w: super admin access required", ErrForbidden)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}

	updates := map[string]interface{}{"admin_role": role}
	switch {
	case role == nil:
		updates["role"] = "user"
	case *role == models.AdminRoleSuperAdmin:
		updates["role"] = "super_admin"
	case *role == models.AdminRoleAdmin:
		updates["role"] = "admin"
	default:
		updates["role"] = "user"
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to set admin role: %w", err)
	}
	return &user, nil
}

// BachecaSummary is the personal dashboard: the user's own activity at a
// glance plus gamification standing
type BachecaSummary struct {
	Proposals      int64        `json:"proposals"`
	Listings       int64        `json:"listings"`
	UpcomingRsvps  int64        `json:"upcoming_rsvps"`
	ForumThreads   int64        `json:"forum_threads"`
	UnreadMessages int64        `json:"unread_messages"`
	Points         *UserPoints  `json:"points"`
	RecentBadges   []models.UserBadge `json:"recent_badges"`
}

// GetBacheca assembles the dashboard summary for one user
func (s *UserService) GetBacheca(user *models.User) (*BachecaSummary, error) {
	summary := &BachecaSummary{}

	if err := s.db.Model(&models.Proposal{}).
		Where("author_id = ?", user.ID).Count(&summary.Proposals).Error; err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	s.db.Model(&models.MarketplaceItem{}).
		Where("seller_id = ?", user.ID).Count(&summary.Listings)
	s.db.Model(&models.EventRsvp{}).
		Joins("JOIN events ON events.id = event_rsvps.event_id").
		Where("event_rsvps.user_id = ? AND event_rsvps.status = ? AND events.start_date >= CURRENT_TIMESTAMP",
			user.ID, models.RsvpGoing).
		Count(&summary.UpcomingRsvps)
	s.db.Model(&models.ForumThread{}).
		Where("author_id = ?", user.ID).Count(&summary.ForumThreads)
	s.db.Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", user.ID).Count(&summary.UnreadMessages)

	points, err := s.gamification.GetUserPoints(user.ID)
	if err != nil {
		return nil, err
	}
	summary.Points = points

	badges, err := s.gamification.GetUserBadges(user.ID)
	if err != nil {
		return nil, err
	}
	if len(badges) > 5 {
		badges = badges[:5]
	}
	summary.RecentBadges = badges

	return summary, nil
}
