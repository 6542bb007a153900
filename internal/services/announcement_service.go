package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prato-rinaldo/internal/cache"
	"prato-rinaldo/internal/models"
)

type AnnouncementService struct {
	db        *gorm.DB
	feedCache *cache.FeedCache
}

func NewAnnouncementService(db *gorm.DB, feedCache *cache.FeedCache) *AnnouncementService {
	return &AnnouncementService{db: db, feedCache: feedCache}
}

// List returns announcements, pinned first then newest first
func (s *AnnouncementService) List(tenantID string, page, limit int) ([]models.Announcement, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Announcement{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count announcements: %w", err)
	}

	var list []models.Announcement
	if err := query.Preload("Author").
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch announcements: %w", err)
	}

	return list, total, nil
}

// GetByID loads one announcement
func (s *AnnouncementService) GetByID(id string) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.db.Preload("Author").First(&a, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: announcement %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &a, nil
}

// Create publishes a committee notice. Admin only.
func (s *AnnouncementService) Create(author *models.User, title, content, category string, pinned bool) (*models.Announcement, error) {
	if !author.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if len(title) < 5 {
		return nil, fmt.Errorf("%w: title must be at least 5 characters", ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	a := models.Announcement{
		ID:       uuid.NewString(),
		TenantID: author.TenantID,
		AuthorID: author.ID,
		Title:    title,
		Content:  content,
		Category: category,
		IsPinned: pinned,
	}

	if err := s.db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	s.feedCache.Invalidate(context.Background(), author.TenantID)
	return &a, nil
}

// Update edits an announcement. Admin only.
func (s *AnnouncementService) Update(actor *models.User, id, title, content, category string) (*models.Announcement, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}

	var a models.Announcement
	if err := s.db.First(&a, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: announcement %s", ErrNotFound, id)
		}
		return nil, err
	}

	if len(title) < 5 {
		return nil, fmt.Errorf("%w: title must be at least 5 characters", ErrValidation)
	}

	a.Title = title
	a.Content = content
	a.Category = category
	if err := s.db.Save(&a).Error; err != nil {
		return nil, fmt.Errorf("failed to update announcement: %w", err)
	}

	s.feedCache.Invalidate(context.Background(), a.TenantID)
	return &a, nil
}

// SetPinned pins or unpins an announcement. Admin only.
func (s *AnnouncementService) SetPinned(actor *models.User, id string, pinned bool) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}

	result := s.db.Model(&models.Announcement{}).Where("id = ?", id).Update("is_pinned", pinned)
	if result.Error != nil {
		return fmt.Errorf("failed to pin announcement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: announcement %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes an announcement. Admin only.
func (s *AnnouncementService) Delete(actor *models.User, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}

	var a models.Announcement
	if err := s.db.First(&a, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: announcement %s", ErrNotFound, id)
		}
		return err
	}

	if err := s.db.Delete(&a).Error; err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}

	s.feedCache.Invalidate(context.Background(), a.TenantID)
	return nil
}
