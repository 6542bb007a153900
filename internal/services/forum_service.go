package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prato-rinaldo/internal/events"
	"prato-rinaldo/internal/models"
)

type ForumService struct {
	db       *gorm.DB
	producer *events.Producer
}

func NewForumService(db *gorm.DB, producer *events.Producer) *ForumService {
	return &ForumService{db: db, producer: producer}
}

// ListCategories returns the boards of a tenant in display order
func (s *ForumService) ListCategories(tenantID string) ([]models.ForumCategory, error) {
	var categories []models.ForumCategory
	if err := s.db.Where("tenant_id = ?", tenantID).
		Order("order_index ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch forum categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a board. Admin only.
func (s *ForumService) CreateCategory(actor *models.User, name, description, icon string) (*models.ForumCategory, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	var maxOrder int
	s.db.Model(&models.ForumCategory{}).Where("tenant_id = ?", actor.TenantID).
		Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)

	category := models.ForumCategory{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		Name:        name,
		Description: description,
		Icon:        icon,
		OrderIndex:  maxOrder + 1,
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create forum category: %w", err)
	}
	return &category, nil
}

// ListThreads returns one page of a category's threads, pinned first then
// most recently active, each with its reply count.
func (s *ForumService) ListThreads(categoryID string, page, limit int) ([]models.ForumThread, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var category models.ForumCategory
	if err := s.db.First(&category, "id = ?", categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, fmt.Errorf("%w: forum category %s", ErrNotFound, categoryID)
		}
		return nil, 0, err
	}

	query := s.db.Model(&models.ForumThread{}).Where("category_id = ?", categoryID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count threads: %w", err)
	}

	var threads []models.ForumThread
	if err := query.Preload("Author").
		Order("is_pinned DESC, updated_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&threads).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch threads: %w", err)
	}

	s.fillPostCounts(threads)
	return threads, total, nil
}

// GetThread loads one thread and bumps its view counter
func (s *ForumService) GetThread(threadID string) (*models.ForumThread, error) {
	var thread models.ForumThread
	if err := s.db.Preload("Author").First(&thread, "id = ?", threadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
		}
		return nil, err
	}

	if err := s.db.Model(&thread).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err == nil {
		thread.ViewCount++
	}

	threads := []models.ForumThread{thread}
	s.fillPostCounts(threads)
	return &threads[0], nil
}

// CreateThread starts a discussion. Verified residents only.
func (s *ForumService) CreateThread(author *models.User, categoryID, title, content string) (*models.ForumThread, error) {
	if !author.IsVerifiedResident() {
		return nil, fmt.Errorf("%w: only verified residents can post", ErrForbidden)
	}
	if len(title) < 5 {
		return nil, fmt.Errorf("%w: title must be at least 5 characters", ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	var category models.ForumCategory
	if err := s.db.First(&category, "id = ?", categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: forum category %s", ErrNotFound, categoryID)
		}
		return nil, err
	}
	if category.TenantID != author.TenantID {
		return nil, fmt.Errorf("%w: forum category %s", ErrNotFound, categoryID)
	}

	thread := models.ForumThread{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		AuthorID:   author.ID,
		Title:      title,
		Content:    content,
	}
	if err := s.db.Create(&thread).Error; err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	s.producer.Publish(context.Background(), events.ActivityEvent{
		Type:      events.ActivityThreadCreated,
		TenantID:  author.TenantID,
		UserID:    author.ID,
		SubjectID: thread.ID,
	})

	return &thread, nil
}

// SetPinned pins or unpins a thread. Moderators and admins only.
func (s *ForumService) SetPinned(actor *models.User, threadID string, pinned bool) error {
	if !actor.IsModerator() {
		return fmt.Errorf("%w: moderator access required", ErrForbidden)
	}

	result := s.db.Model(&models.ForumThread{}).Where("id = ?", threadID).Update("is_pinned", pinned)
	if result.Error != nil {
		return fmt.Errorf("failed to pin thread: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	return nil
}

// SetLocked locks or unlocks a thread. Moderators and admins only.
func (s *ForumService) SetLocked(actor *models.User, threadID string, locked bool) error {
	if !actor.IsModerator() {
		return fmt.Errorf("%w: moderator access required", ErrForbidden)
	}

	result := s.db.Model(&models.ForumThread{}).Where("id = ?", threadID).Update("is_locked", locked)
	if result.Error != nil {
		return fmt.Errorf("failed to lock thread: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	return nil
}

// ListPosts returns one page of a thread's replies, oldest first
func (s *ForumService) ListPosts(threadID string, page, limit int) ([]models.ForumPost, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.db.Model(&models.ForumPost{}).Where("thread_id = ?", threadID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []models.ForumPost
	if err := query.Preload("Author").
		Order("created_at ASC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch posts: %w", err)
	}

	return posts, total, nil
}

// CreatePost replies in a thread. Locked threads refuse new replies.
func (s *ForumService) CreatePost(author *models.User, threadID, content string) (*models.ForumPost, error) {
	if !author.IsVerifiedResident() {
		return nil, fmt.Errorf("%w: only verified residents can post", ErrForbidden)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	var thread models.ForumThread
	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
		}
		return nil, err
	}
	if thread.IsLocked {
		return nil, fmt.Errorf("%w: thread is locked", ErrValidation)
	}

	post := models.ForumPost{
		ID:       uuid.NewString(),
		ThreadID: threadID,
		AuthorID: author.ID,
		Content:  content,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		// Bump the thread so it sorts to the top of its category
		return tx.Model(&thread).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.producer.Publish(context.Background(), events.ActivityEvent{
		Type:      events.ActivityPostCreated,
		TenantID:  author.TenantID,
		UserID:    author.ID,
		SubjectID: post.ID,
	})

	return &post, nil
}

// DeletePost removes a reply. Author or moderator only.
func (s *ForumService) DeletePost(actor *models.User, postID string) error {
	var post models.ForumPost
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return err
	}

	if post.AuthorID != actor.ID && !actor.IsModerator() {
		return fmt.Errorf("%w: cannot delete another user's post", ErrForbidden)
	}

	return s.db.Delete(&post).Error
}

// DeleteThread removes a thread and its replies. Author or moderator only.
func (s *ForumService) DeleteThread(actor *models.User, threadID string) error {
	var thread models.ForumThread
	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
		}
		return err
	}

	if thread.AuthorID != actor.ID && !actor.IsModerator() {
		return fmt.Errorf("%w: cannot delete another user's thread", ErrForbidden)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.ForumPost{}).Error; err != nil {
			return err
		}
		return tx.Delete(&thread).Error
	})
}

func (s *ForumService) fillPostCounts(threads []models.ForumThread) {
	if len(threads) == 0 {
		return
	}
	ids := make([]string, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}

	type row struct {
		ThreadID string
		Count    int
	}
	var rows []row
	if err := s.db.Model(&models.ForumPost{}).
		Select("thread_id, COUNT(*) as count").
		Where("thread_id IN ?", ids).
		Group("thread_id").Scan(&rows).Error; err != nil {
		return
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.ThreadID] = r.Count
	}
	for i := range threads {
		threads[i].PostCount = counts[threads[i].ID]
	}
}
