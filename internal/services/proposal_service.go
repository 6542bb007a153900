package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prato-rinaldo/internal/cache"
	"prato-rinaldo/internal/events"
	"prato-rinaldo/internal/models"
)

type ProposalService struct {
	db        *gorm.DB
	producer  *events.Producer
	feedCache *cache.FeedCache
}

func NewProposalService(db *gorm.DB, producer *events.Producer, feedCache *cache.FeedCache) *ProposalService {
	return &ProposalService{db: db, producer: producer, feedCache: feedCache}
}

// ProposalListParams filters and pages the proposal list
type ProposalListParams struct {
	CategoryID string
	Status     string
	SortBy     string // "score" (default) or "created_at"
	Page       int
	Limit      int
}

// statusRank orders the one-directional lifecycle. Declined shares the top
// rank with completed: both are terminal, and declining is allowed from any
// earlier stage.
var statusRank = map[models.ProposalStatus]int{
	models.ProposalStatusProposed:    0,
	models.ProposalStatusUnderReview: 1,
	models.ProposalStatusApproved:    2,
	models.ProposalStatusInProgress:  3,
	models.ProposalStatusCompleted:   4,
	models.ProposalStatusDeclined:    4,
}

// List returns one page of proposals with authors and categories preloaded.
// Default sort is score (upvotes minus downvotes) with created_at as the
// tie-breaker so pagination stays stable; unknown sort values fall back to it.
func (s *ProposalService) List(tenantID string, params ProposalListParams) ([]models.Proposal, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	offset := (params.Page - 1) * params.Limit

	query := s.db.Model(&models.Proposal{}).Where("tenant_id = ?", tenantID)

	if params.CategoryID != "" {
		query = query.Where("category_id = ?", params.CategoryID)
	}
	if params.Status != "" {
		if _, ok := statusRank[models.ProposalStatus(params.Status)]; ok {
			query = query.Where("status = ?", params.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	switch params.SortBy {
	case "created_at":
		query = query.Order("created_at DESC")
	default:
		query = query.Order("score DESC, created_at DESC")
	}

	var proposals []models.Proposal
	if err := query.Preload("Author").Preload("Category").
		Limit(params.Limit).Offset(offset).Find(&proposals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch proposals: %w", err)
	}

	return proposals, total, nil
}

// GetByID loads a proposal with full details and bumps its view counter
func (s *ProposalService) GetByID(proposalID string) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.Preload("Author").Preload("Category").
		First(&proposal, "id = ?", proposalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
		}
		return nil, err
	}

	// Atomic increment, no read-modify-write
	if err := s.db.Model(&models.Proposal{}).Where("id = ?", proposalID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		log.Printf("Failed to bump view count for proposal %s: %v", proposalID, err)
	}
	proposal.ViewCount++

	return &proposal, nil
}

// Create submits a new proposal. Verified residents only.
func (s *ProposalService) Create(author *models.User, categoryID, title, description string) (*models.Proposal, error) {
	if !author.IsVerifiedResident() {
		return nil, fmt.Errorf("%w: only verified residents can create proposals", ErrForbidden)
	}
	if len(title) < 10 {
		return nil, fmt.Errorf("%w: title must be at least 10 characters", ErrValidation)
	}
	if len(description) < 50 {
		return nil, fmt.Errorf("%w: description must be at least 50 characters", ErrValidation)
	}

	var category models.ProposalCategory
	if err := s.db.First(&category, "id = ?", categoryID).Error; err != nil {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
	}

	proposal := models.Proposal{
		ID:          uuid.NewString(),
		TenantID:    author.TenantID,
		CategoryID:  categoryID,
		AuthorID:    author.ID,
		Title:       title,
		Description: description,
		Status:      models.ProposalStatusProposed,
	}

	if err := s.db.Create(&proposal).Error; err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.producer.Publish(context.Background(), events.ActivityEvent{
		Type:      events.ActivityProposalCreated,
		TenantID:  author.TenantID,
		UserID:    author.ID,
		SubjectID: proposal.ID,
	})
	if err := s.feedCache.Invalidate(context.Background(), author.TenantID); err != nil {
		log.Printf("Failed to invalidate feed cache: %v", err)
	}

	return &proposal, nil
}

// Update edits title/description. Author only, and only while the proposal
// is still in proposed state.
func (s *ProposalService) Update(proposalID string, actor *models.User, title, description string) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.First(&proposal, "id = ?", proposalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
		}
		return nil, err
	}

	if proposal.AuthorID != actor.ID {
		return nil, fmt.Errorf("%w: only the author can edit a proposal", ErrForbidden)
	}
	if proposal.Status != models.ProposalStatusProposed {
		return nil, fmt.Errorf("%w: proposals can only be edited while still proposed", ErrForbidden)
	}
	if len(title) < 10 {
		return nil, fmt.Errorf("%w: title must be at least 10 characters", ErrValidation)
	}
	if len(description) < 50 {
		return nil, fmt.Errorf("%w: description must be at least 50 characters", ErrValidation)
	}

	proposal.Title = title
	proposal.Description = description
	if err := s.db.Save(&proposal).Error; err != nil {
		return nil, fmt.Errorf("failed to update proposal: %w", err)
	}

	return &proposal, nil
}

// Delete removes a proposal and its votes/comments. Author or admin.
func (s *ProposalService) Delete(proposalID string, actor *models.User) error {
	var proposal models.Proposal
	if err := s.db.First(&proposal, "id = ?", proposalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
		}
		return err
	}

	if proposal.AuthorID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: only the author or an admin can delete a proposal", ErrForbidden)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.ProposalVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.ProposalComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.ProposalStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&proposal).Error
	})
}

// UpdateStatus moves a proposal forward along its lifecycle. Admins and
// board members only; transitions never go backwards, and each change is
// appended to the status history.
func (s *ProposalService) UpdateStatus(proposalID string, actor *models.User, newStatus models.ProposalStatus, reason string, plannedDate, completedDate *time.Time) (*models.Proposal, error) {
	if !actor.IsAdmin() && !actor.IsModerator() && !actor.IsInBoard {
		return nil, fmt.Errorf("%w: only admins and board members can change proposal status", ErrForbidden)
	}

	newRank, ok := statusRank[newStatus]
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}
	if newStatus == models.ProposalStatusDeclined && reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to decline a proposal", ErrValidation)
	}

	var proposal models.Proposal
	if err := s.db.First(&proposal, "id = ?", proposalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
		}
		return nil, err
	}

	if proposal.Status == models.ProposalStatusCompleted || proposal.Status == models.ProposalStatusDeclined {
		return nil, fmt.Errorf("%w: proposal is already in a terminal state", ErrValidation)
	}
	if newRank <= statusRank[proposal.Status] {
		return nil, fmt.Errorf("%w: cannot move status backwards from %s to %s", ErrValidation, proposal.Status, newStatus)
	}

	proposal.Status = newStatus
	switch newStatus {
	case models.ProposalStatusApproved:
		proposal.PlannedDate = plannedDate
	case models.ProposalStatusCompleted:
		proposal.CompletedDate = completedDate
	case models.ProposalStatusDeclined:
		if reason != "" {
			proposal.DeclineReason = &reason
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&proposal).Error; err != nil {
			return err
		}
		history := models.ProposalStatusHistory{
			ID:         uuid.NewString(),
			ProposalID: proposal.ID,
			NewStatus:  newStatus,
			ChangedBy:  actor.ID,
		}
		if reason != "" {
			history.Reason = &reason
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update proposal status: %w", err)
	}

	return &proposal, nil
}

// GetStatusHistory returns every recorded transition, oldest first
func (s *ProposalService) GetStatusHistory(proposalID string) ([]models.ProposalStatusHistory, error) {
	var history []models.ProposalStatusHistory
	if err := s.db.Where("proposal_id = ?", proposalID).
		Order("created_at ASC").Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// Vote casts, flips or removes a vote. Repeating the same direction toggles
// the vote off; the opposite direction flips it. The vote row and the
// denormalized counters move in one transaction so concurrent readers never
// see a partial count.
func (s *ProposalService) Vote(proposalID string, voter *models.User, direction models.VoteDirection) (*models.Proposal, *models.VoteDirection, error) {
	if !voter.IsVerifiedResident() {
		return nil, nil, fmt.Errorf("%w: only verified residents can vote", ErrForbidden)
	}
	if direction != models.VoteUp && direction != models.VoteDown {
		return nil, nil, fmt.Errorf("%w: vote direction must be up or down", ErrValidation)
	}

	var current *models.VoteDirection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var proposal models.Proposal
		if err := tx.First(&proposal, "id = ?", proposalID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
			}
			return err
		}

		var existing models.ProposalVote
		err := tx.Where("proposal_id = ? AND user_id = ?", proposalID, voter.ID).First(&existing).Error

		var upDelta, downDelta int
		switch {
		case err == gorm.ErrRecordNotFound:
			// New vote
			vote := models.ProposalVote{
				ID:         uuid.NewString(),
				ProposalID: proposalID,
				UserID:     voter.ID,
				Direction:  direction,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if direction == models.VoteUp {
				upDelta = 1
			} else {
				downDelta = 1
			}
			current = &direction

		case err != nil:
			return err

		case existing.Direction == direction:
			// Same direction again removes the vote
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if direction == models.VoteUp {
				upDelta = -1
			} else {
				downDelta = -1
			}
			current = nil

		default:
			// Flip: decrement the old direction, increment the new one
			if err := tx.Model(&existing).Update("direction", direction).Error; err != nil {
				return err
			}
			if direction == models.VoteUp {
				upDelta, downDelta = 1, -1
			} else {
				upDelta, downDelta = -1, 1
			}
			current = &direction
		}

		return tx.Model(&models.Proposal{}).Where("id = ?", proposalID).
			UpdateColumns(map[string]interface{}{
				"upvotes":   gorm.Expr("upvotes + ?", upDelta),
				"downvotes": gorm.Expr("downvotes + ?", downDelta),
				"score":     gorm.Expr("score + ?", upDelta-downDelta),
			}).Error
	})
	if err != nil {
		return nil, nil, err
	}

	s.producer.Publish(context.Background(), events.ActivityEvent{
		Type:      events.ActivityVoteCast,
		TenantID:  voter.TenantID,
		UserID:    voter.ID,
		SubjectID: proposalID,
	})

	var proposal models.Proposal
	if err := s.db.First(&proposal, "id = ?", proposalID).Error; err != nil {
		return nil, nil, err
	}
	return &proposal, current, nil
}

// GetUserVote returns the caller's vote on a proposal, nil when absent
func (s *ProposalService) GetUserVote(proposalID, userID string) (*models.VoteDirection, error) {
	var vote models.ProposalVote
	err := s.db.Where("proposal_id = ? AND user_id = ?", proposalID, userID).First(&vote).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote.Direction, nil
}

// Roadmap groups approved, in-progress and completed proposals, best first
type Roadmap struct {
	Approved   []models.Proposal `json:"approved"`
	InProgress []models.Proposal `json:"in_progress"`
	Completed  []models.Proposal `json:"completed"`
}

// GetRoadmap builds the public roadmap view
func (s *ProposalService) GetRoadmap(tenantID string) (*Roadmap, error) {
	var proposals []models.Proposal
	if err := s.db.Preload("Author").Preload("Category").
		Where("tenant_id = ? AND status IN ?", tenantID, []models.ProposalStatus{
			models.ProposalStatusApproved,
			models.ProposalStatusInProgress,
			models.ProposalStatusCompleted,
		}).
		Order("score DESC, created_at DESC").Find(&proposals).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch roadmap: %w", err)
	}

	roadmap := &Roadmap{}
	for _, p := range proposals {
		switch p.Status {
		case models.ProposalStatusApproved:
			roadmap.Approved = append(roadmap.Approved, p)
		case models.ProposalStatusInProgress:
			roadmap.InProgress = append(roadmap.InProgress, p)
		case models.ProposalStatusCompleted:
			roadmap.Completed = append(roadmap.Completed, p)
		}
	}
	return roadmap, nil
}

// ListComments returns one page of comments, oldest first
func (s *ProposalService) ListComments(proposalID string, page, limit int) ([]models.ProposalComment, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.db.Model(&models.ProposalComment{}).Where("proposal_id = ?", proposalID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.ProposalComment
	if err := query.Preload("User").Order("created_at ASC").
		Limit(limit).Offset((page - 1) * limit).Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// CreateComment adds a comment; any authenticated user may discuss
func (s *ProposalService) CreateComment(proposalID string, author *models.User, content string) (*models.ProposalComment, error) {
	if len(content) < 10 {
		return nil, fmt.Errorf("%w: comment must be at least 10 characters", ErrValidation)
	}

	var proposal models.Proposal
	if err := s.db.First(&proposal, "id = ?", proposalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
		}
		return nil, err
	}

	comment := models.ProposalComment{
		ID:         uuid.NewString(),
		TenantID:   proposal.TenantID,
		ProposalID: proposalID,
		UserID:     author.ID,
		Content:    content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.producer.Publish(context.Background(), events.ActivityEvent{
		Type:      events.ActivityCommentCreated,
		TenantID:  proposal.TenantID,
		UserID:    author.ID,
		SubjectID: comment.ID,
	})

	return &comment, nil
}

// DeleteComment removes a comment. Owner or moderator.
func (s *ProposalService) DeleteComment(commentID string, actor *models.User) error {
	var comment models.ProposalComment
	if err := s.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
		}
		return err
	}

	if comment.UserID != actor.ID && !actor.IsModerator() {
		return fmt.Errorf("%w: only the author or a moderator can delete a comment", ErrForbidden)
	}

	return s.db.Delete(&comment).Error
}

// ListCategories returns the tenant's proposal categories in display order
func (s *ProposalService) ListCategories(tenantID string) ([]models.ProposalCategory, error) {
	var categories []models.ProposalCategory
	if err := s.db.Where("tenant_id = ?", tenantID).
		Order("order_index ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory adds a proposal category. Admin only.
func (s *ProposalService) CreateCategory(actor *models.User, name, description, icon, color string) (*models.ProposalCategory, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can create categories", ErrForbidden)
	}
	if len(name) < 3 {
		return nil, fmt.Errorf("%w: category name must be at least 3 characters", ErrValidation)
	}

	var maxOrder int
	s.db.Model(&models.ProposalCategory{}).Where("tenant_id = ?", actor.TenantID).
		Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)

	category := models.ProposalCategory{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		Name:        name,
		Description: description,
		Icon:        icon,
		Color:       color,
		OrderIndex:  maxOrder + 1,
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// DeleteCategory removes an empty category. Admin only.
func (s *ProposalService) DeleteCategory(categoryID string, actor *models.User) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete categories", ErrForbidden)
	}

	var count int64
	if err := s.db.Model(&models.Proposal{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: category still contains proposals", ErrValidation)
	}

	result := s.db.Delete(&models.ProposalCategory{}, "id = ?", categoryID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
	}
	return nil
}
