package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"prato-rinaldo/internal/cache"
	"prato-rinaldo/internal/events"
	"prato-rinaldo/internal/models"
)

var listingConditions = map[string]bool{
	"new": true, "like_new": true, "good": true, "fair": true, "poor": true,
}

type MarketplaceService struct {
	db         *gorm.DB
	moderation *ModerationService
	producer   *events.Producer
	feedCache  *cache.FeedCache
}

func NewMarketplaceService(db *gorm.DB, moderation *ModerationService, producer *events.Producer, feedCache *cache.FeedCache) *MarketplaceService {
	return &MarketplaceService{db: db, moderation: moderation, producer: producer, feedCache: feedCache}
}

// ListingParams filters the public listing
type ListingParams struct {
	Condition string
	MaxPrice  *decimal.Decimal
	Page      int
	Limit     int
}

// List returns approved unsold listings, newest first. Private listings
// are hidden from unverified viewers.
func (s *MarketplaceService) List(tenantID string, viewer *models.User, params ListingParams) ([]models.MarketplaceItem, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	query := s.db.Model(&models.MarketplaceItem{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.ListingStatusApproved)

	if viewer == nil || !viewer.IsVerifiedResident() {
		query = query.Where("is_private = ?", false)
	}
	if params.Condition != "" {
		query = query.Where("condition = ?", params.Condition)
	}
	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var items []models.MarketplaceItem
	if err := query.Preload("Seller").Order("created_at DESC").
		Limit(params.Limit).Offset((params.Page - 1) * params.Limit).
		Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch listings: %w", err)
	}

	return items, total, nil
}

// GetByID loads one listing and bumps its view counter. Pending and
// rejected listings are only visible to the seller and moderators.
func (s *MarketplaceService) GetByID(itemID string, viewer *models.User) (*models.MarketplaceItem, error) {
	var item models.MarketplaceItem
	if err := s.db.Preload("Seller").First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, itemID)
		}
		return nil, err
	}

	if item.Status != models.ListingStatusApproved && item.Status != models.ListingStatusSold {
		if viewer == nil || (viewer.ID != item.SellerID && !viewer.IsModerator()) {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, itemID)
		}
	}
	if item.IsPrivate && (viewer == nil || !viewer.IsVerifiedResident()) {
		return nil, fmt.Errorf("%w: residents only", ErrForbidden)
	}

	if viewer == nil || viewer.ID != item.SellerID {
		if err := s.db.Model(&item).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err == nil {
			item.ViewCount++
		}
	}

	return &item, nil
}

// CreateListingInput carries the fields of a new listing
type CreateListingInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Condition   string
	Images      []string
	IsPrivate   bool
}

// Create stores a new listing in pending status and files it for
// moderation. It does not appear publicly until approved.
func (s *MarketplaceService) Create(seller *models.User, input CreateListingInput) (*models.MarketplaceItem, error) {
	if !seller.IsVerifiedResident() {
		return nil, fmt.Errorf("%w: only verified residents can sell", ErrForbidden)
	}
	if len(input.Title) < 5 {
		return nil, fmt.Errorf("%w: title must be at least 5 characters", ErrValidation)
	}
	if input.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if input.Condition != "" && !listingConditions[input.Condition] {
		return nil, fmt.Errorf("%w: invalid condition %q", ErrValidation, input.Condition)
	}
	if len(input.Images) > 10 {
		return nil, fmt.Errorf("%w: at most 10 images per listing", ErrValidation)
	}

	item := models.MarketplaceItem{
		ID:          uuid.NewString(),
		TenantID:    seller.TenantID,
		SellerID:    seller.ID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Condition:   input.Condition,
		Images:      pq.StringArray(input.Images),
		IsPrivate:   input.IsPrivate,
		Status:      models.ListingStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return s.moderation.Enqueue(tx, seller.TenantID, models.ModerationItemMarketplace, item.ID, seller.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.producer.Publish(context.Background(), events.ActivityEvent{
		Type:      events.ActivityListingCreated,
		TenantID:  seller.TenantID,
		UserID:    seller.ID,
		SubjectID: item.ID,
	})
	s.feedCache.Invalidate(context.Background(), seller.TenantID)

	return &item, nil
}

// Update edits the seller's own listing. Editing an approved listing
// sends it back through moderation.
func (s *MarketplaceService) Update(actor *models.User, itemID string, input CreateListingInput) (*models.MarketplaceItem, error) {
	var item models.MarketplaceItem
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, itemID)
		}
		return nil, err
	}

	if item.SellerID != actor.ID {
		return nil, fmt.Errorf("%w: only the seller can edit this listing", ErrForbidden)
	}
	if item.Status == models.ListingStatusSold {
		return nil, fmt.Errorf("%w: sold listings cannot be edited", ErrValidation)
	}
	if len(input.Title) < 5 {
		return nil, fmt.Errorf("%w: title must be at least 5 characters", ErrValidation)
	}
	if input.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	backToReview := item.Status == models.ListingStatusApproved

	err := s.db.Transaction(func(tx *gorm.DB) error {
		item.Title = input.Title
		item.Description = input.Description
		item.Price = input.Price
		item.Condition = input.Condition
		item.Images = pq.StringArray(input.Images)
		item.IsPrivate = input.IsPrivate
		if backToReview {
			item.Status = models.ListingStatusPending
			item.ApprovedBy = nil
			item.ApprovedAt = nil
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		if backToReview {
			return s.moderation.Enqueue(tx, item.TenantID, models.ModerationItemMarketplace, item.ID, item.SellerID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	if backToReview {
		s.feedCache.Invalidate(context.Background(), item.TenantID)
	}
	return &item, nil
}

// MarkSold flags the listing as sold and removes it from public listings
func (s *MarketplaceService) MarkSold(actor *models.User, itemID string) (*models.MarketplaceItem, error) {
	var item models.MarketplaceItem
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, itemID)
		}
		return nil, err
	}

	if item.SellerID != actor.ID {
		return nil, fmt.Errorf("%w: only the seller can mark this sold", ErrForbidden)
	}
	if item.Status != models.ListingStatusApproved {
		return nil, fmt.Errorf("%w: only approved listings can be sold", ErrValidation)
	}

	now := time.Now()
	if err := s.db.Model(&item).Updates(map[string]interface{}{
		"status":  models.ListingStatusSold,
		"sold_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark listing sold: %w", err)
	}
	item.Status = models.ListingStatusSold
	item.SoldAt = &now

	s.producer.Publish(context.Background(), events.ActivityEvent{
		Type:      events.ActivityListingSold,
		TenantID:  item.TenantID,
		UserID:    actor.ID,
		SubjectID: item.ID,
	})
	s.feedCache.Invalidate(context.Background(), item.TenantID)

	return &item, nil
}

// Delete removes the seller's own listing; admins can remove any
func (s *MarketplaceService) Delete(actor *models.User, itemID string) error {
	var item models.MarketplaceItem
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: listing %s", ErrNotFound, itemID)
		}
		return err
	}

	if item.SellerID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: only the seller can delete this listing", ErrForbidden)
	}

	if err := s.db.Delete(&item).Error; err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	s.feedCache.Invalidate(context.Background(), item.TenantID)
	return nil
}

// MyListings returns everything the seller has posted, any status
func (s *MarketplaceService) MyListings(sellerID string) ([]models.MarketplaceItem, error) {
	var items []models.MarketplaceItem
	if err := s.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
