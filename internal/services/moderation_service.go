package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prato-rinaldo/internal/mail"
	"prato-rinaldo/internal/models"
)

type ModerationService struct {
	db     *gorm.DB
	mailer *mail.Mailer
}

func NewModerationService(db *gorm.DB, mailer *mail.Mailer) *ModerationService {
	return &ModerationService{db: db, mailer: mailer}
}

// ModerationFilters narrows the queue listing
type ModerationFilters struct {
	Status   string
	ItemType string
}

// ListQueue returns one page of queue items, newest first
func (s *ModerationService) ListQueue(actor *models.User, page, limit int, filters ModerationFilters) ([]models.ModerationItem, int64, error) {
	if !actor.IsModerator() {
		return nil, 0, fmt.Errorf("%w: moderator access required", ErrForbidden)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.ModerationItem{}).Where("tenant_id = ?", actor.TenantID)

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.ItemType != "" {
		query = query.Where("item_type = ?", filters.ItemType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count queue: %w", err)
	}

	var items []models.ModerationItem
	if err := query.Preload("Submitter").Preload("Assignee").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch queue: %w", err)
	}

	return items, total, nil
}

// GetItem loads a queue entry together with the content row it points at
func (s *ModerationService) GetItem(actor *models.User, itemID string) (*models.ModerationItem, interface{}, error) {
	if !actor.IsModerator() {
		return nil, nil, fmt.Errorf("%w: moderator access required", ErrForbidden)
	}

	var item models.ModerationItem
	if err := s.db.Preload("Submitter").Preload("Assignee").
		First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: moderation item %s", ErrNotFound, itemID)
		}
		return nil, nil, err
	}

	var content interface{}
	switch item.ItemType {
	case models.ModerationItemMarketplace:
		var row models.MarketplaceItem
		if err := s.db.First(&row, "id = ?", item.ItemID).Error; err == nil {
			content = row
		}
	case models.ModerationItemProposal:
		var row models.Proposal
		if err := s.db.First(&row, "id = ?", item.ItemID).Error; err == nil {
			content = row
		}
	case models.ModerationItemEvent:
		var row models.Event
		if err := s.db.First(&row, "id = ?", item.ItemID).Error; err == nil {
			content = row
		}
	case models.ModerationItemForumThread:
		var row models.ForumThread
		if err := s.db.First(&row, "id = ?", item.ItemID).Error; err == nil {
			content = row
		}
	}

	return &item, content, nil
}

// Approve resolves a pending item and makes the underlying content visible.
// Terminal: an already-moderated item cannot be approved again.
func (s *ModerationService) Approve(actor *models.User, itemID, note string) error {
	return s.moderate(actor, itemID, models.ModerationApproved, note)
}

// Reject resolves a pending item and keeps the content hidden. A reason is
// required because it is mailed back to the creator.
func (s *ModerationService) Reject(actor *models.User, itemID, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: a rejection reason is required", ErrValidation)
	}
	return s.moderate(actor, itemID, models.ModerationRejected, reason)
}

func (s *ModerationService) moderate(actor *models.User, itemID string, decision models.ModerationStatus, note string) error {
	if !actor.IsModerator() {
		return fmt.Errorf("%w: moderator access required", ErrForbidden)
	}

	var item models.ModerationItem
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: moderation item %s", ErrNotFound, itemID)
		}
		return err
	}

	if item.Status != models.ModerationPending {
		return fmt.Errorf("%w: item already moderated as %s", ErrValidation, item.Status)
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":       decision,
			"moderated_by": actor.ID,
			"moderated_at": now,
		}
		if note != "" {
			updates["note"] = note
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}

		if err := s.applyDecision(tx, &item, decision, actor.ID, now); err != nil {
			return err
		}

		logRow := models.ModerationActionLog{
			ID:          uuid.NewString(),
			QueueItemID: item.ID,
			TenantID:    item.TenantID,
			ItemType:    item.ItemType,
			ItemID:      item.ItemID,
			PerformedBy: actor.ID,
			Action:      string(decision),
			Note:        note,
		}
		return tx.Create(&logRow).Error
	})
	if err != nil {
		return fmt.Errorf("failed to moderate item: %w", err)
	}

	// Notify the creator outside the transaction; a mail failure must not
	// undo the decision.
	go s.notifyCreator(&item, decision, note)

	return nil
}

// applyDecision flips the visibility status on the underlying content row.
// This is the queue's only externally observable effect.
func (s *ModerationService) applyDecision(tx *gorm.DB, item *models.ModerationItem, decision models.ModerationStatus, actorID string, now time.Time) error {
	approved := decision == models.ModerationApproved

	switch item.ItemType {
	case models.ModerationItemMarketplace:
		if approved {
			return tx.Model(&models.MarketplaceItem{}).Where("id = ?", item.ItemID).
				Updates(map[string]interface{}{
					"status":      models.ListingStatusApproved,
					"approved_by": actorID,
					"approved_at": now,
				}).Error
		}
		return tx.Model(&models.MarketplaceItem{}).Where("id = ?", item.ItemID).
			Update("status", models.ListingStatusRejected).Error

	case models.ModerationItemEvent:
		if approved {
			return tx.Model(&models.Event{}).Where("id = ?", item.ItemID).
				Update("status", models.EventStatusPublished).Error
		}
		return tx.Model(&models.Event{}).Where("id = ?", item.ItemID).
			Update("status", models.EventStatusCancelled).Error

	case models.ModerationItemProposal:
		// Approving a reported proposal leaves it alone; rejecting declines it
		if !approved {
			return tx.Model(&models.Proposal{}).Where("id = ?", item.ItemID).
				Update("status", models.ProposalStatusDeclined).Error
		}
		return nil

	case models.ModerationItemForumThread:
		// Rejected threads get locked rather than deleted
		if !approved {
			return tx.Model(&models.ForumThread{}).Where("id = ?", item.ItemID).
				Update("is_locked", true).Error
		}
		return nil
	}

	return nil
}

// notifyCreator mails the content creator about the decision
func (s *ModerationService) notifyCreator(item *models.ModerationItem, decision models.ModerationStatus, note string) {
	var creator models.User
	if err := s.db.First(&creator, "id = ?", item.ItemCreatorID).Error; err != nil {
		log.Printf("Moderation: creator %s not found for notification: %v", item.ItemCreatorID, err)
		return
	}

	title := s.contentTitle(item)

	var err error
	if decision == models.ModerationApproved {
		err = s.mailer.Send(creator.Email, "Contenuto approvato", mail.ApprovalBody(creator.Name, title))
	} else {
		err = s.mailer.Send(creator.Email, "Contenuto non approvato", mail.RejectionBody(creator.Name, title, note))
	}
	if err != nil {
		log.Printf("Moderation: failed to send %s notification to %s: %v", decision, creator.Email, err)
	}
}

func (s *ModerationService) contentTitle(item *models.ModerationItem) string {
	switch item.ItemType {
	case models.ModerationItemMarketplace:
		var row models.MarketplaceItem
		if err := s.db.Select("title").First(&row, "id = ?", item.ItemID).Error; err == nil {
			return row.Title
		}
	case models.ModerationItemProposal:
		var row models.Proposal
		if err := s.db.Select("title").First(&row, "id = ?", item.ItemID).Error; err == nil {
			return row.Title
		}
	case models.ModerationItemEvent:
		var row models.Event
		if err := s.db.Select("title").First(&row, "id = ?", item.ItemID).Error; err == nil {
			return row.Title
		}
	case models.ModerationItemForumThread:
		var row models.ForumThread
		if err := s.db.Select("title").First(&row, "id = ?", item.ItemID).Error; err == nil {
			return row.Title
		}
	}
	return "il tuo contenuto"
}

// Assign hands a queue item to a moderator; nil assignee clears it
func (s *ModerationService) Assign(actor *models.User, itemID string, assigneeID *string) error {
	if !actor.IsModerator() {
		return fmt.Errorf("%w: moderator access required", ErrForbidden)
	}

	var item models.ModerationItem
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: moderation item %s", ErrNotFound, itemID)
		}
		return err
	}

	if err := s.db.Model(&item).Update("assigned_to", assigneeID).Error; err != nil {
		return fmt.Errorf("failed to assign item: %w", err)
	}

	action, note := "assigned", ""
	if assigneeID == nil {
		action, note = "unassigned", "assignment cleared"
	} else {
		note = "assigned to " + *assigneeID
	}
	logRow := models.ModerationActionLog{
		ID:          uuid.NewString(),
		QueueItemID: item.ID,
		TenantID:    item.TenantID,
		ItemType:    item.ItemType,
		ItemID:      item.ItemID,
		PerformedBy: actor.ID,
		Action:      action,
		Note:        note,
	}
	if err := s.db.Create(&logRow).Error; err != nil {
		log.Printf("Moderation: failed to log assign action: %v", err)
	}
	return nil
}

// MyItems returns the actor's assigned pending items, oldest first
func (s *ModerationService) MyItems(actor *models.User) ([]models.ModerationItem, error) {
	if !actor.IsModerator() {
		return nil, fmt.Errorf("%w: moderator access required", ErrForbidden)
	}

	var items []models.ModerationItem
	if err := s.db.Preload("Submitter").
		Where("assigned_to = ? AND status = ?", actor.ID, models.ModerationPending).
		Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Report files content into the queue. Deduplicates on an open entry for
// the same content so repeated reports do not pile up.
func (s *ModerationService) Report(reporter *models.User, itemType models.ModerationItemType, itemID string) (*models.ModerationItem, error) {
	creatorID, err := s.contentCreator(itemType, itemID)
	if err != nil {
		return nil, err
	}

	var existing models.ModerationItem
	err = s.db.Where("item_type = ? AND item_id = ? AND status = ?",
		itemType, itemID, models.ModerationPending).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: content already reported", ErrValidation)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	item := models.ModerationItem{
		ID:            uuid.NewString(),
		TenantID:      reporter.TenantID,
		ItemType:      itemType,
		ItemID:        itemID,
		ItemCreatorID: creatorID,
		Status:        models.ModerationPending,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to report content: %w", err)
	}
	return &item, nil
}

// Enqueue files freshly created content for review (no dedup needed, the
// row was just created pending)
func (s *ModerationService) Enqueue(tx *gorm.DB, tenantID string, itemType models.ModerationItemType, itemID, creatorID string) error {
	item := models.ModerationItem{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		ItemType:      itemType,
		ItemID:        itemID,
		ItemCreatorID: creatorID,
		Status:        models.ModerationPending,
	}
	return tx.Create(&item).Error
}

// contentCreator resolves the author of the reported row
func (s *ModerationService) contentCreator(itemType models.ModerationItemType, itemID string) (string, error) {
	notFound := fmt.Errorf("%w: %s %s", ErrNotFound, itemType, itemID)

	switch itemType {
	case models.ModerationItemMarketplace:
		var row models.MarketplaceItem
		if err := s.db.Select("seller_id").First(&row, "id = ?", itemID).Error; err != nil {
			return "", notFound
		}
		return row.SellerID, nil
	case models.ModerationItemProposal:
		var row models.Proposal
		if err := s.db.Select("author_id").First(&row, "id = ?", itemID).Error; err != nil {
			return "", notFound
		}
		return row.AuthorID, nil
	case models.ModerationItemEvent:
		var row models.Event
		if err := s.db.Select("organizer_id").First(&row, "id = ?", itemID).Error; err != nil {
			return "", notFound
		}
		return row.OrganizerID, nil
	case models.ModerationItemForumThread:
		var row models.ForumThread
		if err := s.db.Select("author_id").First(&row, "id = ?", itemID).Error; err != nil {
			return "", notFound
		}
		return row.AuthorID, nil
	}
	return "", fmt.Errorf("%w: unknown item type %q", ErrValidation, itemType)
}

// GetActionLog returns the audit trail for one queue item, newest first
func (s *ModerationService) GetActionLog(actor *models.User, itemID string) ([]models.ModerationActionLog, error) {
	if !actor.IsModerator() {
		return nil, fmt.Errorf("%w: moderator access required", ErrForbidden)
	}

	var logs []models.ModerationActionLog
	if err := s.db.Where("queue_item_id = ?", itemID).
		Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
