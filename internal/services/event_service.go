package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prato-rinaldo/internal/cache"
	"prato-rinaldo/internal/events"
	"prato-rinaldo/internal/models"
)

type EventService struct {
	db        *gorm.DB
	producer  *events.Producer
	feedCache *cache.FeedCache
}

func NewEventService(db *gorm.DB, producer *events.Producer, feedCache *cache.FeedCache) *EventService {
	return &EventService{db: db, producer: producer, feedCache: feedCache}
}

// EventListParams filters the event listing
type EventListParams struct {
	IncludePast bool
	Page        int
	Limit       int
}

// List returns published events with attendance counts. By default only
// upcoming events are shown, soonest first; past events come newest first.
func (s *EventService) List(tenantID string, viewer *models.User, params EventListParams) ([]models.Event, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	query := s.db.Model(&models.Event{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.EventStatusPublished)

	if viewer == nil || !viewer.IsVerifiedResident() {
		query = query.Where("is_private = ?", false)
	}

	now := time.Now()
	if params.IncludePast {
		query = query.Order("start_date DESC")
	} else {
		query = query.Where("(end_date IS NOT NULL AND end_date >= ?) OR (end_date IS NULL AND start_date >= ?)", now, now).
			Order("start_date ASC")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var list []models.Event
	if err := query.Preload("Organizer").
		Limit(params.Limit).Offset((params.Page - 1) * params.Limit).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	s.fillRsvpCounts(list)
	return list, total, nil
}

// GetByID loads one event with attendance count. Drafts are only visible
// to the organizer and admins.
func (s *EventService) GetByID(eventID string, viewer *models.User) (*models.Event, error) {
	var event models.Event
	if err := s.db.Preload("Organizer").First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		return nil, err
	}

	if event.Status == models.EventStatusDraft {
		if viewer == nil || (viewer.ID != event.OrganizerID && !viewer.IsAdmin()) {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
	}
	if event.IsPrivate && (viewer == nil || !viewer.IsVerifiedResident()) {
		return nil, fmt.Errorf("%w: residents only", ErrForbidden)
	}

	wrapped := []models.Event{event}
	s.fillRsvpCounts(wrapped)
	return &wrapped[0], nil
}

// CreateEventInput carries the fields of a new event
type CreateEventInput struct {
	Title        string
	Description  string
	Location     string
	CoverImage   string
	StartDate    time.Time
	EndDate      *time.Time
	IsPrivate    bool
	MaxAttendees *int
}

// Create stores a new event as a draft owned by the organizer
func (s *EventService) Create(organizer *models.User, input CreateEventInput) (*models.Event, error) {
	if !organizer.IsVerifiedResident() {
		return nil, fmt.Errorf("%w: only verified residents can create events", ErrForbidden)
	}
	if len(input.Title) < 5 {
		return nil, fmt.Errorf("%w: title must be at least 5 characters", ErrValidation)
	}
	if input.StartDate.Before(time.Now()) {
		return nil, fmt.Errorf("%w: start date must be in the future", ErrValidation)
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: end date cannot precede start date", ErrValidation)
	}
	if input.MaxAttendees != nil && *input.MaxAttendees < 1 {
		return nil, fmt.Errorf("%w: max attendees must be positive", ErrValidation)
	}

	event := models.Event{
		ID:           uuid.NewString(),
		TenantID:     organizer.TenantID,
		OrganizerID:  organizer.ID,
		Title:        input.Title,
		Description:  input.Description,
		Location:     input.Location,
		CoverImage:   input.CoverImage,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		IsPrivate:    input.IsPrivate,
		MaxAttendees: input.MaxAttendees,
		Status:       models.EventStatusDraft,
	}

	if err := s.db.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &event, nil
}

// Update edits a draft or published event owned by the actor
func (s *EventService) Update(actor *models.User, eventID string, input CreateEventInput) (*models.Event, error) {
	var event models.Event
	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		return nil, err
	}

	if event.OrganizerID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only the organizer can edit this event", ErrForbidden)
	}
	if event.Status == models.EventStatusCancelled || event.Status == models.EventStatusCompleted {
		return nil, fmt.Errorf("%w: event is %s", ErrValidation, event.Status)
	}
	if len(input.Title) < 5 {
		return nil, fmt.Errorf("%w: title must be at least 5 characters", ErrValidation)
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: end date cannot precede start date", ErrValidation)
	}

	event.Title = input.Title
	event.Description = input.Description
	event.Location = input.Location
	event.CoverImage = input.CoverImage
	event.StartDate = input.StartDate
	event.EndDate = input.EndDate
	event.IsPrivate = input.IsPrivate
	event.MaxAttendees = input.MaxAttendees

	if err := s.db.Save(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.feedCache.Invalidate(context.Background(), event.TenantID)
	return &event, nil
}

// Publish makes a draft event visible
func (s *EventService) Publish(actor *models.User, eventID string) (*models.Event, error) {
	var event models.Event
	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		return nil, err
	}

	if event.OrganizerID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only the organizer can publish this event", ErrForbidden)
	}
	if event.Status != models.EventStatusDraft {
		return nil, fmt.Errorf("%w: only draft events can be published", ErrValidation)
	}

	if err := s.db.Model(&event).Update("status", models.EventStatusPublished).Error; err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	s.feedCache.Invalidate(context.Background(), event.TenantID)
	return &event, nil
}

// Cancel marks a published event cancelled
func (s *EventService) Cancel(actor *models.User, eventID string) (*models.Event, error) {
	var event models.Event
	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		return nil, err
	}

	if event.OrganizerID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only the organizer can cancel this event", ErrForbidden)
	}
	if event.Status != models.EventStatusPublished && event.Status != models.EventStatusDraft {
		return nil, fmt.Errorf("%w: event is %s", ErrValidation, event.Status)
	}

	if err := s.db.Model(&event).Update("status", models.EventStatusCancelled).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}

	s.feedCache.Invalidate(context.Background(), event.TenantID)
	return &event, nil
}

// Rsvp records or updates the user's attendance answer. Going answers
// count against the capacity limit when one is set.
func (s *EventService) Rsvp(user *models.User, eventID string, status models.RsvpStatus, notes string) (*models.EventRsvp, error) {
	switch status {
	case models.RsvpGoing, models.RsvpMaybe, models.RsvpNotGoing:
	default:
		return nil, fmt.Errorf("%w: invalid rsvp status %q", ErrValidation, status)
	}

	var event models.Event
	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		return nil, err
	}

	if event.Status != models.EventStatusPublished {
		return nil, fmt.Errorf("%w: event is not open for rsvp", ErrValidation)
	}
	if event.IsPrivate && !user.IsVerifiedResident() {
		return nil, fmt.Errorf("%w: residents only", ErrForbidden)
	}

	var rsvp models.EventRsvp
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if status == models.RsvpGoing && event.MaxAttendees != nil {
			var going int64
			if err := tx.Model(&models.EventRsvp{}).
				Where("event_id = ? AND status = ? AND user_id <> ?", eventID, models.RsvpGoing, user.ID).
				Count(&going).Error; err != nil {
				return err
			}
			if going >= int64(*event.MaxAttendees) {
				return fmt.Errorf("%w: event is full", ErrValidation)
			}
		}

		err := tx.Where("event_id = ? AND user_id = ?", eventID, user.ID).First(&rsvp).Error
		if err == gorm.ErrRecordNotFound {
			rsvp = models.EventRsvp{
				ID:      uuid.NewString(),
				EventID: eventID,
				UserID:  user.ID,
				Status:  status,
				Notes:   notes,
			}
			return tx.Create(&rsvp).Error
		}
		if err != nil {
			return err
		}

		rsvp.Status = status
		rsvp.Notes = notes
		return tx.Save(&rsvp).Error
	})
	if err != nil {
		return nil, err
	}

	if status == models.RsvpGoing {
		s.producer.Publish(context.Background(), events.ActivityEvent{
			Type:      events.ActivityEventRsvp,
			TenantID:  event.TenantID,
			UserID:    user.ID,
			SubjectID: eventID,
		})
	}

	return &rsvp, nil
}

// Attendees lists the going answers for an event
func (s *EventService) Attendees(eventID string) ([]models.EventRsvp, error) {
	var rsvps []models.EventRsvp
	if err := s.db.Where("event_id = ? AND status = ?", eventID, models.RsvpGoing).
		Order("created_at ASC").Find(&rsvps).Error; err != nil {
		return nil, err
	}
	return rsvps, nil
}

func (s *EventService) fillRsvpCounts(list []models.Event) {
	if len(list) == 0 {
		return
	}
	ids := make([]string, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}

	type row struct {
		EventID string
		Count   int
	}
	var rows []row
	if err := s.db.Model(&models.EventRsvp{}).
		Select("event_id, COUNT(*) as count").
		Where("event_id IN ? AND status = ?", ids, models.RsvpGoing).
		Group("event_id").Scan(&rows).Error; err != nil {
		return
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.EventID] = r.Count
	}
	for i := range list {
		list[i].RsvpCount = counts[list[i].ID]
	}
}
