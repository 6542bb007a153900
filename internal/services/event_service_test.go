package services

import (
	"errors"
	"testing"
	"time"

	"prato-rinaldo/internal/models"
)

func TestEventLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(db, nil, nil)

	organizer := makeUser(t, db, "Organizzatore", true)

	event, err := svc.Create(organizer, CreateEventInput{
		Title:     "Festa di primavera",
		StartDate: time.Now().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if event.Status != models.EventStatusDraft {
		t.Errorf("expected draft, got %s", event.Status)
	}

	// Drafts stay out of the listing
	list, total, err := svc.List(testTenant, nil, EventListParams{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 || len(list) != 0 {
		t.Errorf("draft leaked into listing")
	}

	if _, err := svc.Publish(organizer, event.ID); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	_, total, _ = svc.List(testTenant, nil, EventListParams{})
	if total != 1 {
		t.Errorf("expected 1 published event, got %d", total)
	}

	// Publishing twice is refused
	if _, err := svc.Publish(organizer, event.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on double publish, got %v", err)
	}

	if _, err := svc.Cancel(organizer, event.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, total, _ = svc.List(testTenant, nil, EventListParams{})
	if total != 0 {
		t.Errorf("cancelled event still listed")
	}
}

func TestCreateRejectsPastStart(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(db, nil, nil)

	organizer := makeUser(t, db, "Organizzatore", true)
	_, err := svc.Create(organizer, CreateEventInput{
		Title:     "Evento nel passato",
		StartDate: time.Now().Add(-time.Hour),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRsvpCapacity(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(db, nil, nil)

	organizer := makeUser(t, db, "Organizzatore", true)
	capacity := 2
	event, err := svc.Create(organizer, CreateEventInput{
		Title:        "Cena sociale",
		StartDate:    time.Now().Add(48 * time.Hour),
		MaxAttendees: &capacity,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Publish(organizer, event.ID); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	first := makeUser(t, db, "Prima", true)
	second := makeUser(t, db, "Secondo", true)
	third := makeUser(t, db, "Terzo", true)

	if _, err := svc.Rsvp(first, event.ID, models.RsvpGoing, ""); err != nil {
		t.Fatalf("first rsvp failed: %v", err)
	}
	if _, err := svc.Rsvp(second, event.ID, models.RsvpGoing, ""); err != nil {
		t.Fatalf("second rsvp failed: %v", err)
	}

	// Full: a third going answer is refused, maybe still works
	if _, err := svc.Rsvp(third, event.ID, models.RsvpGoing, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation when full, got %v", err)
	}
	if _, err := svc.Rsvp(third, event.ID, models.RsvpMaybe, ""); err != nil {
		t.Errorf("maybe answer should not count against capacity: %v", err)
	}

	// Changing an existing going answer never trips the capacity check
	if _, err := svc.Rsvp(first, event.ID, models.RsvpNotGoing, ""); err != nil {
		t.Errorf("changing own rsvp failed: %v", err)
	}

	attendees, err := svc.Attendees(event.ID)
	if err != nil {
		t.Fatalf("attendees failed: %v", err)
	}
	if len(attendees) != 1 {
		t.Errorf("expected 1 going attendee, got %d", len(attendees))
	}
}

func TestRsvpIsUpsert(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(db, nil, nil)

	organizer := makeUser(t, db, "Organizzatore", true)
	event, _ := svc.Create(organizer, CreateEventInput{
		Title:     "Assemblea annuale",
		StartDate: time.Now().Add(24 * time.Hour),
	})
	if _, err := svc.Publish(organizer, event.ID); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	user := makeUser(t, db, "Residente", true)
	if _, err := svc.Rsvp(user, event.ID, models.RsvpMaybe, ""); err != nil {
		t.Fatalf("rsvp failed: %v", err)
	}
	if _, err := svc.Rsvp(user, event.ID, models.RsvpGoing, "arrivo tardi"); err != nil {
		t.Fatalf("rsvp update failed: %v", err)
	}

	var count int64
	db.Model(&models.EventRsvp{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected a single rsvp row, got %d", count)
	}
}

func TestPrivateEventHiddenFromAnonymous(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(db, nil, nil)

	organizer := makeUser(t, db, "Organizzatore", true)
	event, _ := svc.Create(organizer, CreateEventInput{
		Title:     "Riunione del direttivo",
		StartDate: time.Now().Add(24 * time.Hour),
		IsPrivate: true,
	})
	if _, err := svc.Publish(organizer, event.ID); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	_, total, err := svc.List(testTenant, nil, EventListParams{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 {
		t.Errorf("private event visible to anonymous viewer")
	}

	resident := makeUser(t, db, "Residente", true)
	_, total, _ = svc.List(testTenant, resident, EventListParams{})
	if total != 1 {
		t.Errorf("private event hidden from verified resident")
	}
}
