package jobs

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"prato-rinaldo/internal/events"
	"prato-rinaldo/internal/models"
	"prato-rinaldo/internal/services"
)

// badgeRule awards a badge once an activity type reaches a count threshold
type badgeRule struct {
	activity  string
	threshold int64
	slug      string
}

// The rule table mirrors the badge catalogue seeded by the gamification
// service. Rules for the same activity must be ordered by threshold.
var badgeRules = []badgeRule{
	{events.ActivityProposalCreated, 1, "prima-proposta"},
	{events.ActivityProposalCreated, 10, "voce-del-quartiere"},
	{events.ActivityVoteCast, 1, "elettore"},
	{events.ActivityVoteCast, 50, "elettore-assiduo"},
	{events.ActivityListingCreated, 1, "primo-annuncio"},
	{events.ActivityListingSold, 1, "venditore"},
	{events.ActivityEventRsvp, 1, "partecipante"},
	{events.ActivityPostCreated, 10, "conversatore"},
}

// BadgeWorker consumes activity events and awards badges when a user's
// activity counts cross the rule thresholds
type BadgeWorker struct {
	db           *gorm.DB
	reader       *kafka.Reader
	gamification *services.GamificationService
	stopChan     chan struct{}
}

// NewBadgeWorker creates a badge worker over a consumer-group reader.
// A nil reader disables the worker.
func NewBadgeWorker(db *gorm.DB, reader *kafka.Reader, gamification *services.GamificationService) *BadgeWorker {
	return &BadgeWorker{
		db:           db,
		reader:       reader,
		gamification: gamification,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the consume loop. Blocks until Stop is called.
func (w *BadgeWorker) Start() {
	if w.reader == nil {
		log.Println("[BadgeWorker] No Kafka reader configured, worker disabled")
		return
	}
	log.Println("[BadgeWorker] Starting badge award loop")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-w.stopChan
		cancel()
	}()

	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			select {
			case <-w.stopChan:
				log.Println("[BadgeWorker] Stopping badge award loop")
				return
			default:
			}
			log.Printf("[BadgeWorker] Error reading message: %v", err)
			continue
		}

		var ev events.ActivityEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Printf("[BadgeWorker] Skipping malformed event: %v", err)
			continue
		}

		w.process(ev)
	}
}

// Stop stops the consume loop and closes the reader
func (w *BadgeWorker) Stop() {
	close(w.stopChan)
	if w.reader != nil {
		if err := w.reader.Close(); err != nil {
			log.Printf("[BadgeWorker] Error closing reader: %v", err)
		}
	}
}

// process checks every rule matching the event's activity type. Awards are
// idempotent so re-delivered events are harmless.
func (w *BadgeWorker) process(ev events.ActivityEvent) {
	count, ok := w.activityCount(ev)
	if !ok {
		return
	}

	for _, rule := range badgeRules {
		if rule.activity != ev.Type || count < rule.threshold {
			continue
		}
		if _, err := w.gamification.AwardBadge(ev.TenantID, ev.UserID, rule.slug); err != nil {
			log.Printf("[BadgeWorker] Failed to award %s to %s: %v", rule.slug, ev.UserID, err)
		}
	}
}

// activityCount recomputes the user's total for the event's activity type
// from the database. Counting from source instead of keeping a running
// tally keeps the worker correct across restarts and redeliveries.
func (w *BadgeWorker) activityCount(ev events.ActivityEvent) (int64, bool) {
	var count int64
	var err error

	switch ev.Type {
	case events.ActivityProposalCreated:
		err = w.db.Model(&models.Proposal{}).
			Where("author_id = ?", ev.UserID).Count(&count).Error
	case events.ActivityVoteCast:
		err = w.db.Model(&models.ProposalVote{}).
			Where("user_id = ?", ev.UserID).Count(&count).Error
	case events.ActivityListingCreated:
		err = w.db.Model(&models.MarketplaceItem{}).
			Where("seller_id = ?", ev.UserID).Count(&count).Error
	case events.ActivityListingSold:
		err = w.db.Model(&models.MarketplaceItem{}).
			Where("seller_id = ? AND status = ?", ev.UserID, models.ListingStatusSold).Count(&count).Error
	case events.ActivityEventRsvp:
		err = w.db.Model(&models.EventRsvp{}).
			Where("user_id = ? AND status = ?", ev.UserID, models.RsvpGoing).Count(&count).Error
	case events.ActivityPostCreated:
		err = w.db.Model(&models.ForumPost{}).
			Where("author_id = ?", ev.UserID).Count(&count).Error
	default:
		return 0, false
	}

	if err != nil {
		log.Printf("[BadgeWorker] Error counting %s for %s: %v", ev.Type, ev.UserID, err)
		return 0, false
	}
	return count, true
}
