package jobs

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prato-rinaldo/internal/database"
	"prato-rinaldo/internal/events"
	"prato-rinaldo/internal/models"
	"prato-rinaldo/internal/services"
)

const testTenant = "tenant-test"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func seedWorkerFixture(t *testing.T, db *gorm.DB) (*BadgeWorker, *services.GamificationService, *models.User) {
	t.Helper()

	gamification := services.NewGamificationService(db)
	if err := gamification.SeedDefaultBadges(testTenant); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	user := &models.User{
		ID:                 uuid.NewString(),
		TenantID:           testTenant,
		Name:               "Residente",
		Email:              uuid.NewString() + "@example.test",
		PasswordHash:       "x",
		Role:               "user",
		VerificationStatus: models.VerificationApproved,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return NewBadgeWorker(db, nil, gamification), gamification, user
}

func TestFirstProposalAwardsBadge(t *testing.T) {
	db := newTestDB(t)
	worker, gamification, user := seedWorkerFixture(t, db)

	category := models.ProposalCategory{ID: uuid.NewString(), TenantID: testTenant, Name: "Verde"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	proposal := models.Proposal{
		ID:          uuid.NewString(),
		TenantID:    testTenant,
		CategoryID:  category.ID,
		AuthorID:    user.ID,
		Title:       "Prima proposta",
		Description: "Testo",
	}
	if err := db.Create(&proposal).Error; err != nil {
		t.Fatalf("failed to create proposal: %v", err)
	}

	worker.process(events.ActivityEvent{
		Type:      events.ActivityProposalCreated,
		TenantID:  testTenant,
		UserID:    user.ID,
		SubjectID: proposal.ID,
	})

	badges, err := gamification.GetUserBadges(user.ID)
	if err != nil {
		t.Fatalf("badges failed: %v", err)
	}
	if len(badges) != 1 || badges[0].Badge.Slug != "prima-proposta" {
		t.Errorf("expected prima-proposta badge, got %+v", badges)
	}
}

func TestThresholdNotReachedAwardsNothing(t *testing.T) {
	db := newTestDB(t)
	worker, gamification, user := seedWorkerFixture(t, db)

	// Two forum posts, conversatore needs ten
	for i := 0; i < 2; i++ {
		post := models.ForumPost{
			ID:       uuid.NewString(),
			ThreadID: uuid.NewString(),
			AuthorID: user.ID,
			Content:  "Testo",
		}
		if err := db.Create(&post).Error; err != nil {
			t.Fatalf("failed to create post: %v", err)
		}
	}

	worker.process(events.ActivityEvent{
		Type:     events.ActivityPostCreated,
		TenantID: testTenant,
		UserID:   user.ID,
	})

	badges, _ := gamification.GetUserBadges(user.ID)
	if len(badges) != 0 {
		t.Errorf("expected no badge below threshold, got %+v", badges)
	}
}

func TestRedeliveredEventDoesNotDoubleAward(t *testing.T) {
	db := newTestDB(t)
	worker, gamification, user := seedWorkerFixture(t, db)

	vote := models.ProposalVote{
		ID:         uuid.NewString(),
		ProposalID: uuid.NewString(),
		UserID:     user.ID,
		Direction:  models.VoteUp,
	}
	if err := db.Create(&vote).Error; err != nil {
		t.Fatalf("failed to create vote: %v", err)
	}

	ev := events.ActivityEvent{
		Type:     events.ActivityVoteCast,
		TenantID: testTenant,
		UserID:   user.ID,
	}
	worker.process(ev)
	worker.process(ev)

	badges, _ := gamification.GetUserBadges(user.ID)
	if len(badges) != 1 {
		t.Errorf("expected a single elettore badge after redelivery, got %d", len(badges))
	}

	points, _ := gamification.GetUserPoints(user.ID)
	if points.BadgeCount != 1 {
		t.Errorf("expected badge count 1, got %d", points.BadgeCount)
	}
}

func TestMultipleThresholdsCrossTogether(t *testing.T) {
	db := newTestDB(t)
	worker, gamification, user := seedWorkerFixture(t, db)

	// Ten proposals at once: both the first-proposal and the ten-proposal
	// badges are due
	category := models.ProposalCategory{ID: uuid.NewString(), TenantID: testTenant, Name: "Verde"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	for i := 0; i < 10; i++ {
		proposal := models.Proposal{
			ID:          uuid.NewString(),
			TenantID:    testTenant,
			CategoryID:  category.ID,
			AuthorID:    user.ID,
			Title:       "Proposta",
			Description: "Testo",
		}
		if err := db.Create(&proposal).Error; err != nil {
			t.Fatalf("failed to create proposal: %v", err)
		}
	}

	worker.process(events.ActivityEvent{
		Type:     events.ActivityProposalCreated,
		TenantID: testTenant,
		UserID:   user.ID,
	})

	badges, _ := gamification.GetUserBadges(user.ID)
	if len(badges) != 2 {
		t.Errorf("expected both proposal badges, got %d", len(badges))
	}
}
