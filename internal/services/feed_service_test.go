package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"prato-rinaldo/internal/models"
)

func seedFeedContent(t *testing.T, db *gorm.DB, author *models.User, nEvents, nListings, nProposals, nAnnouncements int) {
	t.Helper()

	start := time.Now().Add(24 * time.Hour)
	for i := 0; i < nEvents; i++ {
		event := models.Event{
			ID:          uuid.NewString(),
			TenantID:    testTenant,
			OrganizerID: author.ID,
			Title:       "Festa di quartiere",
			StartDate:   start.Add(time.Duration(i) * time.Hour),
			Status:      models.EventStatusPublished,
		}
		if err := db.Create(&event).Error; err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}

	for i := 0; i < nListings; i++ {
		item := models.MarketplaceItem{
			ID:       uuid.NewString(),
			TenantID: testTenant,
			SellerID: author.ID,
			Title:    "Bicicletta usata",
			Price:    decimal.NewFromInt(int64(10 + i)),
			Status:   models.ListingStatusApproved,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("failed to seed listing: %v", err)
		}
	}

	category := makeCategory(t, db, "Feed")
	for i := 0; i < nProposals; i++ {
		makeProposal(t, db, author, category, "Proposta per il feed")
	}

	for i := 0; i < nAnnouncements; i++ {
		a := models.Announcement{
			ID:       uuid.NewString(),
			TenantID: testTenant,
			AuthorID: author.ID,
			Title:    "Avviso del comitato",
			Content:  "Testo dell'avviso",
		}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("failed to seed announcement: %v", err)
		}
	}
}

func TestPublicFeedAggregatesAllSources(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedService(db, nil)

	author := makeUser(t, db, "Autore", true)
	seedFeedContent(t, db, author, 2, 3, 4, 1)

	page, err := svc.GetPublicFeed(context.Background(), testTenant, FeedParams{Limit: 50})
	if err != nil {
		t.Fatalf("public feed failed: %v", err)
	}

	// Proposals stay out of the anonymous feed
	if page.Total != 6 {
		t.Errorf("expected total 6 (2 events + 3 listings + 1 announcement), got %d", page.Total)
	}
	for _, item := range page.Items {
		if item.Type == FeedTypeProposal {
			t.Errorf("proposal leaked into the public feed: %s", item.ID)
		}
	}
}

func TestPrivateFeedIncludesProposalsForResidents(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedService(db, nil)

	author := makeUser(t, db, "Autore", true)
	seedFeedContent(t, db, author, 1, 1, 2, 0)

	resident := makeUser(t, db, "Residente", true)
	page, err := svc.GetPrivateFeed(context.Background(), testTenant, resident, FeedParams{Limit: 50})
	if err != nil {
		t.Fatalf("private feed failed: %v", err)
	}
	if page.Total != 4 {
		t.Errorf("expected total 4 with proposals, got %d", page.Total)
	}

	// Unverified viewers fall back to the public view
	pending := makeUser(t, db, "In attesa", false)
	page, err = svc.GetPrivateFeed(context.Background(), testTenant, pending, FeedParams{Limit: 50})
	if err != nil {
		t.Fatalf("private feed failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("expected unverified viewer to see 2 public items, got %d", page.Total)
	}
}

func TestFeedTypeNarrowing(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedService(db, nil)

	author := makeUser(t, db, "Autore", true)
	seedFeedContent(t, db, author, 2, 5, 0, 1)

	page, err := svc.GetPublicFeed(context.Background(), testTenant, FeedParams{Type: FeedTypeMarketplace, Limit: 50})
	if err != nil {
		t.Fatalf("narrowed feed failed: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("expected 5 marketplace items, got %d", page.Total)
	}
	for _, item := range page.Items {
		if item.Type != FeedTypeMarketplace {
			t.Errorf("unexpected item type %s in narrowed feed", item.Type)
		}
	}
}

func TestFeedPaginationReconstructsWithoutGaps(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedService(db, nil)

	author := makeUser(t, db, "Autore", true)
	seedFeedContent(t, db, author, 3, 3, 0, 3)

	seen := make(map[string]bool)
	offset := 0
	for {
		page, err := svc.GetPublicFeed(context.Background(), testTenant, FeedParams{Limit: 2, Offset: offset})
		if err != nil {
			t.Fatalf("page at offset %d failed: %v", offset, err)
		}
		for _, item := range page.Items {
			key := item.Type + ":" + item.ID
			if seen[key] {
				t.Errorf("item %s appeared twice across pages", key)
			}
			seen[key] = true
		}
		if !page.HasMore {
			break
		}
		offset += 2
	}

	if len(seen) != 9 {
		t.Errorf("expected 9 distinct items across pages, got %d", len(seen))
	}
}

func TestFeedHidesPrivateItemsFromAnonymous(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedService(db, nil)

	author := makeUser(t, db, "Autore", true)
	event := models.Event{
		ID:          uuid.NewString(),
		TenantID:    testTenant,
		OrganizerID: author.ID,
		Title:       "Assemblea riservata",
		StartDate:   time.Now().Add(48 * time.Hour),
		IsPrivate:   true,
		Status:      models.EventStatusPublished,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}

	public, err := svc.GetPublicFeed(context.Background(), testTenant, FeedParams{Limit: 50})
	if err != nil {
		t.Fatalf("public feed failed: %v", err)
	}
	if public.Total != 0 {
		t.Errorf("private event leaked into public feed, total=%d", public.Total)
	}

	resident := makeUser(t, db, "Residente", true)
	private, err := svc.GetPrivateFeed(context.Background(), testTenant, resident, FeedParams{Limit: 50})
	if err != nil {
		t.Fatalf("private feed failed: %v", err)
	}
	if private.Total != 1 {
		t.Errorf("expected resident to see the private event, total=%d", private.Total)
	}
}

func TestFeedDegradesWhenSourceFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedService(db, nil)

	author := makeUser(t, db, "Autore", true)
	seedFeedContent(t, db, author, 2, 3, 0, 1)

	// Break the events source; the other sources must still come through
	if err := db.Migrator().DropTable(&models.Event{}); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	page, err := svc.GetPublicFeed(context.Background(), testTenant, FeedParams{Limit: 50})
	if err != nil {
		t.Fatalf("public feed failed: %v", err)
	}
	if page.Total != 4 {
		t.Errorf("expected 4 items from surviving sources, got %d", page.Total)
	}
	for _, item := range page.Items {
		if item.Type == FeedTypeEvent {
			t.Errorf("event item produced by a broken source: %s", item.ID)
		}
	}
}

func TestFeedPopularSortUsesScore(t *testing.T) {
	db := newTestDB(t)
	feedSvc := NewFeedService(db, nil)
	proposalSvc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	category := makeCategory(t, db, "Feed")
	makeProposal(t, db, author, category, "Proposta senza voti")
	hot := makeProposal(t, db, author, category, "Proposta molto votata")

	for i := 0; i < 4; i++ {
		voter := makeUser(t, db, "Votante", true)
		if _, _, err := proposalSvc.Vote(hot.ID, voter, models.VoteUp); err != nil {
			t.Fatalf("vote failed: %v", err)
		}
	}

	resident := makeUser(t, db, "Residente", true)
	page, err := feedSvc.GetPrivateFeed(context.Background(), testTenant, resident, FeedParams{
		Type:   FeedTypeProposal,
		SortBy: FeedSortPopular,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("popular feed failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(page.Items))
	}
	if page.Items[0].ID != hot.ID {
		t.Errorf("expected most voted proposal first, got %s", page.Items[0].ID)
	}
}
