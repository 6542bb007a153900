package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"prato-rinaldo/internal/models"
)

func newMarketplaceFixture(t *testing.T) (*MarketplaceService, *ModerationService, *models.User, *models.User) {
	t.Helper()

	db := newTestDB(t)
	moderation := NewModerationService(db, nil)
	svc := NewMarketplaceService(db, moderation, nil, nil)
	seller := makeUser(t, db, "Venditore", true)
	moderator := makeAdmin(t, db, "Moderatore")
	return svc, moderation, seller, moderator
}

func TestNewListingGoesThroughModeration(t *testing.T) {
	svc, moderation, seller, moderator := newMarketplaceFixture(t)

	item, err := svc.Create(seller, CreateListingInput{
		Title: "Tavolo da giardino",
		Price: decimal.NewFromInt(35),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if item.Status != models.ListingStatusPending {
		t.Errorf("expected pending, got %s", item.Status)
	}

	// Not public yet
	_, total, err := svc.List(testTenant, nil, ListingParams{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 {
		t.Errorf("pending listing leaked into the public list")
	}

	// A queue entry was filed; approving it publishes the listing
	queue, qTotal, err := moderation.ListQueue(moderator, 1, 20, ModerationFilters{Status: "pending"})
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	if qTotal != 1 {
		t.Fatalf("expected one queue entry, got %d", qTotal)
	}
	if err := moderation.Approve(moderator, queue[0].ID, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, total, _ = svc.List(testTenant, nil, ListingParams{})
	if total != 1 {
		t.Errorf("approved listing missing from the public list")
	}
}

func TestEditingApprovedListingResetsModeration(t *testing.T) {
	svc, moderation, seller, moderator := newMarketplaceFixture(t)

	item, _ := svc.Create(seller, CreateListingInput{
		Title: "Sedia di design",
		Price: decimal.NewFromInt(80),
	})
	queue, _, _ := moderation.ListQueue(moderator, 1, 20, ModerationFilters{Status: "pending"})
	if err := moderation.Approve(moderator, queue[0].ID, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	updated, err := svc.Update(seller, item.ID, CreateListingInput{
		Title: "Sedia di design, prezzo ridotto",
		Price: decimal.NewFromInt(60),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != models.ListingStatusPending {
		t.Errorf("expected edit to reset status to pending, got %s", updated.Status)
	}

	_, total, _ := svc.List(testTenant, nil, ListingParams{})
	if total != 0 {
		t.Errorf("edited listing still publicly visible")
	}
}

func TestMarkSoldRemovesFromPublicList(t *testing.T) {
	svc, moderation, seller, moderator := newMarketplaceFixture(t)

	item, _ := svc.Create(seller, CreateListingInput{
		Title: "Monopattino elettrico",
		Price: decimal.NewFromInt(120),
	})
	queue, _, _ := moderation.ListQueue(moderator, 1, 20, ModerationFilters{})
	if err := moderation.Approve(moderator, queue[0].ID, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	sold, err := svc.MarkSold(seller, item.ID)
	if err != nil {
		t.Fatalf("mark sold failed: %v", err)
	}
	if sold.Status != models.ListingStatusSold || sold.SoldAt == nil {
		t.Errorf("expected sold with timestamp, got %s %v", sold.Status, sold.SoldAt)
	}

	_, total, _ := svc.List(testTenant, nil, ListingParams{})
	if total != 0 {
		t.Errorf("sold listing still publicly visible")
	}

	// The seller still sees it among their own listings
	mine, err := svc.MyListings(seller.ID)
	if err != nil {
		t.Fatalf("my listings failed: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 own listing, got %d", len(mine))
	}
}

func TestOnlySellerCanManageListing(t *testing.T) {
	svc, _, seller, _ := newMarketplaceFixture(t)

	item, _ := svc.Create(seller, CreateListingInput{
		Title: "Stampante laser",
		Price: decimal.NewFromInt(50),
	})

	other := makeUser(t, svc.db, "Altro", true)
	if _, err := svc.Update(other, item.ID, CreateListingInput{
		Title: "Titolo dirottato qui",
		Price: decimal.NewFromInt(1),
	}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden on foreign edit, got %v", err)
	}
	if _, err := svc.MarkSold(other, item.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden on foreign sale, got %v", err)
	}
	if err := svc.Delete(other, item.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden on foreign delete, got %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, seller, _ := newMarketplaceFixture(t)

	cases := []struct {
		name  string
		input CreateListingInput
	}{
		{"short title", CreateListingInput{Title: "Tv", Price: decimal.NewFromInt(10)}},
		{"negative price", CreateListingInput{Title: "Televisore 40 pollici", Price: decimal.NewFromInt(-5)}},
		{"bad condition", CreateListingInput{Title: "Televisore 40 pollici", Price: decimal.NewFromInt(10), Condition: "broken"}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(seller, tc.input); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}

	pending := makeUser(t, svc.db, "Non verificato", false)
	if _, err := svc.Create(pending, CreateListingInput{
		Title: "Bici da corsa usata",
		Price: decimal.NewFromInt(90),
	}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for unverified seller, got %v", err)
	}
}
