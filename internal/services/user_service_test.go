package services

import (
	"errors"
	"testing"

	"prato-rinaldo/internal/models"
)

func TestApproveResidentGrantsWelcomeBadge(t *testing.T) {
	db := newTestDB(t)
	gamification := NewGamificationService(db)
	svc := NewUserService(db, gamification)

	if err := gamification.SeedDefaultBadges(testTenant); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	admin := makeAdmin(t, db, "Admin")
	pending := makeUser(t, db, "Nuovo residente", false)

	approved, err := svc.ApproveResident(admin, pending.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.VerificationStatus != models.VerificationApproved {
		t.Errorf("expected approved, got %s", approved.VerificationStatus)
	}

	badges, err := gamification.GetUserBadges(pending.ID)
	if err != nil {
		t.Fatalf("badges failed: %v", err)
	}
	if len(badges) != 1 || badges[0].Badge == nil || badges[0].Badge.Slug != "benvenuto" {
		t.Errorf("expected the welcome badge, got %+v", badges)
	}

	// Verification is one-shot
	if _, err := svc.ApproveResident(admin, pending.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on double approval, got %v", err)
	}
}

func TestRejectResident(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NewGamificationService(db))

	admin := makeAdmin(t, db, "Admin")
	pending := makeUser(t, db, "Richiedente", false)

	rejected, err := svc.RejectResident(admin, pending.ID)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.VerificationStatus != models.VerificationRejected {
		t.Errorf("expected rejected, got %s", rejected.VerificationStatus)
	}
	if rejected.IsVerifiedResident() {
		t.Error("rejected user must not count as verified")
	}
}

func TestVerificationRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NewGamificationService(db))

	resident := makeUser(t, db, "Residente", true)
	pending := makeUser(t, db, "Richiedente", false)

	if _, err := svc.ApproveResident(resident, pending.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestListUsersFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NewGamificationService(db))

	admin := makeAdmin(t, db, "Admin")
	makeUser(t, db, "Verificato", true)
	makeUser(t, db, "In attesa", false)
	makeUser(t, db, "Altro in attesa", false)

	_, total, err := svc.ListUsers(admin, "pending", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 pending users, got %d", total)
	}

	_, total, err = svc.ListUsers(admin, "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	// Admin plus the three created above
	if total != 4 {
		t.Errorf("expected 4 users in total, got %d", total)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, NewGamificationService(db))

	user := makeUser(t, db, "Mario", true)

	bio := "Residente dal 2015, appassionato di orti urbani."
	updated, err := svc.UpdateProfile(user, ProfileUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Bio != bio {
		t.Errorf("bio not saved")
	}
	if updated.Name != "Mario" {
		t.Errorf("untouched fields must survive, name became %q", updated.Name)
	}

	empty := ""
	if _, err := svc.UpdateProfile(user, ProfileUpdate{Name: &empty}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty name, got %v", err)
	}
}

func TestBachecaSummary(t *testing.T) {
	db := newTestDB(t)
	gamification := NewGamificationService(db)
	svc := NewUserService(db, gamification)

	user := makeUser(t, db, "Residente", true)
	category := makeCategory(t, db, "Bacheca")
	makeProposal(t, db, user, category, "Proposta mia per la bacheca")
	makeBadge(t, db, "benvenuto", 10)
	if _, err := gamification.AwardBadge(testTenant, user.ID, "benvenuto"); err != nil {
		t.Fatalf("award failed: %v", err)
	}

	other := makeUser(t, db, "Mittente", true)
	if _, err := NewMessageService(db).Send(other, user.ID, "Benvenuto nel quartiere!"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	summary, err := svc.GetBacheca(user)
	if err != nil {
		t.Fatalf("bacheca failed: %v", err)
	}
	if summary.Proposals != 1 {
		t.Errorf("expected 1 proposal, got %d", summary.Proposals)
	}
	if summary.UnreadMessages != 1 {
		t.Errorf("expected 1 unread message, got %d", summary.UnreadMessages)
	}
	if summary.Points == nil || summary.Points.TotalPoints != 10 {
		t.Errorf("expected 10 points, got %+v", summary.Points)
	}
	if len(summary.RecentBadges) != 1 {
		t.Errorf("expected 1 recent badge, got %d", len(summary.RecentBadges))
	}
}
