package services

import (
	"testing"

	"prato-rinaldo/internal/models"
)

func TestVoteCastFlipRemove(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	voter := makeUser(t, db, "Votante", true)
	category := makeCategory(t, db, "Verde pubblico")
	proposal := makeProposal(t, db, author, category, "Nuove panchine al parco")

	// First vote: up
	updated, current, err := svc.Vote(proposal.ID, voter, models.VoteUp)
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if updated.Upvotes != 1 || updated.Downvotes != 0 || updated.Score != 1 {
		t.Errorf("after up vote got upvotes=%d downvotes=%d score=%d, want 1/0/1",
			updated.Upvotes, updated.Downvotes, updated.Score)
	}
	if current == nil || *current != models.VoteUp {
		t.Errorf("expected current vote up, got %v", current)
	}

	// Opposite direction flips
	updated, current, err = svc.Vote(proposal.ID, voter, models.VoteDown)
	if err != nil {
		t.Fatalf("flip failed: %v", err)
	}
	if updated.Upvotes != 0 || updated.Downvotes != 1 || updated.Score != -1 {
		t.Errorf("after flip got upvotes=%d downvotes=%d score=%d, want 0/1/-1",
			updated.Upvotes, updated.Downvotes, updated.Score)
	}
	if current == nil || *current != models.VoteDown {
		t.Errorf("expected current vote down, got %v", current)
	}

	// Same direction removes
	updated, current, err = svc.Vote(proposal.ID, voter, models.VoteDown)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if updated.Upvotes != 0 || updated.Downvotes != 0 || updated.Score != 0 {
		t.Errorf("after removal got upvotes=%d downvotes=%d score=%d, want 0/0/0",
			updated.Upvotes, updated.Downvotes, updated.Score)
	}
	if current != nil {
		t.Errorf("expected no current vote after removal, got %v", *current)
	}

	// Vote rows must match the counters
	var votes int64
	db.Model(&models.ProposalVote{}).Where("proposal_id = ?", proposal.ID).Count(&votes)
	if votes != 0 {
		t.Errorf("expected 0 vote rows, got %d", votes)
	}
}

func TestVoteRequiresVerifiedResident(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	pending := makeUser(t, db, "Non verificato", false)
	category := makeCategory(t, db, "Viabilità")
	proposal := makeProposal(t, db, author, category, "Dosso in via Roma")

	if _, _, err := svc.Vote(proposal.ID, pending, models.VoteUp); err == nil {
		t.Fatal("expected unverified user to be refused")
	}
}

func TestListOrdersByScore(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	category := makeCategory(t, db, "Illuminazione")

	low := makeProposal(t, db, author, category, "Proposta meno votata")
	high := makeProposal(t, db, author, category, "Proposta più votata")

	for i := 0; i < 3; i++ {
		voter := makeUser(t, db, "Votante", true)
		if _, _, err := svc.Vote(high.ID, voter, models.VoteUp); err != nil {
			t.Fatalf("vote failed: %v", err)
		}
	}
	voter := makeUser(t, db, "Votante", true)
	if _, _, err := svc.Vote(low.ID, voter, models.VoteDown); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	proposals, total, err := svc.List(testTenant, ProposalListParams{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 proposals, got %d", total)
	}
	if proposals[0].ID != high.ID {
		t.Errorf("expected highest score first, got %s", proposals[0].Title)
	}
	if proposals[0].Score != 3 || proposals[1].Score != -1 {
		t.Errorf("unexpected scores %d, %d", proposals[0].Score, proposals[1].Score)
	}
}

func TestUpdateOnlyWhileProposed(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	other := makeUser(t, db, "Altro", true)
	category := makeCategory(t, db, "Decoro urbano")
	proposal := makeProposal(t, db, author, category, "Murales sul muro grigio")

	// Another resident cannot edit
	if _, err := svc.Update(proposal.ID, other, "Titolo cambiato ora", "Descrizione sostitutiva con abbastanza testo per passare i controlli."); err == nil {
		t.Fatal("expected non-author edit to be refused")
	}

	// The author can while still proposed
	if _, err := svc.Update(proposal.ID, author, "Murales aggiornato qui", "Descrizione sostitutiva con abbastanza testo per passare i controlli."); err != nil {
		t.Fatalf("author edit failed: %v", err)
	}

	// After leaving proposed, edits are refused
	admin := makeAdmin(t, db, "Admin")
	if _, err := svc.UpdateStatus(proposal.ID, admin, models.ProposalStatusUnderReview, "", nil, nil); err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	if _, err := svc.Update(proposal.ID, author, "Ritocco tardivo qui", "Descrizione sostitutiva con abbastanza testo per passare i controlli."); err == nil {
		t.Fatal("expected edit after review to be refused")
	}
}

func TestStatusTransitionsAreOneDirectional(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	admin := makeAdmin(t, db, "Admin")
	category := makeCategory(t, db, "Sicurezza")
	proposal := makeProposal(t, db, author, category, "Telecamere al parcheggio")

	steps := []models.ProposalStatus{
		models.ProposalStatusUnderReview,
		models.ProposalStatusApproved,
		models.ProposalStatusInProgress,
		models.ProposalStatusCompleted,
	}
	for _, status := range steps {
		if _, err := svc.UpdateStatus(proposal.ID, admin, status, "", nil, nil); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	// Completed is terminal
	if _, err := svc.UpdateStatus(proposal.ID, admin, models.ProposalStatusProposed, "", nil, nil); err == nil {
		t.Fatal("expected backward transition to be refused")
	}
	if _, err := svc.UpdateStatus(proposal.ID, admin, models.ProposalStatusDeclined, "troppo tardi", nil, nil); err == nil {
		t.Fatal("expected transition out of completed to be refused")
	}

	// Every hop was recorded
	history, err := svc.GetStatusHistory(proposal.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != len(steps) {
		t.Errorf("expected %d history rows, got %d", len(steps), len(history))
	}
}

func TestDeclineRequiresReason(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	admin := makeAdmin(t, db, "Admin")
	category := makeCategory(t, db, "Verde pubblico")
	proposal := makeProposal(t, db, author, category, "Fontana in piazza")

	if _, err := svc.UpdateStatus(proposal.ID, admin, models.ProposalStatusDeclined, "", nil, nil); err == nil {
		t.Fatal("expected decline without reason to be refused")
	}

	updated, err := svc.UpdateStatus(proposal.ID, admin, models.ProposalStatusDeclined, "fuori budget", nil, nil)
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if updated.DeclineReason == nil || *updated.DeclineReason != "fuori budget" {
		t.Errorf("expected decline reason to be stored, got %v", updated.DeclineReason)
	}
}

func TestStatusUpdateRequiresPrivilege(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	author := makeUser(t, db, "Autore", true)
	category := makeCategory(t, db, "Viabilità")
	proposal := makeProposal(t, db, author, category, "Senso unico in via Verdi")

	if _, err := svc.UpdateStatus(proposal.ID, author, models.ProposalStatusApproved, "", nil, nil); err == nil {
		t.Fatal("expected plain resident to be refused")
	}
}

func TestDeleteCategoryRefusesNonEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewProposalService(db, nil, nil)

	admin := makeAdmin(t, db, "Admin")
	author := makeUser(t, db, "Autore", true)
	category := makeCategory(t, db, "Decoro urbano")
	makeProposal(t, db, author, category, "Aiuole in via Bianchi")

	if err := svc.DeleteCategory(category.ID, admin); err == nil {
		t.Fatal("expected delete of non-empty category to be refused")
	}

	empty := makeCategory(t, db, "Categoria vuota")
	if err := svc.DeleteCategory(empty.ID, admin); err != nil {
		t.Fatalf("delete of empty category failed: %v", err)
	}
}
