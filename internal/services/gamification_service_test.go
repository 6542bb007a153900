package services

import (
	"testing"
)

func TestPointsAndLevel(t *testing.T) {
	db := newTestDB(t)
	svc := NewGamificationService(db)

	user := makeUser(t, db, "Residente", true)
	makeBadge(t, db, "benvenuto", 50)
	makeBadge(t, db, "elettore", 30)
	makeBadge(t, db, "partecipante", 25)

	for _, slug := range []string{"benvenuto", "elettore", "partecipante"} {
		if _, err := svc.AwardBadge(testTenant, user.ID, slug); err != nil {
			t.Fatalf("award %s failed: %v", slug, err)
		}
	}

	points, err := svc.GetUserPoints(user.ID)
	if err != nil {
		t.Fatalf("points failed: %v", err)
	}
	if points.TotalPoints != 105 {
		t.Errorf("expected 105 points, got %d", points.TotalPoints)
	}
	if points.Level != 2 {
		t.Errorf("expected level 2, got %d", points.Level)
	}
	if points.BadgeCount != 3 {
		t.Errorf("expected 3 badges, got %d", points.BadgeCount)
	}
}

func TestZeroPointsIsLevelOne(t *testing.T) {
	db := newTestDB(t)
	svc := NewGamificationService(db)

	user := makeUser(t, db, "Nuovo", true)

	points, err := svc.GetUserPoints(user.ID)
	if err != nil {
		t.Fatalf("points failed: %v", err)
	}
	if points.TotalPoints != 0 || points.Level != 1 {
		t.Errorf("expected 0 points at level 1, got %d at level %d", points.TotalPoints, points.Level)
	}
}

func TestAwardBadgeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewGamificationService(db)

	user := makeUser(t, db, "Residente", true)
	makeBadge(t, db, "elettore", 10)

	first, err := svc.AwardBadge(testTenant, user.ID, "elettore")
	if err != nil {
		t.Fatalf("first award failed: %v", err)
	}
	second, err := svc.AwardBadge(testTenant, user.ID, "elettore")
	if err != nil {
		t.Fatalf("second award failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same award row, got %s and %s", first.ID, second.ID)
	}

	points, _ := svc.GetUserPoints(user.ID)
	if points.TotalPoints != 10 {
		t.Errorf("double award inflated points to %d", points.TotalPoints)
	}
}

func TestAwardUnknownBadge(t *testing.T) {
	db := newTestDB(t)
	svc := NewGamificationService(db)

	user := makeUser(t, db, "Residente", true)
	if _, err := svc.AwardBadge(testTenant, user.ID, "inesistente"); err == nil {
		t.Fatal("expected unknown badge to fail")
	}
}

func TestLeaderboardOrdersByPoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewGamificationService(db)

	makeBadge(t, db, "oro", 100)
	makeBadge(t, db, "argento", 50)

	leader := makeUser(t, db, "Prima", true)
	runnerUp := makeUser(t, db, "Secondo", true)

	if _, err := svc.AwardBadge(testTenant, leader.ID, "oro"); err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if _, err := svc.AwardBadge(testTenant, leader.ID, "argento"); err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if _, err := svc.AwardBadge(testTenant, runnerUp.ID, "argento"); err != nil {
		t.Fatalf("award failed: %v", err)
	}

	entries, err := svc.GetLeaderboard(testTenant, 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != leader.ID || entries[0].TotalPoints != 150 {
		t.Errorf("expected leader with 150 points first, got %+v", entries[0])
	}
	if entries[1].UserID != runnerUp.ID || entries[1].TotalPoints != 50 {
		t.Errorf("expected runner-up with 50 points, got %+v", entries[1])
	}
}

func TestSeedDefaultBadgesIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewGamificationService(db)

	if err := svc.SeedDefaultBadges(testTenant); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	badges, err := svc.GetAllBadges(testTenant)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	count := len(badges)
	if count == 0 {
		t.Fatal("expected seeded badges")
	}

	if err := svc.SeedDefaultBadges(testTenant); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	badges, _ = svc.GetAllBadges(testTenant)
	if len(badges) != count {
		t.Errorf("second seed changed badge count from %d to %d", count, len(badges))
	}
}
