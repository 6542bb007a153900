package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prato-rinaldo/internal/models"
)

// pointsPerLevel is the flat level step: level = total/100 + 1
const pointsPerLevel = 100

type GamificationService struct {
	db *gorm.DB
}

func NewGamificationService(db *gorm.DB) *GamificationService {
	return &GamificationService{db: db}
}

// UserPoints is the computed score sheet for one user
type UserPoints struct {
	UserID      string `json:"user_id"`
	TotalPoints int    `json:"total_points"`
	Level       int    `json:"level"`
	BadgeCount  int    `json:"badge_count"`
}

// LeaderboardEntry is one row of the tenant leaderboard
type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	TotalPoints int    `json:"total_points"`
	Level       int    `json:"level"`
	BadgeCount  int    `json:"badge_count"`
}

// GetAllBadges lists the badge catalogue for a tenant
func (s *GamificationService) GetAllBadges(tenantID string) ([]models.Badge, error) {
	var badges []models.Badge
	if err := s.db.Where("tenant_id = ?", tenantID).
		Order("category ASC, points ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	return badges, nil
}

// GetUserBadges lists the badges a user has earned, newest first
func (s *GamificationService) GetUserBadges(userID string) ([]models.UserBadge, error) {
	var awards []models.UserBadge
	if err := s.db.Preload("Badge").Where("user_id = ?", userID).
		Order("earned_at DESC").Find(&awards).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user badges: %w", err)
	}
	return awards, nil
}

// AwardBadge grants a badge by slug. Idempotent: awarding a badge the user
// already holds is a no-op and returns the existing award.
func (s *GamificationService) AwardBadge(tenantID, userID, slug string) (*models.UserBadge, error) {
	var badge models.Badge
	if err := s.db.Where("tenant_id = ? AND slug = ?", tenantID, slug).First(&badge).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: badge %s", ErrNotFound, slug)
		}
		return nil, err
	}

	var existing models.UserBadge
	err := s.db.Where("user_id = ? AND badge_id = ?", userID, badge.ID).First(&existing).Error
	if err == nil {
		existing.Badge = &badge
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	award := models.UserBadge{
		ID:      uuid.NewString(),
		UserID:  userID,
		BadgeID: badge.ID,
		Badge:   &badge,
	}
	if err := s.db.Create(&award).Error; err != nil {
		// Unique index on (user_id, badge_id) catches the concurrent double
		// award; treat it the same as the fast path above.
		if strings.Contains(err.Error(), "idx_user_badge") || strings.Contains(err.Error(), "UNIQUE") {
			if e := s.db.Where("user_id = ? AND badge_id = ?", userID, badge.ID).First(&existing).Error; e == nil {
				existing.Badge = &badge
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("failed to award badge: %w", err)
	}

	return &award, nil
}

// GetUserPoints sums the points of every badge the user holds
func (s *GamificationService) GetUserPoints(userID string) (*UserPoints, error) {
	type row struct {
		Total int64
		Count int64
	}
	var r row
	err := s.db.Model(&models.UserBadge{}).
		Select("COALESCE(SUM(badges.points), 0) as total, COUNT(*) as count").
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.user_id = ?", userID).
		Scan(&r).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute points: %w", err)
	}

	total := int(r.Total)
	return &UserPoints{
		UserID:      userID,
		TotalPoints: total,
		Level:       total/pointsPerLevel + 1,
		BadgeCount:  int(r.Count),
	}, nil
}

// GetLeaderboard ranks users of a tenant by total badge points
func (s *GamificationService) GetLeaderboard(tenantID string, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	type row struct {
		UserID      string
		Name        string
		Avatar      string
		TotalPoints int64
		BadgeCount  int64
	}
	var rows []row
	err := s.db.Model(&models.UserBadge{}).
		Select("users.id as user_id, users.name, users.avatar, COALESCE(SUM(badges.points), 0) as total_points, COUNT(*) as badge_count").
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Joins("JOIN users ON users.id = user_badges.user_id").
		Where("users.tenant_id = ?", tenantID).
		Group("users.id, users.name, users.avatar").
		Order("total_points DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, LeaderboardEntry{
			UserID:      r.UserID,
			Name:        r.Name,
			Avatar:      r.Avatar,
			TotalPoints: int(r.TotalPoints),
			Level:       int(r.TotalPoints)/pointsPerLevel + 1,
			BadgeCount:  int(r.BadgeCount),
		})
	}
	return entries, nil
}

// SeedDefaultBadges creates the built-in badge set for a tenant if missing
func (s *GamificationService) SeedDefaultBadges(tenantID string) error {
	defaults := []models.Badge{
		{Slug: "benvenuto", Name: "Benvenuto", Description: "Iscrizione completata", Points: 10, Category: "community"},
		{Slug: "prima-proposta", Name: "Prima proposta", Description: "Prima proposta pubblicata in agorà", Points: 25, Category: "agora"},
		{Slug: "voce-del-quartiere", Name: "Voce del quartiere", Description: "10 proposte pubblicate", Points: 50, Category: "agora"},
		{Slug: "elettore", Name: "Elettore", Description: "Primo voto espresso", Points: 10, Category: "agora"},
		{Slug: "elettore-assiduo", Name: "Elettore assiduo", Description: "50 voti espressi", Points: 30, Category: "agora"},
		{Slug: "primo-annuncio", Name: "Primo annuncio", Description: "Primo oggetto nel mercatino", Points: 15, Category: "mercatino"},
		{Slug: "venditore", Name: "Venditore", Description: "Primo oggetto venduto", Points: 25, Category: "mercatino"},
		{Slug: "partecipante", Name: "Partecipante", Description: "Prima partecipazione a un evento", Points: 15, Category: "eventi"},
		{Slug: "conversatore", Name: "Conversatore", Description: "10 messaggi nel forum", Points: 20, Category: "forum"},
	}

	for _, b := range defaults {
		var existing models.Badge
		err := s.db.Where("tenant_id = ? AND slug = ?", tenantID, b.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		b.ID = uuid.NewString()
		b.TenantID = tenantID
		if err := s.db.Create(&b).Error; err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", b.Slug, err)
		}
	}
	return nil
}
