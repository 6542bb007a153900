package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prato-rinaldo/internal/database"
	"prato-rinaldo/internal/models"
)

const testTenant = "tenant-test"

// newTestDB opens a fresh in-memory database per test. The shared-cache
// name is derived from the test name so parallel tests do not collide.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func makeUser(t *testing.T, db *gorm.DB, name string, verified bool) *models.User {
	t.Helper()

	status := models.VerificationPending
	if verified {
		status = models.VerificationApproved
	}
	user := &models.User{
		ID:                 uuid.NewString(),
		TenantID:           testTenant,
		Name:               name,
		Email:              fmt.Sprintf("%s@example.test", uuid.NewString()),
		PasswordHash:       "x",
		Role:               "user",
		VerificationStatus: status,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func makeAdmin(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := makeUser(t, db, name, true)
	if err := db.Model(user).Update("role", "admin").Error; err != nil {
		t.Fatalf("failed to promote user: %v", err)
	}
	user.Role = "admin"
	return user
}

func makeCategory(t *testing.T, db *gorm.DB, name string) *models.ProposalCategory {
	t.Helper()

	category := &models.ProposalCategory{
		ID:       uuid.NewString(),
		TenantID: testTenant,
		Name:     name,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return category
}

func makeProposal(t *testing.T, db *gorm.DB, author *models.User, category *models.ProposalCategory, title string) *models.Proposal {
	t.Helper()

	proposal := &models.Proposal{
		ID:          uuid.NewString(),
		TenantID:    testTenant,
		CategoryID:  category.ID,
		AuthorID:    author.ID,
		Title:       title,
		Description: "Una descrizione abbastanza lunga da superare il controllo di validazione minimo.",
		Status:      models.ProposalStatusProposed,
	}
	if err := db.Create(proposal).Error; err != nil {
		t.Fatalf("failed to create proposal: %v", err)
	}
	return proposal
}

func makeBadge(t *testing.T, db *gorm.DB, slug string, points int) *models.Badge {
	t.Helper()

	badge := &models.Badge{
		ID:       uuid.NewString(),
		TenantID: testTenant,
		Slug:     slug,
		Name:     slug,
		Points:   points,
	}
	if err := db.Create(badge).Error; err != nil {
		t.Fatalf("failed to create badge: %v", err)
	}
	return badge
}
