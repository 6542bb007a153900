package database

import (
	"fmt"
	"log"

	"prato-rinaldo/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate runs the migrations on the given handle (tests pass sqlite)
func Migrate(db *gorm.DB) error {
	// Core models first
	coreModels := []interface{}{
		&models.Tenant{},
		&models.User{},
	}

	for _, model := range coreModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	// Agora models
	agoraModels := []interface{}{
		&models.ProposalCategory{},
		&models.Proposal{},
		&models.ProposalVote{},
		&models.ProposalComment{},
		&models.ProposalStatusHistory{},
	}

	for _, model := range agoraModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	// Content models
	contentModels := []interface{}{
		&models.Event{},
		&models.EventRsvp{},
		&models.MarketplaceItem{},
		&models.Announcement{},
		&models.ForumCategory{},
		&models.ForumThread{},
		&models.ForumPost{},
		&models.Message{},
	}

	for _, model := range contentModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	// Moderation and gamification models
	adminModels := []interface{}{
		&models.ModerationItem{},
		&models.ModerationActionLog{},
		&models.Badge{},
		&models.UserBadge{},
	}

	for _, model := range adminModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
