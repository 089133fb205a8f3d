package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/models"
)

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.InternalResearcher{},
		&models.ExternalParticipant{},
		&models.Keyword{},
		&models.Capability{},
		&models.Challenge{},
		&models.MatchingState{},
		&models.CollaborationRequest{},
		&models.Chat{},
		&models.Message{},
		&models.ActivityLog{},
	)
}
