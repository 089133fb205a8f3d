package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/vincula-api/internal/models"
)

// ProfileRepository looks up and provisions researcher and participant profiles.
type ProfileRepository interface {
	EnsureResearcher(ctx context.Context, stub models.InternalResearcher) (models.InternalResearcher, bool, error)
	EnsureParticipant(ctx context.Context, stub models.ExternalParticipant) (models.ExternalParticipant, bool, error)
	FindResearcher(ctx context.Context, id uint) (models.InternalResearcher, error)
	FindParticipant(ctx context.Context, id uint) (models.ExternalParticipant, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs a profile repository backed by GORM.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// EnsureResearcher returns the researcher owned by stub.UserID, inserting stub when none exists.
// The boolean reports whether a row was created.
func (r *profileRepository) EnsureResearcher(ctx context.Context, stub models.InternalResearcher) (models.InternalResearcher, bool, error) {
	db := r.db.WithContext(ctx)

	var existing models.InternalResearcher
	result := db.Where("user_id = ?", stub.UserID).Limit(1).Find(&existing)
	if result.Error != nil {
		return models.InternalResearcher{}, false, result.Error
	}
	if result.RowsAffected > 0 {
		return existing, false, nil
	}

	insert := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).Create(&stub)
	if insert.Error != nil {
		return models.InternalResearcher{}, false, insert.Error
	}
	if err := db.Where("user_id = ?", stub.UserID).First(&existing).Error; err != nil {
		return models.InternalResearcher{}, false, err
	}
	return existing, insert.RowsAffected > 0, nil
}

// EnsureParticipant returns the participant owned by stub.UserID, inserting stub when none exists.
func (r *profileRepository) EnsureParticipant(ctx context.Context, stub models.ExternalParticipant) (models.ExternalParticipant, bool, error) {
	db := r.db.WithContext(ctx)

	var existing models.ExternalParticipant
	result := db.Where("user_id = ?", stub.UserID).Limit(1).Find(&existing)
	if result.Error != nil {
		return models.ExternalParticipant{}, false, result.Error
	}
	if result.RowsAffected > 0 {
		return existing, false, nil
	}

	insert := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).Create(&stub)
	if insert.Error != nil {
		return models.ExternalParticipant{}, false, insert.Error
	}
	if err := db.Where("user_id = ?", stub.UserID).First(&existing).Error; err != nil {
		return models.ExternalParticipant{}, false, err
	}
	return existing, insert.RowsAffected > 0, nil
}

func (r *profileRepository) FindResearcher(ctx context.Context, id uint) (models.InternalResearcher, error) {
	var researcher models.InternalResearcher
	if err := r.db.WithContext(ctx).First(&researcher, id).Error; err != nil {
		return models.InternalResearcher{}, err
	}
	return researcher, nil
}

func (r *profileRepository) FindParticipant(ctx context.Context, id uint) (models.ExternalParticipant, error) {
	var participant models.ExternalParticipant
	if err := r.db.WithContext(ctx).First(&participant, id).Error; err != nil {
		return models.ExternalParticipant{}, err
	}
	return participant, nil
}
