package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/vincula-api/internal/models"
)

// MatchingStateRepository reads and writes the singleton matching switch.
type MatchingStateRepository interface {
	Get(ctx context.Context) (models.MatchingState, error)
	Set(ctx context.Context, active bool, at time.Time) (models.MatchingState, error)
}

type matchingStateRepository struct {
	db *gorm.DB
}

// NewMatchingStateRepository constructs the matching state repository.
func NewMatchingStateRepository(db *gorm.DB) MatchingStateRepository {
	return &matchingStateRepository{db: db}
}

// Get returns the singleton, creating it inactive when it does not exist yet.
func (r *matchingStateRepository) Get(ctx context.Context) (models.MatchingState, error) {
	db := r.db.WithContext(ctx)

	var state models.MatchingState
	err := db.First(&state, models.MatchingStateID).Error
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.MatchingState{}, err
	}

	if err := ensureMatchingState(db); err != nil {
		return models.MatchingState{}, err
	}
	if err := db.First(&state, models.MatchingStateID).Error; err != nil {
		return models.MatchingState{}, err
	}
	return state, nil
}

// Set upserts the singleton. The activation timestamp only moves when switching on.
func (r *matchingStateRepository) Set(ctx context.Context, active bool, at time.Time) (models.MatchingState, error) {
	var state models.MatchingState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMatchingState(tx); err != nil {
			return err
		}

		updates := map[string]interface{}{"active": active}
		if active {
			updates["activated_at"] = at
		}
		if err := tx.Model(&models.MatchingState{ID: models.MatchingStateID}).Updates(updates).Error; err != nil {
			return err
		}

		return tx.First(&state, models.MatchingStateID).Error
	})
	if err != nil {
		return models.MatchingState{}, err
	}
	return state, nil
}

func ensureMatchingState(db *gorm.DB) error {
	seed := models.MatchingState{ID: models.MatchingStateID, Active: false}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error
}
