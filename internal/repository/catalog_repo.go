package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/vincula-api/internal/models"
)

// CapabilityCard is the display data of a capability surfaced as a match.
type CapabilityCard struct {
	ID             uint
	Description    string
	ResearcherID   uint
	ResearcherName *string
}

// ChallengeCard is the display data of a challenge surfaced as a match.
type ChallengeCard struct {
	ID              uint
	Title           string
	Description     *string
	ParticipantID   uint
	ParticipantName *string
	Organization    *string
}

// CatalogRepository persists capabilities, challenges and their keywords.
type CatalogRepository interface {
	ResolveKeywords(ctx context.Context, words []string) ([]models.Keyword, error)
	ListKeywords(ctx context.Context) ([]models.Keyword, error)

	CreateCapability(ctx context.Context, capability *models.Capability) error
	UpdateCapability(ctx context.Context, capability *models.Capability) error
	FindCapability(ctx context.Context, id uint) (models.Capability, error)
	ListCapabilitiesByResearcher(ctx context.Context, researcherID uint) ([]models.Capability, error)

	CreateChallenge(ctx context.Context, challenge *models.Challenge) error
	UpdateChallenge(ctx context.Context, challenge *models.Challenge) error
	FindChallenge(ctx context.Context, id uint) (models.Challenge, error)
	ListChallengesByParticipant(ctx context.Context, participantID uint) ([]models.Challenge, error)

	CapabilityCards(ctx context.Context, ids []uint) (map[uint]CapabilityCard, error)
	ChallengeCards(ctx context.Context, ids []uint) (map[uint]ChallengeCard, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository constructs a catalog repository backed by GORM.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// ResolveKeywords maps words onto keyword rows, matching case-insensitively and creating
// the missing ones. Callers are expected to pass de-duplicated, trimmed words.
func (r *catalogRepository) ResolveKeywords(ctx context.Context, words []string) ([]models.Keyword, error) {
	db := r.db.WithContext(ctx)
	out := make([]models.Keyword, 0, len(words))

	for _, word := range words {
		keyword, err := findKeyword(db, word)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			candidate := models.Keyword{Word: word}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
				return nil, err
			}
			keyword, err = findKeyword(db, word)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, keyword)
	}

	return out, nil
}

func findKeyword(db *gorm.DB, word string) (models.Keyword, error) {
	var keyword models.Keyword
	err := db.Where("LOWER(word) = ?", strings.ToLower(word)).Order("id ASC").First(&keyword).Error
	return keyword, err
}

func (r *catalogRepository) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	var keywords []models.Keyword
	if err := r.db.WithContext(ctx).Order("word ASC").Find(&keywords).Error; err != nil {
		return nil, err
	}
	return keywords, nil
}

func (r *catalogRepository) CreateCapability(ctx context.Context, capability *models.Capability) error {
	return r.db.WithContext(ctx).Create(capability).Error
}

// UpdateCapability saves scalar fields and replaces the keyword set in one transaction.
func (r *catalogRepository) UpdateCapability(ctx context.Context, capability *models.Capability) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(capability).Error; err != nil {
			return err
		}
		return tx.Model(capability).Association("Keywords").Replace(capability.Keywords)
	})
}

func (r *catalogRepository) FindCapability(ctx context.Context, id uint) (models.Capability, error) {
	var capability models.Capability
	if err := r.db.WithContext(ctx).Preload("Keywords").First(&capability, id).Error; err != nil {
		return models.Capability{}, err
	}
	return capability, nil
}

func (r *catalogRepository) ListCapabilitiesByResearcher(ctx context.Context, researcherID uint) ([]models.Capability, error) {
	var capabilities []models.Capability
	err := r.db.WithContext(ctx).
		Preload("Keywords").
		Where("researcher_id = ?", researcherID).
		Order("created_at DESC, id DESC").
		Find(&capabilities).Error
	if err != nil {
		return nil, err
	}
	return capabilities, nil
}

func (r *catalogRepository) CreateChallenge(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

// UpdateChallenge saves scalar fields and replaces the keyword set in one transaction.
func (r *catalogRepository) UpdateChallenge(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(challenge).Error; err != nil {
			return err
		}
		return tx.Model(challenge).Association("Keywords").Replace(challenge.Keywords)
	})
}

func (r *catalogRepository) FindChallenge(ctx context.Context, id uint) (models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).Preload("Keywords").First(&challenge, id).Error; err != nil {
		return models.Challenge{}, err
	}
	return challenge, nil
}

func (r *catalogRepository) ListChallengesByParticipant(ctx context.Context, participantID uint) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.db.WithContext(ctx).
		Preload("Keywords").
		Where("participant_id = ?", participantID).
		Order("created_at DESC, id DESC").
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

func (r *catalogRepository) CapabilityCards(ctx context.Context, ids []uint) (map[uint]CapabilityCard, error) {
	out := make(map[uint]CapabilityCard, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []CapabilityCard
	err := r.db.WithContext(ctx).Raw(`
SELECT c.id AS id, c.description AS description, c.researcher_id AS researcher_id, ir.full_name AS researcher_name
FROM capabilities c
LEFT JOIN internal_researchers ir ON ir.id = c.researcher_id
WHERE c.id IN ?`, ids).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *catalogRepository) ChallengeCards(ctx context.Context, ids []uint) (map[uint]ChallengeCard, error) {
	out := make(map[uint]ChallengeCard, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []ChallengeCard
	err := r.db.WithContext(ctx).Raw(`
SELECT ch.id AS id, ch.title AS title, ch.description AS description, ch.participant_id AS participant_id,
       ep.full_name AS participant_name, ep.organization AS organization
FROM challenges ch
LEFT JOIN external_participants ep ON ep.id = ch.participant_id
WHERE ch.id IN ?`, ids).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
