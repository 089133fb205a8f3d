package repository

import (
	"context"

	"gorm.io/gorm"
)

// KeywordOverlap is one keyword shared by a capability and a challenge.
type KeywordOverlap struct {
	CapabilityID uint
	ChallengeID  uint
	KeywordID    uint
	Word         string
}

// KeywordIndexRepository reads the capability/challenge keyword junction tables.
type KeywordIndexRepository interface {
	OverlapsForChallenge(ctx context.Context, challengeID uint) ([]KeywordOverlap, error)
	OverlapsForCapability(ctx context.Context, capabilityID uint) ([]KeywordOverlap, error)
	OverlapsForResearcher(ctx context.Context, researcherID uint) ([]KeywordOverlap, error)
	OverlapsForParticipant(ctx context.Context, participantID uint) ([]KeywordOverlap, error)
}

type keywordIndexRepository struct {
	db *gorm.DB
}

// NewKeywordIndexRepository constructs the overlap index backed by GORM.
func NewKeywordIndexRepository(db *gorm.DB) KeywordIndexRepository {
	return &keywordIndexRepository{db: db}
}

const overlapSelect = `
SELECT ck.capability_id AS capability_id,
       hk.challenge_id AS challenge_id,
       k.id AS keyword_id,
       k.word AS word
FROM challenge_keywords hk
JOIN capability_keywords ck ON ck.keyword_id = hk.keyword_id
JOIN keywords k ON k.id = hk.keyword_id`

func (r *keywordIndexRepository) OverlapsForChallenge(ctx context.Context, challengeID uint) ([]KeywordOverlap, error) {
	return r.scan(ctx, overlapSelect+` WHERE hk.challenge_id = ?`, challengeID)
}

func (r *keywordIndexRepository) OverlapsForCapability(ctx context.Context, capabilityID uint) ([]KeywordOverlap, error) {
	return r.scan(ctx, overlapSelect+` WHERE ck.capability_id = ?`, capabilityID)
}

func (r *keywordIndexRepository) OverlapsForResearcher(ctx context.Context, researcherID uint) ([]KeywordOverlap, error) {
	query := overlapSelect + `
JOIN capabilities c ON c.id = ck.capability_id
WHERE c.researcher_id = ?`
	return r.scan(ctx, query, researcherID)
}

func (r *keywordIndexRepository) OverlapsForParticipant(ctx context.Context, participantID uint) ([]KeywordOverlap, error) {
	query := overlapSelect + `
JOIN challenges ch ON ch.id = hk.challenge_id
WHERE ch.participant_id = ?`
	return r.scan(ctx, query, participantID)
}

func (r *keywordIndexRepository) scan(ctx context.Context, query string, args ...interface{}) ([]KeywordOverlap, error) {
	var rows []KeywordOverlap
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
