package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vincula-api/internal/models"
)

func TestCatalogUpdateReplacesKeywordSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()
	researcher := seedResearcher(t, db, 10, "Ana Quispe")

	capability := models.Capability{ResearcherID: researcher.ID, Description: "Telemetry", Keywords: seedKeywords(t, db, "IoT", "agua")}
	require.NoError(t, repo.CreateCapability(ctx, &capability))

	capability.Description = "Soil telemetry"
	capability.Keywords = seedKeywords(t, db, "suelos")
	require.NoError(t, repo.UpdateCapability(ctx, &capability))

	stored, err := repo.FindCapability(ctx, capability.ID)
	require.NoError(t, err)
	require.Equal(t, "Soil telemetry", stored.Description)
	require.Len(t, stored.Keywords, 1)
	require.Equal(t, "suelos", stored.Keywords[0].Word)

	var links int64
	require.NoError(t, db.Table("capability_keywords").Where("capability_id = ?", capability.ID).Count(&links).Error)
	require.Equal(t, int64(1), links)

	keywords, err := repo.ListKeywords(ctx)
	require.NoError(t, err)
	require.Len(t, keywords, 3)
	require.Equal(t, "IoT", keywords[0].Word)
}

func TestCatalogCardsJoinOwnerNames(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()
	researcher := seedResearcher(t, db, 10, "Ana Quispe")
	participant := seedParticipant(t, db, 11, "Luis Mamani")

	capability := models.Capability{ResearcherID: researcher.ID, Description: "Telemetry"}
	challenge := models.Challenge{ParticipantID: participant.ID, Title: "Leaks", Description: "Pipes"}
	require.NoError(t, repo.CreateCapability(ctx, &capability))
	require.NoError(t, repo.CreateChallenge(ctx, &challenge))

	capabilityCards, err := repo.CapabilityCards(ctx, []uint{capability.ID, 999})
	require.NoError(t, err)
	require.Len(t, capabilityCards, 1)
	require.Equal(t, "Ana Quispe", *capabilityCards[capability.ID].ResearcherName)

	challengeCards, err := repo.ChallengeCards(ctx, []uint{challenge.ID})
	require.NoError(t, err)
	card := challengeCards[challenge.ID]
	require.Equal(t, "Leaks", card.Title)
	require.Equal(t, "Luis Mamani", *card.ParticipantName)
	require.Equal(t, "Org Luis Mamani", *card.Organization)

	empty, err := repo.ChallengeCards(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
