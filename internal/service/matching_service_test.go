package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/repository"
)

func newMatchingService(db *gorm.DB, cache MatchCache) MatchingService {
	return NewMatchingService(
		repository.NewKeywordIndexRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewMatchingStateRepository(db),
		cache,
		nil,
		MatchingConfig{},
		testLogger(),
	)
}

func activate(t *testing.T, svc MatchingService) {
	t.Helper()
	_, err := svc.SetActive(context.Background(), adminIdentity(), true)
	require.NoError(t, err)
}

func TestMatchesForChallengeRanksByOverlap(t *testing.T) {
	db := newTestDB(t)
	f := newFixtures(t, db)
	researcher := f.researcher("Ana Quispe")
	participant := f.participant("Luis Mamani", "Agua Arequipa")

	p1 := f.capability(researcher, "Sensor networks", "IoT", "sensores")
	p2 := f.capability(researcher, "Water telemetry", "IoT", "agua")
	challenge := f.challenge(participant, "Leak detection", "IoT", "agua")

	svc := newMatchingService(db, nil)
	activate(t, svc)

	matches, err := svc.MatchesForChallenge(context.Background(), challenge)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	require.Equal(t, p2, matches[0].CapabilityID)
	require.Equal(t, 2, matches[0].TotalMatches)
	require.Equal(t, "IoT, agua", matches[0].MatchingKeywords)
	require.Equal(t, "Water telemetry", matches[0].Description)
	require.Equal(t, researcher.ID, matches[0].ResearcherID)
	require.NotNil(t, matches[0].ResearcherName)
	require.Equal(t, "Ana Quispe", *matches[0].ResearcherName)

	require.Equal(t, p1, matches[1].CapabilityID)
	require.Equal(t, 1, matches[1].TotalMatches)
	require.Equal(t, "IoT", matches[1].MatchingKeywords)

	again, err := svc.MatchesForChallenge(context.Background(), challenge)
	require.NoError(t, err)
	require.Equal(t, matches, again)
}

func TestMatchesForCapabilityBreaksTiesByAscendingID(t *testing.T) {
	db := newTestDB(t)
	f := newFixtures(t, db)
	researcher := f.researcher("Ana Quispe")
	participant := f.participant("Luis Mamani", "Agua Arequipa")

	capability := f.capability(researcher, "Remote sensing", "drones", "agricultura")
	first := f.challenge(participant, "Crop monitoring", "drones")
	second := f.challenge(participant, "Field mapping", "agricultura")
	f.challenge(participant, "Unrelated", "finanzas")

	svc := newMatchingService(db, nil)
	activate(t, svc)

	matches, err := svc.MatchesForCapability(context.Background(), capability)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, first, matches[0].ChallengeID)
	require.Equal(t, second, matches[1].ChallengeID)
	require.NotNil(t, matches[0].Organization)
	require.Equal(t, "Agua Arequipa", *matches[0].Organization)
}

func TestMatchingQueriesAreGatedWhenInactive(t *testing.T) {
	db := newTestDB(t)
	f := newFixtures(t, db)
	researcher := f.researcher("Ana Quispe")
	participant := f.participant("Luis Mamani", "Agua Arequipa")
	capability := f.capability(researcher, "Water telemetry", "agua")
	challenge := f.challenge(participant, "Leak detection", "agua")

	svc := newMatchingService(db, nil)
	ctx := context.Background()

	byChallenge, err := svc.MatchesForChallenge(ctx, challenge)
	require.NoError(t, err)
	require.Empty(t, byChallenge)

	byCapability, err := svc.MatchesForCapability(ctx, capability)
	require.NoError(t, err)
	require.Empty(t, byCapability)

	byResearcher, err := svc.MatchesForResearcher(ctx, researcher.ID, 10)
	require.NoError(t, err)
	require.Empty(t, byResearcher)

	byParticipant, err := svc.MatchesForParticipant(ctx, participant.ID, 10)
	require.NoError(t, err)
	require.Empty(t, byParticipant)

	activate(t, svc)
	byChallenge, err = svc.MatchesForChallenge(ctx, challenge)
	require.NoError(t, err)
	require.Len(t, byChallenge, 1)
}

func TestMatchingRejectsNonPositiveIDs(t *testing.T) {
	svc := newMatchingService(newTestDB(t), nil)
	ctx := context.Background()

	_, err := svc.MatchesForChallenge(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.MatchesForCapability(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.MatchesForResearcher(ctx, 0, 5)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.MatchesForParticipant(ctx, 0, 5)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIsActiveLazilyCreatesInactiveState(t *testing.T) {
	db := newTestDB(t)
	svc := newMatchingService(db, nil)

	active, err := svc.IsActive(context.Background())
	require.NoError(t, err)
	require.False(t, active)

	var count int64
	require.NoError(t, db.Model(&models.MatchingState{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSetActiveKeepsLastActivationWhenDisabling(t *testing.T) {
	svc := newMatchingService(newTestDB(t), nil)
	ctx := context.Background()

	on, err := svc.SetActive(ctx, adminIdentity(), true)
	require.NoError(t, err)
	require.True(t, on.Active)
	require.NotNil(t, on.ActivatedAt)

	off, err := svc.SetActive(ctx, adminIdentity(), false)
	require.NoError(t, err)
	require.False(t, off.Active)
	require.NotNil(t, off.ActivatedAt)
	require.WithinDuration(t, *on.ActivatedAt, *off.ActivatedAt, time.Millisecond)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	require.False(t, status.Active)
	require.NotNil(t, status.ActivatedAt)
}

func TestMatchesForResearcherUnionsCapabilitiesAndHonoursLimit(t *testing.T) {
	db := newTestDB(t)
	f := newFixtures(t, db)
	researcher := f.researcher("Ana Quispe")
	participant := f.participant("Luis Mamani", "Agua Arequipa")

	f.capability(researcher, "Water telemetry", "IoT", "agua")
	f.capability(researcher, "Sensor networks", "IoT", "sensores")
	strong := f.challenge(participant, "Smart irrigation", "IoT", "agua", "sensores")
	weak := f.challenge(participant, "Pipe inventory", "agua")

	svc := newMatchingService(db, nil)
	activate(t, svc)

	matches, err := svc.MatchesForResearcher(context.Background(), researcher.ID, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, strong, matches[0].ChallengeID)
	require.Equal(t, 3, matches[0].TotalMatches)
	require.Equal(t, "IoT, agua, sensores", matches[0].MatchingKeywords)
	require.Equal(t, weak, matches[1].ChallengeID)

	limited, err := svc.MatchesForResearcher(context.Background(), researcher.ID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, strong, limited[0].ChallengeID)
}

func TestMyMatchesByRole(t *testing.T) {
	db := newTestDB(t)
	f := newFixtures(t, db)
	researcher := f.researcher("Ana Quispe")
	participant := f.participant("Luis Mamani", "Agua Arequipa")
	capability := f.capability(researcher, "Water telemetry", "agua")
	challenge := f.challenge(participant, "Leak detection", "agua")

	svc := newMatchingService(db, nil)
	activate(t, svc)
	ctx := context.Background()

	mine, err := svc.MyMatches(ctx, identityOf(researcher))
	require.NoError(t, err)
	require.True(t, mine.Active)
	require.Equal(t, "unsa", mine.Kind)
	require.Len(t, mine.Challenges, 1)
	require.Equal(t, challenge, mine.Challenges[0].ChallengeID)

	theirs, err := svc.MyMatches(ctx, identityOf(participant))
	require.NoError(t, err)
	require.Len(t, theirs.Capabilities, 1)
	require.Equal(t, capability, theirs.Capabilities[0].CapabilityID)
	require.Equal(t, researcher.ID, theirs.Capabilities[0].ResearcherID)

	_, err = svc.MyMatches(ctx, adminIdentity())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestProfileMatchesAreCachedUntilCatalogChanges(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db := newTestDB(t)
	f := newFixtures(t, db)
	researcher := f.researcher("Ana Quispe")
	participant := f.participant("Luis Mamani", "Agua Arequipa")
	f.capability(researcher, "Water telemetry", "agua")
	f.challenge(participant, "Leak detection", "agua")

	cache := NewMatchCache(redisClient, "test", time.Minute, testLogger())
	svc := newMatchingService(db, cache)
	catalog := NewCatalogService(repository.NewCatalogRepository(db), cache, testValidator(), testLogger())
	activate(t, svc)
	ctx := context.Background()

	first, err := svc.MatchesForParticipant(ctx, participant.ID, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Rows written behind the service are invisible until the generation moves.
	f.capability(researcher, "Hydraulic modelling", "agua")
	cached, err := svc.MatchesForParticipant(ctx, participant.ID, 10)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	_, err = catalog.CreateCapability(ctx, identityOf(researcher), dto.CapabilityUpsertRequest{
		Description: "Flow simulation",
		Keywords:    []string{"AGUA"},
	})
	require.NoError(t, err)

	fresh, err := svc.MatchesForParticipant(ctx, participant.ID, 10)
	require.NoError(t, err)
	require.Len(t, fresh, 3)
}

func TestToggleIsNeverCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db := newTestDB(t)
	f := newFixtures(t, db)
	researcher := f.researcher("Ana Quispe")
	participant := f.participant("Luis Mamani", "Agua Arequipa")
	f.capability(researcher, "Water telemetry", "agua")
	f.challenge(participant, "Leak detection", "agua")

	svc := newMatchingService(db, NewMatchCache(redisClient, "test", time.Minute, testLogger()))
	activate(t, svc)
	ctx := context.Background()

	matches, err := svc.MatchesForResearcher(ctx, researcher.ID, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	_, err = svc.SetActive(ctx, adminIdentity(), false)
	require.NoError(t, err)

	matches, err = svc.MatchesForResearcher(ctx, researcher.ID, 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestRankOverlapsCountsDistinctKeywords(t *testing.T) {
	rows := []repository.KeywordOverlap{
		{CapabilityID: 1, ChallengeID: 7, KeywordID: 10, Word: "agua"},
		{CapabilityID: 2, ChallengeID: 7, KeywordID: 10, Word: "agua"},
		{CapabilityID: 2, ChallengeID: 7, KeywordID: 11, Word: "IoT"},
		{CapabilityID: 1, ChallengeID: 5, KeywordID: 10, Word: "agua"},
		{CapabilityID: 2, ChallengeID: 3, KeywordID: 11, Word: "IoT"},
	}

	ranked := rankOverlaps(rows, challengeOf)
	require.Len(t, ranked, 3)
	require.Equal(t, uint(7), ranked[0].ID)
	require.Equal(t, 2, ranked[0].Count)
	require.Equal(t, "IoT, agua", ranked[0].Keywords())
	require.Equal(t, uint(3), ranked[1].ID)
	require.Equal(t, uint(5), ranked[2].ID)
}
