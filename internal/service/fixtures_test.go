package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/database"
	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// newTestDB opens an isolated in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixtures struct {
	t  *testing.T
	db *gorm.DB
}

func newFixtures(t *testing.T, db *gorm.DB) *fixtures {
	return &fixtures{t: t, db: db}
}

func (f *fixtures) researcher(name string) models.ProfileRef {
	f.t.Helper()
	row := models.InternalResearcher{UserID: nextAccount(), FullName: name}
	require.NoError(f.t, f.db.Create(&row).Error)
	return row.Ref()
}

func (f *fixtures) participant(name, organization string) models.ProfileRef {
	f.t.Helper()
	row := models.ExternalParticipant{UserID: nextAccount(), FullName: name, Organization: organization}
	require.NoError(f.t, f.db.Create(&row).Error)
	return row.Ref()
}

func (f *fixtures) keywords(words ...string) []models.Keyword {
	f.t.Helper()
	repo := repository.NewCatalogRepository(f.db)
	keywords, err := repo.ResolveKeywords(context.Background(), words)
	require.NoError(f.t, err)
	return keywords
}

func (f *fixtures) capability(owner models.ProfileRef, description string, words ...string) uint {
	f.t.Helper()
	row := models.Capability{ResearcherID: owner.ID, Description: description, Keywords: f.keywords(words...)}
	require.NoError(f.t, f.db.Create(&row).Error)
	return row.ID
}

func (f *fixtures) challenge(owner models.ProfileRef, title string, words ...string) uint {
	f.t.Helper()
	row := models.Challenge{ParticipantID: owner.ID, Title: title, Description: title + " description", Keywords: f.keywords(words...)}
	require.NoError(f.t, f.db.Create(&row).Error)
	return row.ID
}

func (f *fixtures) request(sender, recipient models.ProfileRef, kind models.MatchKind, matchID uint, status models.RequestStatus) uint {
	f.t.Helper()
	row := models.CollaborationRequest{
		SenderKind:    sender.Kind,
		SenderID:      sender.ID,
		RecipientKind: recipient.Kind,
		RecipientID:   recipient.ID,
		MatchKind:     kind,
		MatchID:       matchID,
		Status:        status,
	}
	require.NoError(f.t, repository.NewRequestRepository(f.db).Create(context.Background(), &row))
	return row.ID
}

var accountSeq uint

func nextAccount() uint {
	accountSeq++
	return accountSeq * 100
}

func identityOf(profile models.ProfileRef) Identity {
	return Identity{AccountID: profile.ID + 1000, Role: string(profile.Kind), Profile: profile}
}

func adminIdentity() Identity {
	return Identity{AccountID: 1, Role: RoleAdmin}
}
