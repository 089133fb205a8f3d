package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/database"
	"github.com/noah-isme/vincula-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
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

func seedResearcher(t *testing.T, db *gorm.DB, userID uint, name string) models.ProfileRef {
	t.Helper()
	row := models.InternalResearcher{UserID: userID, FullName: name}
	require.NoError(t, db.Create(&row).Error)
	return row.Ref()
}

func seedParticipant(t *testing.T, db *gorm.DB, userID uint, name string) models.ProfileRef {
	t.Helper()
	row := models.ExternalParticipant{UserID: userID, FullName: name, Organization: "Org " + name}
	require.NoError(t, db.Create(&row).Error)
	return row.Ref()
}

func seedKeywords(t *testing.T, db *gorm.DB, words ...string) []models.Keyword {
	t.Helper()
	keywords, err := NewCatalogRepository(db).ResolveKeywords(context.Background(), words)
	require.NoError(t, err)
	return keywords
}
