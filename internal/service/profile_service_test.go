package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/repository"
)

func TestEnsureProvisionsStubOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(repository.NewProfileRepository(db), testLogger())
	ctx := context.Background()

	first, err := svc.Ensure(ctx, 501, "unsa")
	require.NoError(t, err)
	require.Equal(t, models.ProfileKindInternal, first.Kind)
	require.NotZero(t, first.ID)

	second, err := svc.Ensure(ctx, 501, "UNSA")
	require.NoError(t, err)
	require.Equal(t, first, second)

	var researcher models.InternalResearcher
	require.NoError(t, db.First(&researcher, first.ID).Error)
	require.Equal(t, models.PlaceholderProfileName, researcher.FullName)

	participant, err := svc.Ensure(ctx, 502, "externo")
	require.NoError(t, err)
	require.Equal(t, models.ProfileKindExternal, participant.Kind)

	var count int64
	require.NoError(t, db.Model(&models.InternalResearcher{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEnsureKeepsExistingProfile(t *testing.T) {
	db := newTestDB(t)
	existing := models.ExternalParticipant{UserID: 77, FullName: "Luis Mamani", Organization: "Agua Arequipa"}
	require.NoError(t, db.Create(&existing).Error)

	svc := NewProfileService(repository.NewProfileRepository(db), testLogger())
	ref, err := svc.Ensure(context.Background(), 77, "externo")
	require.NoError(t, err)
	require.Equal(t, existing.Ref(), ref)

	var stored models.ExternalParticipant
	require.NoError(t, db.First(&stored, existing.ID).Error)
	require.Equal(t, "Luis Mamani", stored.FullName)
}

func TestEnsureRejectsAccountsWithoutProfiles(t *testing.T) {
	svc := NewProfileService(repository.NewProfileRepository(newTestDB(t)), testLogger())
	ctx := context.Background()

	_, err := svc.Ensure(ctx, 1, RoleAdmin)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Ensure(ctx, 0, "unsa")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
