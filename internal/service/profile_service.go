package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/repository"
)

// RoleAdmin is the account role allowed to run administrative operations.
const RoleAdmin = "admin"

// Identity is the authenticated caller as resolved by the session boundary.
// Profile is zero for admins.
type Identity struct {
	AccountID uint
	Role      string
	Profile   models.ProfileRef
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(i.Role), RoleAdmin)
}

// ProfileService guarantees every authenticated account owns a profile row.
type ProfileService interface {
	Ensure(ctx context.Context, accountID uint, role string) (models.ProfileRef, error)
}

type profileService struct {
	repo   repository.ProfileRepository
	logger zerolog.Logger
}

// NewProfileService constructs the profile guarantor.
func NewProfileService(repo repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		repo:   repo,
		logger: logger.With().Str("component", "profile_service").Logger(),
	}
}

// Ensure returns the profile owned by the account, creating a placeholder stub when none exists.
func (s *profileService) Ensure(ctx context.Context, accountID uint, role string) (models.ProfileRef, error) {
	if accountID == 0 {
		return models.ProfileRef{}, fmt.Errorf("%w: account id is required", ErrInvalidArgument)
	}

	kind, ok := models.ProfileKindFromRole(role)
	if !ok {
		return models.ProfileRef{}, fmt.Errorf("%w: role %q has no profile", ErrForbidden, role)
	}

	switch kind {
	case models.ProfileKindInternal:
		researcher, created, err := s.repo.EnsureResearcher(ctx, models.InternalResearcher{
			UserID:       accountID,
			FullName:     models.PlaceholderProfileName,
			Position:     models.PlaceholderProfileText,
			AcademicUnit: models.PlaceholderProfileText,
		})
		if err != nil {
			return models.ProfileRef{}, err
		}
		if created {
			s.logger.Info().Uint("account_id", accountID).Uint("profile_id", researcher.ID).Msg("provisioned researcher profile")
		}
		return researcher.Ref(), nil
	default:
		participant, created, err := s.repo.EnsureParticipant(ctx, models.ExternalParticipant{
			UserID:       accountID,
			FullName:     models.PlaceholderProfileName,
			Organization: models.PlaceholderProfileText,
		})
		if err != nil {
			return models.ProfileRef{}, err
		}
		if created {
			s.logger.Info().Uint("account_id", accountID).Uint("profile_id", participant.ID).Msg("provisioned participant profile")
		}
		return participant.Ref(), nil
	}
}
