package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/utils"
)

// ProfileEnsurer returns the profile owned by an account, provisioning it when missing.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, accountID uint, role string) (models.ProfileRef, error)
}

// ResolveProfile binds the caller's profile to the request locals. It must run after
// JWTProtected. Admin accounts carry no profile and pass through untouched.
func ResolveProfile(ensurer ProfileEnsurer, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "profile_middleware").Logger()

	return func(c *fiber.Ctx) error {
		accountID, ok := c.Locals("user_id").(uint)
		if !ok || accountID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		role := callerRole(c)
		if _, hasProfile := models.ProfileKindFromRole(role); !hasProfile {
			return c.Next()
		}

		profile, err := ensurer.Ensure(c.UserContext(), accountID, role)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return utils.Fail(c, fiber.StatusServiceUnavailable, "profile lookup timed out", nil)
			}
			log.Error().Err(err).Uint("account_id", accountID).Str("correlation_id", GetCorrelationID(c)).Msg("failed to resolve profile")
			return utils.Fail(c, fiber.StatusInternalServerError, "failed to resolve profile", nil)
		}

		c.Locals("profile_kind", profile.Kind)
		c.Locals("profile_id", profile.ID)
		return c.Next()
	}
}

// CurrentProfile returns the profile bound by ResolveProfile.
func CurrentProfile(c *fiber.Ctx) (models.ProfileRef, bool) {
	kind, ok := c.Locals("profile_kind").(models.ProfileKind)
	if !ok {
		return models.ProfileRef{}, false
	}
	id, ok := c.Locals("profile_id").(uint)
	if !ok || id == 0 {
		return models.ProfileRef{}, false
	}
	return models.ProfileRef{Kind: kind, ID: id}, true
}
