package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/service"
	"github.com/noah-isme/vincula-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

// parseUintParamValue parses a positive path id. Zero, negatives and non-numbers are rejected.
func parseUintParamValue(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	if value == "" {
		return 0, fmt.Errorf("%s required", key)
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok && id > 0 {
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

// identityFromContext assembles the caller as resolved by the JWT and profile middlewares.
func identityFromContext(c *fiber.Ctx) service.Identity {
	identity := service.Identity{
		AccountID: userIDFromContext(c),
		Role:      userRoleFromContext(c),
	}
	if profile, ok := middleware.CurrentProfile(c); ok {
		identity.Profile = profile
	}
	return identity
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

// sendServiceError maps service sentinels onto HTTP statuses. Unknown errors are logged
// and answered with fallback so storage details never reach the client.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	case errors.Is(err, service.ErrInvalidArgument):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		return utils.Fail(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrConflict):
		return utils.Fail(c, fiber.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidState):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		requestLogger(logger, c).Warn().Err(err).Msg(fallback)
		return utils.Fail(c, fiber.StatusServiceUnavailable, "request timed out", nil)
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.Fail(c, fiber.StatusInternalServerError, fallback, nil)
	}
}
