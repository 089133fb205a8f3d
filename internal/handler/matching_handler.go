package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/service"
	"github.com/noah-isme/vincula-api/internal/utils"
)

// MatchingHandler exposes the keyword matching endpoints.
type MatchingHandler struct {
	service service.MatchingService
	logger  zerolog.Logger
}

// NewMatchingHandler constructs the handler.
func NewMatchingHandler(service service.MatchingService, logger zerolog.Logger) *MatchingHandler {
	return &MatchingHandler{
		service: service,
		logger:  logger.With().Str("component", "matching_handler").Logger(),
	}
}

// Register attaches matching routes to the router group.
func (h *MatchingHandler) Register(router fiber.Router) {
	profileOnly := middleware.AuthOptions{Role: middleware.AuthRoleProfile}
	adminOnly := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Get("/my-matches", middleware.WithAuth(h.myMatches, profileOnly))
	router.Get("/status", middleware.WithAuth(h.status, adminOnly))
	router.Post("/toggle", middleware.WithAuth(h.toggle, adminOnly))
	router.Get("/challenges/:id", middleware.WithAuth(h.forChallenge, adminOnly))
	router.Get("/capabilities/:id", middleware.WithAuth(h.forCapability, adminOnly))
}

func (h *MatchingHandler) myMatches(c *fiber.Ctx) error {
	response, err := h.service.MyMatches(withRequestContext(c), identityFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load matches")
	}

	message := "matches"
	if !response.Active {
		message = "matching is currently disabled"
	}
	return utils.SendSuccess(c, message, response)
}

func (h *MatchingHandler) status(c *fiber.Ctx) error {
	response, err := h.service.Status(withRequestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load matching status")
	}
	return utils.SendSuccess(c, "matching status", response)
}

func (h *MatchingHandler) toggle(c *fiber.Ctx) error {
	var payload dto.MatchingToggleRequest
	if err := c.BodyParser(&payload); err != nil || payload.Active == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "activo must be a boolean")
	}

	response, err := h.service.SetActive(withRequestContext(c), identityFromContext(c), *payload.Active)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update matching status")
	}
	return utils.SendSuccess(c, "matching status updated", response)
}

func (h *MatchingHandler) forChallenge(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	matches, err := h.service.MatchesForChallenge(withRequestContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to compute matches")
	}
	return utils.SendSuccess(c, "capability matches", matches)
}

func (h *MatchingHandler) forCapability(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	matches, err := h.service.MatchesForCapability(withRequestContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to compute matches")
	}
	return utils.SendSuccess(c, "challenge matches", matches)
}
