package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/service"
	"github.com/noah-isme/vincula-api/internal/utils"
)

// CatalogHandler exposes capability, challenge and keyword endpoints.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// RegisterCapabilities attaches capability routes to the router group.
func (h *CatalogHandler) RegisterCapabilities(router fiber.Router) {
	owner := middleware.AuthOptions{Role: middleware.AuthRoleInternal}
	router.Post("", middleware.WithAuth(h.createCapability, owner))
	router.Get("", middleware.WithAuth(h.listCapabilities, owner))
	router.Get("/:id", middleware.WithAuth(h.getCapability, middleware.AuthOptions{RequireUser: true}))
	router.Put("/:id", middleware.WithAuth(h.updateCapability, owner))
}

// RegisterChallenges attaches challenge routes to the router group.
func (h *CatalogHandler) RegisterChallenges(router fiber.Router) {
	owner := middleware.AuthOptions{Role: middleware.AuthRoleExternal}
	router.Post("", middleware.WithAuth(h.createChallenge, owner))
	router.Get("", middleware.WithAuth(h.listChallenges, owner))
	router.Get("/:id", middleware.WithAuth(h.getChallenge, middleware.AuthOptions{RequireUser: true}))
	router.Put("/:id", middleware.WithAuth(h.updateChallenge, owner))
}

// RegisterKeywords attaches keyword routes to the router group.
func (h *CatalogHandler) RegisterKeywords(router fiber.Router) {
	router.Get("", middleware.WithAuth(h.listKeywords, middleware.AuthOptions{RequireUser: true}))
}

func (h *CatalogHandler) createCapability(c *fiber.Ctx) error {
	var payload dto.CapabilityUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.CreateCapability(withRequestContext(c), identityFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create capability")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "capability created", response)
}

func (h *CatalogHandler) updateCapability(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CapabilityUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.UpdateCapability(withRequestContext(c), identityFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update capability")
	}
	return utils.SendSuccess(c, "capability updated", response)
}

func (h *CatalogHandler) getCapability(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.GetCapability(withRequestContext(c), identityFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load capability")
	}
	return utils.SendSuccess(c, "capability", response)
}

func (h *CatalogHandler) listCapabilities(c *fiber.Ctx) error {
	items, err := h.service.ListMyCapabilities(withRequestContext(c), identityFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list capabilities")
	}
	return utils.SendSuccess(c, "capabilities", items)
}

func (h *CatalogHandler) createChallenge(c *fiber.Ctx) error {
	var payload dto.ChallengeUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.CreateChallenge(withRequestContext(c), identityFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create challenge")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "challenge created", response)
}

func (h *CatalogHandler) updateChallenge(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ChallengeUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.UpdateChallenge(withRequestContext(c), identityFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update challenge")
	}
	return utils.SendSuccess(c, "challenge updated", response)
}

func (h *CatalogHandler) getChallenge(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.GetChallenge(withRequestContext(c), identityFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load challenge")
	}
	return utils.SendSuccess(c, "challenge", response)
}

func (h *CatalogHandler) listChallenges(c *fiber.Ctx) error {
	items, err := h.service.ListMyChallenges(withRequestContext(c), identityFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list challenges")
	}
	return utils.SendSuccess(c, "challenges", items)
}

func (h *CatalogHandler) listKeywords(c *fiber.Ctx) error {
	items, err := h.service.ListKeywords(withRequestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list keywords")
	}
	return utils.SendSuccess(c, "keywords", items)
}
