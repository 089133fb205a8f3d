package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/service"
	"github.com/noah-isme/vincula-api/internal/utils"
)

// RequestHandler exposes collaboration request endpoints.
type RequestHandler struct {
	service     service.RequestService
	createLimit fiber.Handler
	logger      zerolog.Logger
}

// NewRequestHandler constructs the handler. createLimit may be nil.
func NewRequestHandler(service service.RequestService, createLimit fiber.Handler, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		service:     service,
		createLimit: createLimit,
		logger:      logger.With().Str("component", "request_handler").Logger(),
	}
}

// Register attaches request routes to the router group.
func (h *RequestHandler) Register(router fiber.Router) {
	guard := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: middleware.AuthRoleProfile})
	}

	if h.createLimit != nil {
		router.Post("", h.createLimit, guard(h.create))
	} else {
		router.Post("", guard(h.create))
	}
	router.Get("/sent", guard(h.listSent))
	router.Get("/received", guard(h.listReceived))
	router.Get("/pending/count", guard(h.countPending))
	router.Get("/match-status", guard(h.matchStatus))
	router.Patch("/:id/respond", guard(h.respond))
}

func (h *RequestHandler) create(c *fiber.Ctx) error {
	var payload dto.RequestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Create(withRequestContext(c), identityFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create request")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "request created", response)
}

func (h *RequestHandler) listSent(c *fiber.Ctx) error {
	items, err := h.service.ListSent(withRequestContext(c), identityFromContext(c).Profile)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list sent requests")
	}
	return utils.SendSuccess(c, "sent requests", items)
}

func (h *RequestHandler) listReceived(c *fiber.Ctx) error {
	items, err := h.service.ListReceived(withRequestContext(c), identityFromContext(c).Profile)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list received requests")
	}
	return utils.SendSuccess(c, "received requests", items)
}

func (h *RequestHandler) countPending(c *fiber.Ctx) error {
	total := h.service.CountPendingReceived(withRequestContext(c), identityFromContext(c).Profile)
	return utils.SendSuccess(c, "pending requests", dto.CountResponse{Total: total})
}

func (h *RequestHandler) matchStatus(c *fiber.Ctx) error {
	var query dto.RequestMatchStatusQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	other := models.ProfileRef{Kind: models.ProfileKind(query.OtherKind), ID: query.OtherID}
	response, err := h.service.DescribeForMatch(
		withRequestContext(c),
		identityFromContext(c).Profile,
		other,
		models.MatchKind(query.MatchKind),
		query.MatchID,
	)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to describe request")
	}
	return utils.SendSuccess(c, "request status", response)
}

func (h *RequestHandler) respond(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RequestRespondRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Respond(withRequestContext(c), identityFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to respond to request")
	}
	return utils.SendSuccess(c, "request resolved", response)
}
