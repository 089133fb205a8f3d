package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/service"
	"github.com/noah-isme/vincula-api/internal/utils"
)

// ChatHandler exposes chat and messaging endpoints.
type ChatHandler struct {
	service   service.ChatService
	sendLimit fiber.Handler
	logger    zerolog.Logger
}

// NewChatHandler constructs the handler. sendLimit may be nil.
func NewChatHandler(service service.ChatService, sendLimit fiber.Handler, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:   service,
		sendLimit: sendLimit,
		logger:    logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register attaches chat routes to the router group.
func (h *ChatHandler) Register(router fiber.Router) {
	guard := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: middleware.AuthRoleProfile})
	}

	router.Get("", guard(h.list))
	router.Get("/unread/count", guard(h.countUnread))
	router.Post("/from-request/:id", guard(h.fromRequest))
	router.Get("/:id/messages", guard(h.messages))
	if h.sendLimit != nil {
		router.Post("/:id/messages", h.sendLimit, guard(h.send))
	} else {
		router.Post("/:id/messages", guard(h.send))
	}
	router.Post("/:id/read", guard(h.markRead))
}

func (h *ChatHandler) list(c *fiber.Ctx) error {
	chats, err := h.service.ListChats(withRequestContext(c), identityFromContext(c).Profile)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list chats")
	}
	return utils.SendSuccess(c, "chats", chats)
}

func (h *ChatHandler) countUnread(c *fiber.Ctx) error {
	total := h.service.CountUnread(withRequestContext(c), identityFromContext(c).Profile)
	return utils.SendSuccess(c, "unread messages", dto.CountResponse{Total: total})
}

func (h *ChatHandler) fromRequest(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ProvisionForParticipant(withRequestContext(c), id, identityFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to provision chat")
	}
	return utils.SendSuccess(c, "chat ready", response)
}

// messages returns the conversation and marks what the caller received as read.
func (h *ChatHandler) messages(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := withRequestContext(c)
	caller := identityFromContext(c).Profile
	messages, err := h.service.ListMessages(ctx, id, caller)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list messages")
	}

	if _, err := h.service.MarkRead(ctx, id, caller); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("chat_id", id).Msg("failed to mark messages read")
	}
	return utils.SendSuccess(c, "messages", messages)
}

func (h *ChatHandler) send(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MessageSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SendMessage(withRequestContext(c), id, identityFromContext(c).Profile, payload.Content)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to send message")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", response)
}

func (h *ChatHandler) markRead(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	updated, err := h.service.MarkRead(withRequestContext(c), id, identityFromContext(c).Profile)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to mark messages read")
	}
	return utils.SendSuccess(c, "messages marked read", dto.CountResponse{Total: updated})
}
