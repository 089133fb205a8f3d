package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/observability"
	"github.com/noah-isme/vincula-api/internal/repository"
)

// MaxMessageLength caps the sanitized message content, in characters.
const MaxMessageLength = 4000

// ChatService provisions chats for accepted requests and carries their messages.
type ChatService interface {
	ChatProvisioner
	ProvisionForParticipant(ctx context.Context, requestID uint, caller Identity) (dto.ChatProvisionResponse, error)
	ListChats(ctx context.Context, profile models.ProfileRef) ([]dto.ChatResponse, error)
	ListMessages(ctx context.Context, chatID uint, caller models.ProfileRef) ([]dto.MessageResponse, error)
	SendMessage(ctx context.Context, chatID uint, sender models.ProfileRef, content string) (dto.MessageCreatedResponse, error)
	MarkRead(ctx context.Context, chatID uint, reader models.ProfileRef) (int64, error)
	CountUnread(ctx context.Context, profile models.ProfileRef) int64
}

type chatService struct {
	repo      repository.ChatRepository
	activity  ActivityRecorder
	events    EventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
}

// NewChatService constructs the chat provisioning and messaging service.
func NewChatService(repo repository.ChatRepository, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) ChatService {
	return &chatService{
		repo:      repo,
		activity:  activity,
		events:    publisherOrNoop(events),
		logger:    logger.With().Str("component", "chat_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/vincula-api/internal/service/chat"),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

var errChatRace = errors.New("chat inserted concurrently")

// CreateFromAcceptedRequest returns the chat of an accepted request, creating it on first call.
func (s *chatService) CreateFromAcceptedRequest(ctx context.Context, requestID uint) (uint, error) {
	ctx, span := s.tracer.Start(ctx, "chat.provision", trace.WithAttributes(attribute.Int64("chat.request_id", int64(requestID))))
	defer span.End()

	if requestID == 0 {
		return 0, fmt.Errorf("%w: request id must be a positive integer", ErrInvalidArgument)
	}

	var (
		chat    models.Chat
		created bool
		request models.CollaborationRequest
	)
	err := s.repo.Transaction(ctx, func(tx repository.ChatRepository) error {
		var err error
		request, err = tx.FindRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: request %d", ErrNotFound, requestID)
			}
			return err
		}
		if request.Status != models.RequestStatusAccepted {
			return fmt.Errorf("%w: request %d is %s", ErrInvalidState, requestID, request.Status)
		}

		chat, err = tx.FindByRequest(ctx, requestID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		title, err := tx.MatchTitle(ctx, request.MatchKind, request.MatchID)
		if err != nil {
			return err
		}
		title = strings.TrimSpace(title)
		if title == "" {
			title = models.DefaultChatTitle
		}

		chat = models.Chat{
			RequestID: request.ID,
			User1Kind: request.SenderKind,
			User1ID:   request.SenderID,
			User2Kind: request.RecipientKind,
			User2ID:   request.RecipientID,
			MatchKind: request.MatchKind,
			MatchID:   request.MatchID,
			Title:     truncateRunes(title, 255),
			Active:    true,
		}
		if err := tx.Create(ctx, &chat); err != nil {
			if isDuplicateKey(err) {
				return errChatRace
			}
			return err
		}
		created = true
		return nil
	})

	if errors.Is(err, errChatRace) {
		chat, err = s.repo.FindByRequest(ctx, requestID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provision_failed")
		observability.ChatsProvisioned().WithLabelValues("failed").Inc()
		return 0, err
	}

	if !created {
		observability.ChatsProvisioned().WithLabelValues("existing").Inc()
		return chat.ID, nil
	}

	observability.ChatsProvisioned().WithLabelValues("created").Inc()
	s.logger.Info().Uint("chat_id", chat.ID).Uint("request_id", requestID).Msg("chat provisioned")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      Identity{Role: "system", Profile: request.Recipient()},
		Action:     ActionChatProvisioned,
		EntityType: "chat",
		EntityID:   uintPtr(chat.ID),
		Metadata:   map[string]interface{}{"solicitud_id": requestID},
	})
	s.events.Publish(ctx, EventChatCreated, map[string]interface{}{
		"chat_id":      chat.ID,
		"solicitud_id": requestID,
		"usuario1":     chat.User1(),
		"usuario2":     chat.User2(),
	})

	return chat.ID, nil
}

// ProvisionForParticipant retries provisioning on behalf of one of the request's parties.
func (s *chatService) ProvisionForParticipant(ctx context.Context, requestID uint, caller Identity) (dto.ChatProvisionResponse, error) {
	request, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChatProvisionResponse{}, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
		}
		return dto.ChatProvisionResponse{}, err
	}
	if !request.Involves(caller.Profile) {
		return dto.ChatProvisionResponse{}, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}

	chatID, err := s.CreateFromAcceptedRequest(ctx, requestID)
	if err != nil {
		return dto.ChatProvisionResponse{}, err
	}
	return dto.ChatProvisionResponse{ChatID: chatID}, nil
}

func (s *chatService) ListChats(ctx context.Context, profile models.ProfileRef) ([]dto.ChatResponse, error) {
	rows, err := s.repo.ListForProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ChatResponse, 0, len(rows))
	for _, row := range rows {
		response := dto.NewChatResponse(row.Chat)
		if row.LastMessageAt != nil {
			response.LastActivityAt = *row.LastMessageAt
		}
		unread := row.UnreadMessages
		response.UnreadMessages = &unread
		response.OtherUserName = row.OtherUserName
		out = append(out, response)
	}
	return out, nil
}

func (s *chatService) member(ctx context.Context, chatID uint, profile models.ProfileRef) (models.Chat, error) {
	if chatID == 0 {
		return models.Chat{}, fmt.Errorf("%w: chat id must be a positive integer", ErrInvalidArgument)
	}
	chat, err := s.repo.FindForParticipant(ctx, chatID, profile)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Chat{}, fmt.Errorf("%w: not a participant of chat %d", ErrForbidden, chatID)
		}
		return models.Chat{}, err
	}
	return chat, nil
}

// ListMessages returns the conversation in send order to one of its participants.
func (s *chatService) ListMessages(ctx context.Context, chatID uint, caller models.ProfileRef) ([]dto.MessageResponse, error) {
	if _, err := s.member(ctx, chatID, caller); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageResponse, 0, len(rows))
	for _, row := range rows {
		response := dto.NewMessageResponse(row.Message)
		response.SenderName = row.SenderName
		out = append(out, response)
	}
	return out, nil
}

func (s *chatService) SendMessage(ctx context.Context, chatID uint, sender models.ProfileRef, content string) (dto.MessageCreatedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.Int64("chat.id", int64(chatID)),
		attribute.String("chat.sender", sender.String()),
	))
	defer span.End()

	if _, err := s.member(ctx, chatID, sender); err != nil {
		span.SetStatus(codes.Error, "not_authorised")
		return dto.MessageCreatedResponse{}, err
	}

	// Tags are stripped; the text itself is stored unescaped since clients render it as plain text.
	clean := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(content)))
	if clean == "" {
		return dto.MessageCreatedResponse{}, fmt.Errorf("%w: message content is empty", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(clean) > MaxMessageLength {
		return dto.MessageCreatedResponse{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidArgument, MaxMessageLength)
	}

	message := models.Message{
		ChatID:     chatID,
		SenderKind: sender.Kind,
		SenderID:   sender.ID,
		Content:    clean,
	}
	if err := s.repo.CreateMessage(ctx, &message); err != nil {
		span.RecordError(err)
		return dto.MessageCreatedResponse{}, err
	}

	observability.MessagesSent().Inc()
	s.events.Publish(ctx, EventMessageSent, map[string]interface{}{
		"mensaje_id": message.ID,
		"chat_id":    chatID,
		"remitente":  sender,
	})

	return dto.MessageCreatedResponse{ID: message.ID}, nil
}

// MarkRead flags the messages the reader received as read. Nothing to flag is not an error.
func (s *chatService) MarkRead(ctx context.Context, chatID uint, reader models.ProfileRef) (int64, error) {
	if _, err := s.member(ctx, chatID, reader); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, chatID, reader)
}

// CountUnread feeds notification badges and degrades to zero on failure.
func (s *chatService) CountUnread(ctx context.Context, profile models.ProfileRef) int64 {
	total, err := s.repo.CountUnread(ctx, profile)
	if err != nil {
		s.logger.Warn().Err(err).Str("profile", profile.String()).Msg("failed to count unread messages")
		return 0
	}
	return total
}

func truncateRunes(value string, max int) string {
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max])
}
