package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
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

// ChatProvisioner materialises the chat of an accepted request.
type ChatProvisioner interface {
	CreateFromAcceptedRequest(ctx context.Context, requestID uint) (uint, error)
}

// RequestService manages the lifecycle of collaboration requests between profiles.
type RequestService interface {
	Create(ctx context.Context, caller Identity, payload dto.RequestCreateRequest) (dto.RequestCreatedResponse, error)
	ExistsBidirectional(ctx context.Context, a, b models.ProfileRef) (*models.CollaborationRequest, error)
	DescribeForMatch(ctx context.Context, me, other models.ProfileRef, matchKind models.MatchKind, matchID uint) (dto.RequestMatchStatusResponse, error)
	Resolve(ctx context.Context, requestID uint, recipient models.ProfileRef, status models.RequestStatus) error
	Respond(ctx context.Context, caller Identity, requestID uint, payload dto.RequestRespondRequest) (dto.RequestRespondResponse, error)
	ListSent(ctx context.Context, sender models.ProfileRef) ([]dto.RequestResponse, error)
	ListReceived(ctx context.Context, recipient models.ProfileRef) ([]dto.RequestResponse, error)
	CountPendingReceived(ctx context.Context, recipient models.ProfileRef) int64
}

type requestService struct {
	repo      repository.RequestRepository
	chats     ChatProvisioner
	activity  ActivityRecorder
	events    EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewRequestService constructs the request lifecycle manager.
func NewRequestService(
	repo repository.RequestRepository,
	chats ChatProvisioner,
	activity ActivityRecorder,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) RequestService {
	return &requestService{
		repo:      repo,
		chats:     chats,
		activity:  activity,
		events:    publisherOrNoop(events),
		validator: validate,
		logger:    logger.With().Str("component", "request_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/vincula-api/internal/service/request"),
		now:       time.Now,
	}
}

func (s *requestService) Create(ctx context.Context, caller Identity, payload dto.RequestCreateRequest) (dto.RequestCreatedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "request.create")
	defer span.End()

	sender := caller.Profile
	if !sender.Kind.Valid() || sender.ID == 0 {
		return dto.RequestCreatedResponse{}, fmt.Errorf("%w: caller has no profile", ErrForbidden)
	}
	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		observability.RequestsCreated().WithLabelValues("invalid").Inc()
		return dto.RequestCreatedResponse{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	recipient := models.ProfileRef{Kind: models.ProfileKind(payload.RecipientKind), ID: payload.RecipientID}
	span.SetAttributes(
		attribute.String("request.sender", sender.String()),
		attribute.String("request.recipient", recipient.String()),
	)
	if sender.Equal(recipient) {
		observability.RequestsCreated().WithLabelValues("invalid").Inc()
		return dto.RequestCreatedResponse{}, fmt.Errorf("%w: cannot send a request to yourself", ErrInvalidArgument)
	}

	existing, err := s.ExistsBidirectional(ctx, sender, recipient)
	if err != nil {
		span.RecordError(err)
		return dto.RequestCreatedResponse{}, err
	}
	if existing != nil {
		observability.RequestsCreated().WithLabelValues("duplicate").Inc()
		return dto.RequestCreatedResponse{}, fmt.Errorf("%w: a request already exists between these profiles", ErrConflict)
	}

	model := models.CollaborationRequest{
		SenderKind:    sender.Kind,
		SenderID:      sender.ID,
		RecipientKind: recipient.Kind,
		RecipientID:   recipient.ID,
		MatchKind:     models.MatchKind(payload.MatchKind),
		MatchID:       payload.MatchID,
		Status:        models.RequestStatusPending,
	}
	if message := strings.TrimSpace(payload.Message); message != "" {
		model.Message = &message
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		if isDuplicateKey(err) {
			observability.RequestsCreated().WithLabelValues("duplicate").Inc()
			return dto.RequestCreatedResponse{}, fmt.Errorf("%w: a request already exists between these profiles", ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert_failed")
		observability.RequestsCreated().WithLabelValues("error").Inc()
		return dto.RequestCreatedResponse{}, err
	}

	observability.RequestsCreated().WithLabelValues("created").Inc()
	s.logger.Info().Uint("request_id", model.ID).Str("sender", sender.String()).Str("recipient", recipient.String()).Msg("collaboration request created")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      caller,
		Action:     ActionRequestCreated,
		EntityType: "request",
		EntityID:   uintPtr(model.ID),
		Metadata: map[string]interface{}{
			"destinatario": recipient.String(),
			"tipo_match":   string(model.MatchKind),
			"match_id":     model.MatchID,
		},
	})
	s.events.Publish(ctx, EventRequestCreated, map[string]interface{}{
		"solicitud_id": model.ID,
		"remitente":    sender,
		"destinatario": recipient,
		"tipo_match":   model.MatchKind,
		"match_id":     model.MatchID,
	})

	return dto.RequestCreatedResponse{ID: model.ID}, nil
}

// ExistsBidirectional returns any request between a and b in either direction, or nil.
func (s *requestService) ExistsBidirectional(ctx context.Context, a, b models.ProfileRef) (*models.CollaborationRequest, error) {
	request, err := s.repo.FindBetween(ctx, a, b)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// DescribeForMatch classifies the caller's relation to the request shared with other.
// The lookup is by profile pair; the match only needs to be well formed.
func (s *requestService) DescribeForMatch(ctx context.Context, me, other models.ProfileRef, matchKind models.MatchKind, matchID uint) (dto.RequestMatchStatusResponse, error) {
	if !me.Kind.Valid() || me.ID == 0 {
		return dto.RequestMatchStatusResponse{}, fmt.Errorf("%w: caller has no profile", ErrForbidden)
	}
	if !other.Kind.Valid() || other.ID == 0 {
		return dto.RequestMatchStatusResponse{}, fmt.Errorf("%w: invalid counterpart profile", ErrInvalidArgument)
	}
	if !matchKind.Valid() || matchID == 0 {
		return dto.RequestMatchStatusResponse{}, fmt.Errorf("%w: invalid match reference", ErrInvalidArgument)
	}

	existing, err := s.ExistsBidirectional(ctx, me, other)
	if err != nil {
		return dto.RequestMatchStatusResponse{}, err
	}
	if existing == nil {
		return dto.RequestMatchStatusResponse{}, nil
	}

	response := dto.NewRequestResponse(*existing)
	return dto.RequestMatchStatusResponse{
		Exists:      true,
		Request:     &response,
		IsSender:    existing.Sender().Equal(me),
		IsRecipient: existing.Recipient().Equal(me),
	}, nil
}

// Resolve moves a pending request to a terminal status. Only the recipient may do it,
// and only once; every other case reports ErrNotFound.
func (s *requestService) Resolve(ctx context.Context, requestID uint, recipient models.ProfileRef, status models.RequestStatus) error {
	ctx, span := s.tracer.Start(ctx, "request.resolve", trace.WithAttributes(
		attribute.Int64("request.id", int64(requestID)),
		attribute.String("request.status", string(status)),
	))
	defer span.End()

	if requestID == 0 {
		return fmt.Errorf("%w: request id must be a positive integer", ErrInvalidArgument)
	}
	if !status.Terminal() {
		return fmt.Errorf("%w: status must be %s or %s", ErrInvalidArgument, models.RequestStatusAccepted, models.RequestStatusRejected)
	}

	affected, err := s.repo.Resolve(ctx, requestID, recipient, status, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		observability.RequestsResolved().WithLabelValues("error").Inc()
		return err
	}
	if affected == 0 {
		observability.RequestsResolved().WithLabelValues("not_found").Inc()
		return fmt.Errorf("%w: request not found or already resolved", ErrNotFound)
	}

	observability.RequestsResolved().WithLabelValues(string(status)).Inc()
	return nil
}

// Respond resolves the request and, on acceptance, provisions its chat. A provisioning
// failure leaves the acceptance in place and yields a nil chat id.
func (s *requestService) Respond(ctx context.Context, caller Identity, requestID uint, payload dto.RequestRespondRequest) (dto.RequestRespondResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RequestRespondResponse{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	status := models.RequestStatus(payload.Status)
	if err := s.Resolve(ctx, requestID, caller.Profile, status); err != nil {
		return dto.RequestRespondResponse{}, err
	}

	s.logger.Info().Uint("request_id", requestID).Str("status", string(status)).Str("recipient", caller.Profile.String()).Msg("collaboration request resolved")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      caller,
		Action:     ActionRequestResolved,
		EntityType: "request",
		EntityID:   uintPtr(requestID),
		Metadata:   map[string]interface{}{"estado": string(status)},
	})

	response := dto.RequestRespondResponse{Status: string(status)}
	if status == models.RequestStatusAccepted && s.chats != nil {
		chatID, err := s.chats.CreateFromAcceptedRequest(ctx, requestID)
		if err != nil {
			s.logger.Error().Err(err).Uint("request_id", requestID).Msg("chat provisioning failed after acceptance")
		} else {
			response.ChatID = &chatID
		}
	}

	s.events.Publish(ctx, EventRequestResolved, map[string]interface{}{
		"solicitud_id": requestID,
		"estado":       status,
		"chat_id":      response.ChatID,
	})

	return response, nil
}

func (s *requestService) ListSent(ctx context.Context, sender models.ProfileRef) ([]dto.RequestResponse, error) {
	rows, err := s.repo.ListSent(ctx, sender)
	if err != nil {
		return nil, err
	}
	return requestDetailsResponses(rows), nil
}

func (s *requestService) ListReceived(ctx context.Context, recipient models.ProfileRef) ([]dto.RequestResponse, error) {
	rows, err := s.repo.ListReceived(ctx, recipient)
	if err != nil {
		return nil, err
	}
	return requestDetailsResponses(rows), nil
}

// CountPendingReceived feeds notification badges and degrades to zero on failure.
func (s *requestService) CountPendingReceived(ctx context.Context, recipient models.ProfileRef) int64 {
	total, err := s.repo.CountPendingReceived(ctx, recipient)
	if err != nil {
		s.logger.Warn().Err(err).Str("recipient", recipient.String()).Msg("failed to count pending requests")
		return 0
	}
	return total
}

func requestDetailsResponses(rows []repository.RequestDetails) []dto.RequestResponse {
	out := make([]dto.RequestResponse, 0, len(rows))
	for _, row := range rows {
		response := dto.NewRequestResponse(row.CollaborationRequest)
		response.SenderName = row.SenderName
		response.RecipientName = row.RecipientName
		response.MatchTitle = row.MatchTitle
		out = append(out, response)
	}
	return out
}
