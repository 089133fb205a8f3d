package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain event types fanned out to downstream consumers.
const (
	EventRequestCreated  = "request.created"
	EventRequestResolved = "request.resolved"
	EventChatCreated     = "chat.created"
	EventMessageSent     = "message.sent"
)

// DomainEvent is the JSON envelope published on the broker channels.
type DomainEvent struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Source     string                 `json:"source"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// EventPublisher fans domain events out to the configured brokers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

type brokerPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time
}

// NewEventPublisher builds a publisher over Redis pub/sub and NATS. Either client may be nil.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channelBase = strings.TrimSpace(channelBase)
	if channelBase == "" {
		channelBase = "vincula"
	}

	return &brokerPublisher{
		redis:        redisClient,
		redisChannel: channelBase + ":events",
		nats:         natsConn,
		natsSubject:  strings.ReplaceAll(channelBase, ":", ".") + ".events",
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

// Publish never fails the caller; broker errors are logged.
func (p *brokerPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.redis == nil && p.nats == nil {
		return
	}

	event := DomainEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     p.nodeID,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("event", eventType).Msg("failed to marshal domain event")
		return
	}

	var errs []error
	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.nats != nil {
		if err := p.nats.Publish(p.natsSubject+"."+eventType, payload); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		p.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish domain event")
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, map[string]interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
