package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/observability"
	"github.com/noah-isme/vincula-api/internal/repository"
)

const (
	// DefaultMatchLimit bounds profile-scoped match lists when the caller gives no limit.
	DefaultMatchLimit = 10
	// MaxMatchLimit is the largest accepted profile-scoped limit.
	MaxMatchLimit = 50

	matchScopeChallenge   = "challenge"
	matchScopeCapability  = "capability"
	matchScopeResearcher  = "researcher"
	matchScopeParticipant = "participant"
)

// MatchingService ranks capability/challenge pairs by shared keywords behind a global switch.
type MatchingService interface {
	IsActive(ctx context.Context) (bool, error)
	Status(ctx context.Context) (dto.MatchingStatusResponse, error)
	SetActive(ctx context.Context, actor Identity, active bool) (dto.MatchingStatusResponse, error)
	MatchesForChallenge(ctx context.Context, challengeID uint) ([]dto.CapabilityMatch, error)
	MatchesForCapability(ctx context.Context, capabilityID uint) ([]dto.ChallengeMatch, error)
	MatchesForResearcher(ctx context.Context, researcherID uint, limit int) ([]dto.ChallengeMatch, error)
	MatchesForParticipant(ctx context.Context, participantID uint, limit int) ([]dto.CapabilityMatch, error)
	MyMatches(ctx context.Context, caller Identity) (dto.MyMatchesResponse, error)
}

// MatchingConfig tunes the matching service.
type MatchingConfig struct {
	DefaultLimit int
}

type matchingService struct {
	index        repository.KeywordIndexRepository
	catalog      repository.CatalogRepository
	state        repository.MatchingStateRepository
	cache        MatchCache
	activity     ActivityRecorder
	logger       zerolog.Logger
	tracer       trace.Tracer
	defaultLimit int
	now          func() time.Time
}

// NewMatchingService constructs the matching engine.
func NewMatchingService(
	index repository.KeywordIndexRepository,
	catalog repository.CatalogRepository,
	state repository.MatchingStateRepository,
	cache MatchCache,
	activity ActivityRecorder,
	cfg MatchingConfig,
	logger zerolog.Logger,
) MatchingService {
	if cache == nil {
		cache = noopMatchCache{}
	}
	limit := cfg.DefaultLimit
	if limit <= 0 || limit > MaxMatchLimit {
		limit = DefaultMatchLimit
	}

	return &matchingService{
		index:        index,
		catalog:      catalog,
		state:        state,
		cache:        cache,
		activity:     activity,
		logger:       logger.With().Str("component", "matching_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/vincula-api/internal/service/matching"),
		defaultLimit: limit,
		now:          time.Now,
	}
}

func (s *matchingService) IsActive(ctx context.Context) (bool, error) {
	state, err := s.state.Get(ctx)
	if err != nil {
		return false, err
	}
	return state.Active, nil
}

func (s *matchingService) Status(ctx context.Context) (dto.MatchingStatusResponse, error) {
	state, err := s.state.Get(ctx)
	if err != nil {
		return dto.MatchingStatusResponse{}, err
	}
	return dto.MatchingStatusResponse{Active: state.Active, ActivatedAt: state.ActivatedAt}, nil
}

func (s *matchingService) SetActive(ctx context.Context, actor Identity, active bool) (dto.MatchingStatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "matching.toggle", trace.WithAttributes(attribute.Bool("matching.active", active)))
	defer span.End()

	state, err := s.state.Set(ctx, active, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle_failed")
		return dto.MatchingStatusResponse{}, err
	}

	s.logger.Info().Bool("active", active).Uint("account_id", actor.AccountID).Msg("matching toggled")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionMatchingToggled,
		EntityType: "matching_state",
		EntityID:   uintPtr(state.ID),
		Metadata:   map[string]interface{}{"activo": active},
	})

	return dto.MatchingStatusResponse{Active: state.Active, ActivatedAt: state.ActivatedAt}, nil
}

// gate reads the toggle fresh and records the query outcome.
func (s *matchingService) gate(ctx context.Context, span trace.Span, scope string) (bool, error) {
	active, err := s.IsActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle_lookup_failed")
		return false, err
	}
	gate := "open"
	if !active {
		gate = "closed"
	}
	span.SetAttributes(attribute.Bool("matching.active", active))
	observability.MatchingQueries().WithLabelValues(scope, gate).Inc()
	return active, nil
}

func (s *matchingService) MatchesForChallenge(ctx context.Context, challengeID uint) ([]dto.CapabilityMatch, error) {
	ctx, span := s.tracer.Start(ctx, "matching.for_challenge", trace.WithAttributes(attribute.Int64("matching.challenge_id", int64(challengeID))))
	defer span.End()

	if challengeID == 0 {
		return nil, fmt.Errorf("%w: challenge id must be a positive integer", ErrInvalidArgument)
	}
	if active, err := s.gate(ctx, span, matchScopeChallenge); err != nil || !active {
		return []dto.CapabilityMatch{}, err
	}

	rows, err := s.index.OverlapsForChallenge(ctx, challengeID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.capabilityMatches(ctx, rankOverlaps(rows, capabilityOf), 0)
}

func (s *matchingService) MatchesForCapability(ctx context.Context, capabilityID uint) ([]dto.ChallengeMatch, error) {
	ctx, span := s.tracer.Start(ctx, "matching.for_capability", trace.WithAttributes(attribute.Int64("matching.capability_id", int64(capabilityID))))
	defer span.End()

	if capabilityID == 0 {
		return nil, fmt.Errorf("%w: capability id must be a positive integer", ErrInvalidArgument)
	}
	if active, err := s.gate(ctx, span, matchScopeCapability); err != nil || !active {
		return []dto.ChallengeMatch{}, err
	}

	rows, err := s.index.OverlapsForCapability(ctx, capabilityID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.challengeMatches(ctx, rankOverlaps(rows, challengeOf), 0)
}

func (s *matchingService) MatchesForResearcher(ctx context.Context, researcherID uint, limit int) ([]dto.ChallengeMatch, error) {
	ctx, span := s.tracer.Start(ctx, "matching.for_researcher", trace.WithAttributes(attribute.Int64("matching.profile_id", int64(researcherID))))
	defer span.End()

	if researcherID == 0 {
		return nil, fmt.Errorf("%w: profile id must be a positive integer", ErrInvalidArgument)
	}
	if active, err := s.gate(ctx, span, matchScopeResearcher); err != nil || !active {
		return []dto.ChallengeMatch{}, err
	}

	limit = s.clampLimit(limit)
	var cached []dto.ChallengeMatch
	if s.cache.Load(ctx, matchScopeResearcher, researcherID, limit, &cached) {
		return cached, nil
	}

	rows, err := s.index.OverlapsForResearcher(ctx, researcherID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	matches, err := s.challengeMatches(ctx, rankOverlaps(rows, challengeOf), limit)
	if err != nil {
		return nil, err
	}

	s.cache.Store(ctx, matchScopeResearcher, researcherID, limit, matches)
	return matches, nil
}

func (s *matchingService) MatchesForParticipant(ctx context.Context, participantID uint, limit int) ([]dto.CapabilityMatch, error) {
	ctx, span := s.tracer.Start(ctx, "matching.for_participant", trace.WithAttributes(attribute.Int64("matching.profile_id", int64(participantID))))
	defer span.End()

	if participantID == 0 {
		return nil, fmt.Errorf("%w: profile id must be a positive integer", ErrInvalidArgument)
	}
	if active, err := s.gate(ctx, span, matchScopeParticipant); err != nil || !active {
		return []dto.CapabilityMatch{}, err
	}

	limit = s.clampLimit(limit)
	var cached []dto.CapabilityMatch
	if s.cache.Load(ctx, matchScopeParticipant, participantID, limit, &cached) {
		return cached, nil
	}

	rows, err := s.index.OverlapsForParticipant(ctx, participantID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	matches, err := s.capabilityMatches(ctx, rankOverlaps(rows, capabilityOf), limit)
	if err != nil {
		return nil, err
	}

	s.cache.Store(ctx, matchScopeParticipant, participantID, limit, matches)
	return matches, nil
}

func (s *matchingService) MyMatches(ctx context.Context, caller Identity) (dto.MyMatchesResponse, error) {
	active, err := s.IsActive(ctx)
	if err != nil {
		return dto.MyMatchesResponse{}, err
	}

	response := dto.MyMatchesResponse{Active: active, Kind: string(caller.Profile.Kind)}
	switch caller.Profile.Kind {
	case models.ProfileKindInternal:
		matches, err := s.MatchesForResearcher(ctx, caller.Profile.ID, s.defaultLimit)
		if err != nil {
			return dto.MyMatchesResponse{}, err
		}
		response.Challenges = matches
	case models.ProfileKindExternal:
		matches, err := s.MatchesForParticipant(ctx, caller.Profile.ID, s.defaultLimit)
		if err != nil {
			return dto.MyMatchesResponse{}, err
		}
		response.Capabilities = matches
	default:
		return dto.MyMatchesResponse{}, fmt.Errorf("%w: role %q has no matches", ErrForbidden, caller.Role)
	}

	return response, nil
}

func (s *matchingService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > MaxMatchLimit {
		return MaxMatchLimit
	}
	return limit
}

func (s *matchingService) capabilityMatches(ctx context.Context, ranked []rankedMatch, limit int) ([]dto.CapabilityMatch, error) {
	ranked = truncate(ranked, limit)
	cards, err := s.catalog.CapabilityCards(ctx, rankedIDs(ranked))
	if err != nil {
		return nil, err
	}

	out := make([]dto.CapabilityMatch, 0, len(ranked))
	for _, match := range ranked {
		card, ok := cards[match.ID]
		if !ok {
			continue
		}
		out = append(out, dto.CapabilityMatch{
			CapabilityID:     match.ID,
			Description:      card.Description,
			ResearcherID:     card.ResearcherID,
			ResearcherName:   card.ResearcherName,
			MatchingKeywords: match.Keywords(),
			TotalMatches:     match.Count,
		})
	}
	return out, nil
}

func (s *matchingService) challengeMatches(ctx context.Context, ranked []rankedMatch, limit int) ([]dto.ChallengeMatch, error) {
	ranked = truncate(ranked, limit)
	cards, err := s.catalog.ChallengeCards(ctx, rankedIDs(ranked))
	if err != nil {
		return nil, err
	}

	out := make([]dto.ChallengeMatch, 0, len(ranked))
	for _, match := range ranked {
		card, ok := cards[match.ID]
		if !ok {
			continue
		}
		out = append(out, dto.ChallengeMatch{
			ChallengeID:      match.ID,
			Title:            card.Title,
			Description:      card.Description,
			ParticipantID:    card.ParticipantID,
			ParticipantName:  card.ParticipantName,
			Organization:     card.Organization,
			MatchingKeywords: match.Keywords(),
			TotalMatches:     match.Count,
		})
	}
	return out, nil
}

// rankedMatch is one counterpart with the distinct keywords it shares.
type rankedMatch struct {
	ID    uint
	Words []string
	Count int
}

// Keywords joins the shared words in byte order.
func (m rankedMatch) Keywords() string {
	return strings.Join(m.Words, ", ")
}

func capabilityOf(row repository.KeywordOverlap) uint { return row.CapabilityID }
func challengeOf(row repository.KeywordOverlap) uint  { return row.ChallengeID }

// rankOverlaps groups overlap rows by counterpart, counting distinct keywords, and orders
// the result by count descending with ascending id as the tie-break.
func rankOverlaps(rows []repository.KeywordOverlap, counterpart func(repository.KeywordOverlap) uint) []rankedMatch {
	type bucket struct {
		keywords map[uint]struct{}
		words    map[string]struct{}
	}

	buckets := make(map[uint]*bucket)
	for _, row := range rows {
		id := counterpart(row)
		b, ok := buckets[id]
		if !ok {
			b = &bucket{keywords: map[uint]struct{}{}, words: map[string]struct{}{}}
			buckets[id] = b
		}
		b.keywords[row.KeywordID] = struct{}{}
		b.words[row.Word] = struct{}{}
	}

	ranked := make([]rankedMatch, 0, len(buckets))
	for id, b := range buckets {
		words := make([]string, 0, len(b.words))
		for word := range b.words {
			words = append(words, word)
		}
		sort.Strings(words)
		ranked = append(ranked, rankedMatch{ID: id, Words: words, Count: len(b.keywords)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func truncate(ranked []rankedMatch, limit int) []rankedMatch {
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

func rankedIDs(ranked []rankedMatch) []uint {
	ids := make([]uint, 0, len(ranked))
	for _, match := range ranked {
		ids = append(ids, match.ID)
	}
	return ids
}
