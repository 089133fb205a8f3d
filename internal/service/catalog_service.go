package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/models"
	"github.com/noah-isme/vincula-api/internal/repository"
)

// CatalogService maintains the capabilities and challenges that feed the keyword index.
type CatalogService interface {
	CreateCapability(ctx context.Context, caller Identity, payload dto.CapabilityUpsertRequest) (dto.CapabilityResponse, error)
	UpdateCapability(ctx context.Context, caller Identity, id uint, payload dto.CapabilityUpsertRequest) (dto.CapabilityResponse, error)
	GetCapability(ctx context.Context, caller Identity, id uint) (dto.CapabilityResponse, error)
	ListMyCapabilities(ctx context.Context, caller Identity) ([]dto.CapabilityResponse, error)

	CreateChallenge(ctx context.Context, caller Identity, payload dto.ChallengeUpsertRequest) (dto.ChallengeResponse, error)
	UpdateChallenge(ctx context.Context, caller Identity, id uint, payload dto.ChallengeUpsertRequest) (dto.ChallengeResponse, error)
	GetChallenge(ctx context.Context, caller Identity, id uint) (dto.ChallengeResponse, error)
	ListMyChallenges(ctx context.Context, caller Identity) ([]dto.ChallengeResponse, error)

	ListKeywords(ctx context.Context) ([]dto.KeywordResponse, error)
}

type catalogService struct {
	repo      repository.CatalogRepository
	cache     MatchCache
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewCatalogService constructs the catalog service. Every mutation invalidates cache.
func NewCatalogService(repo repository.CatalogRepository, cache MatchCache, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	if cache == nil {
		cache = noopMatchCache{}
	}
	return &catalogService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger.With().Str("component", "catalog_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/vincula-api/internal/service/catalog"),
	}
}

func (s *catalogService) CreateCapability(ctx context.Context, caller Identity, payload dto.CapabilityUpsertRequest) (dto.CapabilityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.capability.create")
	defer span.End()

	if caller.Profile.Kind != models.ProfileKindInternal {
		return dto.CapabilityResponse{}, fmt.Errorf("%w: only researchers publish capabilities", ErrForbidden)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CapabilityResponse{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	keywords, err := s.repo.ResolveKeywords(ctx, normalizeKeywords(payload.Keywords))
	if err != nil {
		return dto.CapabilityResponse{}, err
	}

	model := models.Capability{ResearcherID: caller.Profile.ID, Keywords: keywords}
	applyCapability(&model, payload)
	if err := s.repo.CreateCapability(ctx, &model); err != nil {
		span.RecordError(err)
		return dto.CapabilityResponse{}, err
	}

	s.cache.Invalidate(ctx)
	span.SetAttributes(attribute.Int64("catalog.capability_id", int64(model.ID)))
	return dto.NewCapabilityResponse(model), nil
}

func (s *catalogService) UpdateCapability(ctx context.Context, caller Identity, id uint, payload dto.CapabilityUpsertRequest) (dto.CapabilityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.capability.update", trace.WithAttributes(attribute.Int64("catalog.capability_id", int64(id))))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.CapabilityResponse{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	model, err := s.repo.FindCapability(ctx, id)
	if err != nil {
		return dto.CapabilityResponse{}, notFoundOr(err, "capability", id)
	}
	if !caller.Profile.Equal(models.ProfileRef{Kind: models.ProfileKindInternal, ID: model.ResearcherID}) {
		return dto.CapabilityResponse{}, fmt.Errorf("%w: capability %d belongs to another researcher", ErrForbidden, id)
	}

	keywords, err := s.repo.ResolveKeywords(ctx, normalizeKeywords(payload.Keywords))
	if err != nil {
		return dto.CapabilityResponse{}, err
	}

	applyCapability(&model, payload)
	model.Keywords = keywords
	if err := s.repo.UpdateCapability(ctx, &model); err != nil {
		span.RecordError(err)
		return dto.CapabilityResponse{}, err
	}

	s.cache.Invalidate(ctx)
	return dto.NewCapabilityResponse(model), nil
}

func (s *catalogService) GetCapability(ctx context.Context, caller Identity, id uint) (dto.CapabilityResponse, error) {
	model, err := s.repo.FindCapability(ctx, id)
	if err != nil {
		return dto.CapabilityResponse{}, notFoundOr(err, "capability", id)
	}
	if !caller.IsAdmin() && !caller.Profile.Equal(models.ProfileRef{Kind: models.ProfileKindInternal, ID: model.ResearcherID}) {
		return dto.CapabilityResponse{}, fmt.Errorf("%w: capability %d belongs to another researcher", ErrForbidden, id)
	}
	return dto.NewCapabilityResponse(model), nil
}

func (s *catalogService) ListMyCapabilities(ctx context.Context, caller Identity) ([]dto.CapabilityResponse, error) {
	if caller.Profile.Kind != models.ProfileKindInternal {
		return nil, fmt.Errorf("%w: only researchers own capabilities", ErrForbidden)
	}
	items, err := s.repo.ListCapabilitiesByResearcher(ctx, caller.Profile.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewCapabilityResponseSlice(items), nil
}

func (s *catalogService) CreateChallenge(ctx context.Context, caller Identity, payload dto.ChallengeUpsertRequest) (dto.ChallengeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.challenge.create")
	defer span.End()

	if caller.Profile.Kind != models.ProfileKindExternal {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: only external participants publish challenges", ErrForbidden)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	keywords, err := s.repo.ResolveKeywords(ctx, normalizeKeywords(payload.Keywords))
	if err != nil {
		return dto.ChallengeResponse{}, err
	}

	model := models.Challenge{ParticipantID: caller.Profile.ID, Keywords: keywords}
	applyChallenge(&model, payload)
	if err := s.repo.CreateChallenge(ctx, &model); err != nil {
		span.RecordError(err)
		return dto.ChallengeResponse{}, err
	}

	s.cache.Invalidate(ctx)
	span.SetAttributes(attribute.Int64("catalog.challenge_id", int64(model.ID)))
	return dto.NewChallengeResponse(model), nil
}

func (s *catalogService) UpdateChallenge(ctx context.Context, caller Identity, id uint, payload dto.ChallengeUpsertRequest) (dto.ChallengeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.challenge.update", trace.WithAttributes(attribute.Int64("catalog.challenge_id", int64(id))))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	model, err := s.repo.FindChallenge(ctx, id)
	if err != nil {
		return dto.ChallengeResponse{}, notFoundOr(err, "challenge", id)
	}
	if !caller.Profile.Equal(models.ProfileRef{Kind: models.ProfileKindExternal, ID: model.ParticipantID}) {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: challenge %d belongs to another participant", ErrForbidden, id)
	}

	keywords, err := s.repo.ResolveKeywords(ctx, normalizeKeywords(payload.Keywords))
	if err != nil {
		return dto.ChallengeResponse{}, err
	}

	applyChallenge(&model, payload)
	model.Keywords = keywords
	if err := s.repo.UpdateChallenge(ctx, &model); err != nil {
		span.RecordError(err)
		return dto.ChallengeResponse{}, err
	}

	s.cache.Invalidate(ctx)
	return dto.NewChallengeResponse(model), nil
}

func (s *catalogService) GetChallenge(ctx context.Context, caller Identity, id uint) (dto.ChallengeResponse, error) {
	model, err := s.repo.FindChallenge(ctx, id)
	if err != nil {
		return dto.ChallengeResponse{}, notFoundOr(err, "challenge", id)
	}
	if !caller.IsAdmin() && !caller.Profile.Equal(models.ProfileRef{Kind: models.ProfileKindExternal, ID: model.ParticipantID}) {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: challenge %d belongs to another participant", ErrForbidden, id)
	}
	return dto.NewChallengeResponse(model), nil
}

func (s *catalogService) ListMyChallenges(ctx context.Context, caller Identity) ([]dto.ChallengeResponse, error) {
	if caller.Profile.Kind != models.ProfileKindExternal {
		return nil, fmt.Errorf("%w: only external participants own challenges", ErrForbidden)
	}
	items, err := s.repo.ListChallengesByParticipant(ctx, caller.Profile.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewChallengeResponseSlice(items), nil
}

func (s *catalogService) ListKeywords(ctx context.Context) ([]dto.KeywordResponse, error) {
	items, err := s.repo.ListKeywords(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewKeywordResponseSlice(items), nil
}

func applyCapability(model *models.Capability, payload dto.CapabilityUpsertRequest) {
	model.Description = strings.TrimSpace(payload.Description)
	model.ProblemsSolved = strings.TrimSpace(payload.ProblemsSolved)
	model.ProjectTypes = strings.TrimSpace(payload.ProjectTypes)
	model.Equipment = strings.TrimSpace(payload.Equipment)
	model.InternalCode = strings.TrimSpace(payload.InternalCode)
}

func applyChallenge(model *models.Challenge, payload dto.ChallengeUpsertRequest) {
	model.Title = strings.TrimSpace(payload.Title)
	model.Description = strings.TrimSpace(payload.Description)
	model.Impact = strings.TrimSpace(payload.Impact)
	model.AttemptedSolutions = strings.TrimSpace(payload.AttemptedSolutions)
	model.ImaginedSolution = strings.TrimSpace(payload.ImaginedSolution)
}

// normalizeKeywords trims words and drops blanks and case-insensitive repeats, keeping
// the first spelling seen.
func normalizeKeywords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Join(strings.Fields(word), " ")
		if word == "" {
			continue
		}
		key := strings.ToLower(word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, word)
	}
	return out
}

func notFoundOr(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
	}
	return err
}
