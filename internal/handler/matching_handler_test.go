package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vincula-api/internal/dto"
	"github.com/noah-isme/vincula-api/internal/handler"
	"github.com/noah-isme/vincula-api/internal/service"
)

type stubMatchingService struct {
	service.MatchingService
	mine        dto.MyMatchesResponse
	byChallenge []dto.CapabilityMatch
	err         error
	toggledTo   *bool
	lastID      uint
}

func (s *stubMatchingService) MyMatches(context.Context, service.Identity) (dto.MyMatchesResponse, error) {
	return s.mine, s.err
}

func (s *stubMatchingService) SetActive(_ context.Context, _ service.Identity, active bool) (dto.MatchingStatusResponse, error) {
	s.toggledTo = &active
	return dto.MatchingStatusResponse{Active: active}, s.err
}

func (s *stubMatchingService) MatchesForChallenge(_ context.Context, id uint) ([]dto.CapabilityMatch, error) {
	s.lastID = id
	return s.byChallenge, s.err
}

func newMatchingApp(caller fiber.Handler, svc service.MatchingService) *fiber.App {
	app := fiber.New()
	app.Use(caller)
	handler.NewMatchingHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/matching"))
	return app
}

func strPtr(v string) *string { return &v }

func TestMyMatchesContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "my_matches.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	svc := &stubMatchingService{mine: dto.MyMatchesResponse{
		Active: true,
		Kind:   "unsa",
		Challenges: []dto.ChallengeMatch{{
			ChallengeID:      4,
			Title:            "Leak detection",
			Description:      strPtr("Old pipes"),
			ParticipantID:    2,
			ParticipantName:  strPtr("Luis Mamani"),
			Organization:     nil,
			MatchingKeywords: "IoT, agua",
			TotalMatches:     2,
		}},
	}}
	app := newMatchingApp(researcherCaller(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matching/my-matches", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestMyMatchesRejectsAdmins(t *testing.T) {
	app := newMatchingApp(adminCaller(), &stubMatchingService{})
	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/matching/my-matches", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMatchingAdminRoutesRequireAdmin(t *testing.T) {
	app := newMatchingApp(participantCaller(), &stubMatchingService{})

	resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/matching/toggle", map[string]bool{"activo": true})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/matching/challenges/3", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMatchingToggle(t *testing.T) {
	svc := &stubMatchingService{}
	app := newMatchingApp(adminCaller(), svc)

	resp, payload := doRequest(t, app, http.MethodPost, "/api/v1/matching/toggle", map[string]bool{"activo": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.toggledTo)
	require.True(t, *svc.toggledTo)
	require.Equal(t, true, payload["data"].(map[string]interface{})["activo"])

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/matching/toggle", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatchesForChallengeValidatesID(t *testing.T) {
	svc := &stubMatchingService{byChallenge: []dto.CapabilityMatch{}}
	app := newMatchingApp(adminCaller(), svc)

	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/matching/challenges/0", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/matching/challenges/abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, payload := doRequest(t, app, http.MethodGet, "/api/v1/matching/challenges/7", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), svc.lastID)
	require.Empty(t, payload["data"])
}
