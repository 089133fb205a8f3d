package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/config"
	"github.com/noah-isme/vincula-api/internal/database"
	"github.com/noah-isme/vincula-api/internal/handler"
	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/repository"
	"github.com/noah-isme/vincula-api/internal/router"
	"github.com/noah-isme/vincula-api/internal/service"
)

const testSecret = "router-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	cfg := config.Config{AppName: "Vincula API", AppEnv: "test", JWTSecret: testSecret}

	catalogRepo := repository.NewCatalogRepository(db)
	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	catalogService := service.NewCatalogService(catalogRepo, nil, validate, logger)
	matchingService := service.NewMatchingService(
		repository.NewKeywordIndexRepository(db),
		catalogRepo,
		repository.NewMatchingStateRepository(db),
		nil,
		activityService,
		service.MatchingConfig{},
		logger,
	)
	chatService := service.NewChatService(repository.NewChatRepository(db), activityService, nil, logger)
	requestService := service.NewRequestService(repository.NewRequestRepository(db), chatService, activityService, nil, validate, logger)
	profileService := service.NewProfileService(repository.NewProfileRepository(db), logger)

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		DB:                db,
		MatchingHandler:   handler.NewMatchingHandler(matchingService, logger),
		RequestHandler:    handler.NewRequestHandler(requestService, nil, logger),
		ChatHandler:       handler.NewChatHandler(chatService, nil, logger),
		CatalogHandler:    handler.NewCatalogHandler(catalogService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:     middleware.JWTProtected(testSecret),
		ProfileMiddleware: middleware.ResolveProfile(profileService, logger),
	})
	return app
}

func tokenFor(t *testing.T, accountID uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": accountID,
		"rol":    role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, app *fiber.App, token, method, target string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	app := setupApp(t)

	var health handler.HealthResponse
	status := call(t, app, "", http.MethodGet, "/api/v1/health", nil, &health)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "up", health.Database)
	require.Equal(t, "Vincula API", health.Service)
	require.WithinDuration(t, time.Now().UTC(), health.Timestamp, 2*time.Second)
}

func TestSecuredRoutesNeedToken(t *testing.T) {
	app := setupApp(t)
	require.Equal(t, http.StatusUnauthorized, call(t, app, "", http.MethodGet, "/api/v1/chats", nil, nil))
	require.Equal(t, http.StatusForbidden, call(t, app, tokenFor(t, 5, "unsa"), http.MethodGet, "/api/v1/admin/activity", nil, nil))
}

func TestCollaborationFlow(t *testing.T) {
	app := setupApp(t)
	admin := tokenFor(t, 1, "admin")
	researcher := tokenFor(t, 100, "unsa")
	participant := tokenFor(t, 200, "externo")

	var challenge struct {
		ID            uint `json:"desafio_id"`
		ParticipantID uint `json:"participante_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, app, participant, http.MethodPost, "/api/v1/challenges",
		map[string]interface{}{"titulo": "Leak detection", "palabrasClave": []string{"IoT", "agua"}}, &challenge))

	var capability struct {
		ID           uint `json:"capacidad_id"`
		ResearcherID uint `json:"investigador_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, app, researcher, http.MethodPost, "/api/v1/capabilities",
		map[string]interface{}{"descripcion_capacidad": "Water telemetry", "palabrasClave": []string{"agua"}}, &capability))

	var mine struct {
		Active     bool `json:"activo"`
		Challenges []struct {
			ID       uint   `json:"desafio_id"`
			Keywords string `json:"palabras_coincidentes"`
		} `json:"desafios"`
	}
	require.Equal(t, http.StatusOK, call(t, app, researcher, http.MethodGet, "/api/v1/matching/my-matches", nil, &mine))
	require.False(t, mine.Active)
	require.Empty(t, mine.Challenges)

	require.Equal(t, http.StatusOK, call(t, app, admin, http.MethodPost, "/api/v1/matching/toggle", map[string]bool{"activo": true}, nil))

	require.Equal(t, http.StatusOK, call(t, app, researcher, http.MethodGet, "/api/v1/matching/my-matches", nil, &mine))
	require.True(t, mine.Active)
	require.Len(t, mine.Challenges, 1)
	require.Equal(t, challenge.ID, mine.Challenges[0].ID)
	require.Equal(t, "agua", mine.Challenges[0].Keywords)

	var created struct {
		ID uint `json:"solicitud_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, app, researcher, http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"destinatario_tipo": "externo",
		"destinatario_id":   challenge.ParticipantID,
		"tipo_match":        "desafio",
		"match_id":          challenge.ID,
	}, &created))

	require.Equal(t, http.StatusConflict, call(t, app, participant, http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"destinatario_tipo": "unsa",
		"destinatario_id":   capability.ResearcherID,
		"tipo_match":        "capacidad",
		"match_id":          capability.ID,
	}, nil))

	var pending struct {
		Total int64 `json:"total"`
	}
	require.Equal(t, http.StatusOK, call(t, app, participant, http.MethodGet, "/api/v1/requests/pending/count", nil, &pending))
	require.Equal(t, int64(1), pending.Total)

	respondURL := fmt.Sprintf("/api/v1/requests/%d/respond", created.ID)
	require.Equal(t, http.StatusNotFound, call(t, app, researcher, http.MethodPatch, respondURL, map[string]string{"estado": "aceptada"}, nil))

	var resolved struct {
		Status string `json:"estado"`
		ChatID *uint  `json:"chat_id"`
	}
	require.Equal(t, http.StatusOK, call(t, app, participant, http.MethodPatch, respondURL, map[string]string{"estado": "aceptada"}, &resolved))
	require.Equal(t, "aceptada", resolved.Status)
	require.NotNil(t, resolved.ChatID)

	require.Equal(t, http.StatusNotFound, call(t, app, participant, http.MethodPatch, respondURL, map[string]string{"estado": "rechazada"}, nil))

	messagesURL := fmt.Sprintf("/api/v1/chats/%d/messages", *resolved.ChatID)
	require.Equal(t, http.StatusCreated, call(t, app, researcher, http.MethodPost, messagesURL, map[string]string{"contenido": "Hola, ¿conversamos?"}, nil))

	var unread struct {
		Total int64 `json:"total"`
	}
	require.Equal(t, http.StatusOK, call(t, app, participant, http.MethodGet, "/api/v1/chats/unread/count", nil, &unread))
	require.Equal(t, int64(1), unread.Total)

	var messages []struct {
		Content string `json:"contenido"`
	}
	require.Equal(t, http.StatusOK, call(t, app, participant, http.MethodGet, messagesURL, nil, &messages))
	require.Len(t, messages, 1)
	require.Equal(t, "Hola, ¿conversamos?", messages[0].Content)

	require.Equal(t, http.StatusOK, call(t, app, participant, http.MethodGet, "/api/v1/chats/unread/count", nil, &unread))
	require.Zero(t, unread.Total)

	outsider := tokenFor(t, 300, "externo")
	require.Equal(t, http.StatusForbidden, call(t, app, outsider, http.MethodGet, messagesURL, nil, nil))

	var activity []struct {
		Action string `json:"action"`
	}
	require.Equal(t, http.StatusOK, call(t, app, admin, http.MethodGet, "/api/v1/admin/activity?page_size=50", nil, &activity))
	actions := make([]string, 0, len(activity))
	for _, entry := range activity {
		actions = append(actions, entry.Action)
	}
	require.ElementsMatch(t, []string{
		service.ActionMatchingToggled,
		service.ActionRequestCreated,
		service.ActionRequestResolved,
		service.ActionChatProvisioned,
	}, actions)
}
