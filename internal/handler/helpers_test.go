package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vincula-api/internal/models"
)

// asCaller stands in for the JWT and profile middlewares.
func asCaller(accountID uint, role string, profile models.ProfileRef) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", accountID)
		c.Locals("user_role", role)
		if profile.Kind.Valid() {
			c.Locals("profile_kind", profile.Kind)
			c.Locals("profile_id", profile.ID)
		}
		return c.Next()
	}
}

func researcherCaller() fiber.Handler {
	return asCaller(11, "unsa", models.ProfileRef{Kind: models.ProfileKindInternal, ID: 1})
}

func participantCaller() fiber.Handler {
	return asCaller(12, "externo", models.ProfileRef{Kind: models.ProfileKindExternal, ID: 2})
}

func adminCaller() fiber.Handler {
	return asCaller(1, "admin", models.ProfileRef{})
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}
