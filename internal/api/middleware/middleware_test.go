package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/postcraft/postcraft-api/configs"
	"github.com/postcraft/postcraft-api/internal/api/handlers"
	"github.com/postcraft/postcraft-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newGatedApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(Metrics())
	mw := NewAuthMiddleware(config.Config{SecretKey: testSecret})
	app.Get("/api/me", mw.Handler(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": handlers.GetUserID(c), "email": c.Locals("email")})
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := utils.GenerateToken(testSecret, 42, "alice@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(testSecret, 42, "alice@example.com", -time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateToken("other-secret", 42, "alice@example.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + valid, want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, want: http.StatusOK},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, want: http.StatusUnauthorized},
		{name: "no token", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "malformed", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "bad signature", header: "Bearer " + forged, want: http.StatusUnauthorized},
	}

	app := newGatedApp()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_SetsCaller(t *testing.T) {
	token, err := utils.GenerateToken(testSecret, 42, "alice@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := newGatedApp().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID int64  `json:"user_id"`
		Email  string `json:"email"`
	}
	require.NoError(t, decodeJSON(resp, &body))
	assert.Equal(t, int64(42), body.UserID)
	assert.Equal(t, "alice@example.com", body.Email)
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func TestRateLimit(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Post("/auth/signin", RateLimit(2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/signin", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/signin", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, decodeJSON(resp, &body))
	assert.Equal(t, "rate_limited", body.Error.Code)
}
