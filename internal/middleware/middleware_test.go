package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"docchat/config"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionLimiter(t *testing.T) {
	l := NewConnectionLimiter(2)
	assert.True(t, l.Acquire())
	assert.True(t, l.Acquire())
	assert.False(t, l.Acquire(), "third slot must be refused")
	l.Release()
	assert.True(t, l.Acquire())
	l.Release()
	l.Release()
	l.Release()
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Default()
	app := fiber.New()
	Register(app, &cfg)
	app.Get("/echo", func(c fiber.Ctx) error {
		return c.SendString(c.Get(fiber.HeaderXRequestID))
	})
	app.Get("/panic", func(c fiber.Ctx) error {
		panic("boom")
	})
	return app
}

func TestRequestID(t *testing.T) {
	app := newApp(t)

	t.Run("Should generate an id when missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/echo", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		id := resp.Header.Get(fiber.HeaderXRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, string(body), "handlers must see the generated id")
	})

	t.Run("Should keep a client id", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/echo", nil)
		req.Header.Set(fiber.HeaderXRequestID, "client-42")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "client-42", resp.Header.Get(fiber.HeaderXRequestID))
	})
}

func TestPanicRecovery(t *testing.T) {
	app := newApp(t)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "AI-9000", body["error_code"])
}

func TestCORS(t *testing.T) {
	app := newApp(t)
	req := httptest.NewRequest(fiber.MethodGet, "/echo", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:5500")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5500", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(fiber.MethodGet, "/echo", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}
