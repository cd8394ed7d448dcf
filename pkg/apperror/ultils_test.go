package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"docchat/config"
	"docchat/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h fiber.Handler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestResponses(t *testing.T) {
	t.Run("Should write a bad request with an AI code", func(t *testing.T) {
		code, body := do(t, func(c fiber.Ctx) error {
			return BadRequest(config.ModuleChat, c, status.InvalidParams, "bad title")
		})
		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, "AI-2", body["error_code"])
		assert.Equal(t, "bad title", body["error"])
	})

	t.Run("Should write not found", func(t *testing.T) {
		code, body := do(t, func(c fiber.Ctx) error {
			return NotFound(config.ModuleChat, c, status.ChatNotFound, "chat not found")
		})
		assert.Equal(t, fiber.StatusNotFound, code)
		assert.Equal(t, "AI-4", body["error_code"])
	})

	t.Run("Should keep the code of a coded internal error", func(t *testing.T) {
		code, body := do(t, func(c fiber.Ctx) error {
			err := fmt.Errorf("wrap: %w", status.New(status.IngestFailed, errors.New("embed down")))
			return InternalError(config.ModuleIngest, c, err)
		})
		assert.Equal(t, fiber.StatusInternalServerError, code)
		assert.Equal(t, "AI-1001", body["error_code"])
		assert.Equal(t, "wrap: embed down", body["error"])
	})

	t.Run("Should default to the generic internal code", func(t *testing.T) {
		_, body := do(t, func(c fiber.Ctx) error {
			return InternalError(config.ModuleIngest, c, errors.New("boom"))
		})
		assert.Equal(t, "AI-9000", body["error_code"])
	})

	t.Run("Should echo the request id on success", func(t *testing.T) {
		code, body := do(t, func(c fiber.Ctx) error {
			return Success(config.ModuleChat, c, FiberSuccessMessage{Code: status.Created, Message: "created", Data: 7})
		})
		assert.Equal(t, fiber.StatusCreated, code)
		assert.Equal(t, "req-1", body["tracking_id"])
		assert.EqualValues(t, 7, body["data"])
	})
}
