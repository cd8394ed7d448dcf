package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"docchat/internal/database/model"
	"docchat/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	chats   map[int64]*model.Chat
	deleted []int64
	err     error
}

func (f *fakeService) Create(_ context.Context, title string) (*model.Chat, error) {
	if f.err != nil {
		return nil, f.err
	}
	if title == "" {
		title = model.DefaultChatTitle
	}
	c := &model.Chat{ID: int64(len(f.chats) + 1), Title: title}
	f.chats[c.ID] = c
	return c, nil
}

func (f *fakeService) List(context.Context) ([]model.Chat, error) {
	var out []model.Chat
	for id := int64(1); id <= int64(len(f.chats)); id++ {
		out = append(out, *f.chats[id])
	}
	return out, f.err
}

func (f *fakeService) Get(_ context.Context, chatID int64) (*model.Chat, error) {
	c, ok := f.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", services.ErrChatNotFound, chatID)
	}
	return c, nil
}

func (f *fakeService) Rename(ctx context.Context, chatID int64, title string) (*model.Chat, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", services.ErrInvalidInput)
	}
	c, err := f.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	c.Title = title
	return c, nil
}

func (f *fakeService) Delete(_ context.Context, chatID int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.chats[chatID]; !ok {
		return fmt.Errorf("%w: %d", services.ErrChatNotFound, chatID)
	}
	delete(f.chats, chatID)
	f.deleted = append(f.deleted, chatID)
	return nil
}

func newTestApp(svc Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, NewHandler(svc))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestChatRoutes(t *testing.T) {
	svc := &fakeService{chats: map[int64]*model.Chat{}}
	app := newTestApp(svc)

	t.Run("Should create a chat with the default title", func(t *testing.T) {
		code, body := call(t, app, fiber.MethodPost, "/chats", "")
		assert.Equal(t, fiber.StatusCreated, code)
		data := body["data"].(map[string]any)
		assert.Equal(t, model.DefaultChatTitle, data["title"])
	})

	t.Run("Should create a chat with a title", func(t *testing.T) {
		code, body := call(t, app, fiber.MethodPost, "/chats", `{"title":"Papers"}`)
		assert.Equal(t, fiber.StatusCreated, code)
		assert.Equal(t, "Papers", body["data"].(map[string]any)["title"])
	})

	t.Run("Should reject malformed json", func(t *testing.T) {
		code, body := call(t, app, fiber.MethodPost, "/chats", `{"title":`)
		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, "AI-0", body["error_code"])
	})

	t.Run("Should list chats", func(t *testing.T) {
		code, body := call(t, app, fiber.MethodGet, "/chats", "")
		assert.Equal(t, fiber.StatusOK, code)
		assert.Len(t, body["data"], 2)
	})

	t.Run("Should rename a chat", func(t *testing.T) {
		code, body := call(t, app, fiber.MethodPut, "/chats/2", `{"title":"Renamed"}`)
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, "Renamed", body["data"].(map[string]any)["title"])
	})

	t.Run("Should reject an empty rename", func(t *testing.T) {
		code, body := call(t, app, fiber.MethodPut, "/chats/2", `{"title":" "}`)
		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, "AI-2", body["error_code"])
	})

	t.Run("Should return 404 for unknown chats", func(t *testing.T) {
		code, body := call(t, app, fiber.MethodGet, "/chats/99", "")
		assert.Equal(t, fiber.StatusNotFound, code)
		assert.Equal(t, "AI-4", body["error_code"])
	})

	t.Run("Should validate the id", func(t *testing.T) {
		code, _ := call(t, app, fiber.MethodGet, "/chats/abc", "")
		assert.Equal(t, fiber.StatusBadRequest, code)
	})

	t.Run("Should delete a chat", func(t *testing.T) {
		code, _ := call(t, app, fiber.MethodDelete, "/chats/1", "")
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, []int64{1}, svc.deleted)
	})
}

func TestChatInternalError(t *testing.T) {
	app := newTestApp(&fakeService{chats: map[int64]*model.Chat{}, err: errors.New("db down")})
	code, body := call(t, app, fiber.MethodGet, "/chats", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "AI-1003", body["error_code"])
}
