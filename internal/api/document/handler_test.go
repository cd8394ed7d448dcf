package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"docchat/internal/core/ingest"
	"docchat/internal/database/model"
	"docchat/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	uploaded  string
	content   string
	lastForce bool
	uploadErr error
}

func (f *fakeService) Upload(_ context.Context, chatID int64, filename string, r io.Reader) (*model.Document, error) {
	if chatID != 1 {
		return nil, fmt.Errorf("%w: %d", services.ErrChatNotFound, chatID)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are supported", services.ErrInvalidFile)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded, f.content = filename, string(body)
	doc := &model.Document{ID: 7, ChatID: chatID, Filename: filename, Status: model.DocumentProcessed, NumChunks: 3}
	if f.uploadErr != nil {
		doc.Status = model.DocumentFailed
		return doc, f.uploadErr
	}
	return doc, nil
}

func (f *fakeService) List(_ context.Context, chatID int64) ([]model.Document, error) {
	if chatID != 1 {
		return nil, fmt.Errorf("%w: %d", services.ErrChatNotFound, chatID)
	}
	return nil, nil
}

func (f *fakeService) Ingest(_ context.Context, chatID, docID int64, force bool) (*model.Document, error) {
	f.lastForce = force
	if docID != 7 {
		return nil, fmt.Errorf("%w: %d", services.ErrDocumentNotFound, docID)
	}
	return &model.Document{ID: docID, ChatID: chatID, Status: model.DocumentProcessed}, nil
}

func (f *fakeService) Delete(_ context.Context, _ int64, docID int64) error {
	if docID != 7 {
		return fmt.Errorf("%w: %d", services.ErrDocumentNotFound, docID)
	}
	return nil
}

func newTestApp(svc Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, NewHandler(svc))
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func uploadRequest(t *testing.T, path, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(fiber.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	t.Run("Should upload and return the processed document", func(t *testing.T) {
		svc := &fakeService{}
		resp, err := newTestApp(svc).Test(uploadRequest(t, "/chats/1/documents", "file", "paper.pdf", "%PDF-1.4"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		body := decode(t, resp)
		data := body["data"].(map[string]any)
		assert.Equal(t, "processed", data["status"])
		assert.Equal(t, "paper.pdf", svc.uploaded)
		assert.Equal(t, "%PDF-1.4", svc.content)
	})

	t.Run("Should require the file field", func(t *testing.T) {
		resp, err := newTestApp(&fakeService{}).Test(uploadRequest(t, "/chats/1/documents", "other", "paper.pdf", "x"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "AI-1", decode(t, resp)["error_code"])
	})

	t.Run("Should reject non-pdf uploads", func(t *testing.T) {
		resp, err := newTestApp(&fakeService{}).Test(uploadRequest(t, "/chats/1/documents", "file", "notes.txt", "x"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "AI-3", decode(t, resp)["error_code"])
	})

	t.Run("Should map a text-less pdf to a bad request", func(t *testing.T) {
		svc := &fakeService{uploadErr: fmt.Errorf("ingest: %w", ingest.ErrNoText)}
		resp, err := newTestApp(svc).Test(uploadRequest(t, "/chats/1/documents", "file", "scan.pdf", "%PDF"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, "No text found in PDF.", body["error"])
	})

	t.Run("Should report ingestion failures as internal", func(t *testing.T) {
		svc := &fakeService{uploadErr: fmt.Errorf("ingest: embed: timeout")}
		resp, err := newTestApp(svc).Test(uploadRequest(t, "/chats/1/documents", "file", "a.pdf", "%PDF"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "AI-1001", decode(t, resp)["error_code"])
	})

	t.Run("Should report unknown chats", func(t *testing.T) {
		resp, err := newTestApp(&fakeService{}).Test(uploadRequest(t, "/chats/2/documents", "file", "a.pdf", "%PDF"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "AI-4", decode(t, resp)["error_code"])
	})
}

func TestDocumentRoutes(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc)

	t.Run("Should list an empty chat as an empty array", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/chats/1/documents", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []any{}, decode(t, resp)["data"])
	})

	t.Run("Should pass force to re-ingestion", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/chats/1/documents/7/ingest?force=1", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, svc.lastForce)

		resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/chats/1/documents/7/ingest", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.False(t, svc.lastForce)
	})

	t.Run("Should return 404 for unknown documents", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/chats/1/documents/8", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "AI-5", decode(t, resp)["error_code"])
	})

	t.Run("Should delete a document", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/chats/1/documents/7", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
