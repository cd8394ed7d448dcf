package document

import (
	"context"
	"io"

	"docchat/config"
	"docchat/internal/api/common"
	"docchat/internal/database/model"
	"docchat/pkg/apperror"
	"docchat/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

type Service interface {
	Upload(ctx context.Context, chatID int64, filename string, r io.Reader) (*model.Document, error)
	List(ctx context.Context, chatID int64) ([]model.Document, error)
	Ingest(ctx context.Context, chatID, docID int64, force bool) (*model.Document, error)
	Delete(ctx context.Context, chatID, docID int64) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Upload accepts a multipart "file" field and ingests it before answering.
func (h *Handler) Upload(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleDocument, c, status.InvalidParams, "invalid chatID")
	}
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return apperror.BadRequest(config.ModuleDocument, c, status.MissingParams, "file is required")
	}
	if fh.Size == 0 {
		return apperror.BadRequest(config.ModuleDocument, c, status.InvalidFile, "empty file")
	}
	file, err := fh.Open()
	if err != nil {
		return apperror.BadRequest(config.ModuleDocument, c, status.InvalidFile, "cannot open file")
	}
	defer file.Close()

	doc, err := h.svc.Upload(c.Context(), chatID, fh.Filename, file)
	if err != nil {
		return common.HandleError(config.ModuleDocument, c, err, status.IngestFailed)
	}
	return apperror.Success(config.ModuleDocument, c, apperror.FiberSuccessMessage{
		Code:    status.Created,
		Message: "document processed",
		Data:    doc,
	})
}

func (h *Handler) List(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleDocument, c, status.InvalidParams, "invalid chatID")
	}
	docs, err := h.svc.List(c.Context(), chatID)
	if err != nil {
		return common.HandleError(config.ModuleDocument, c, err, status.DatabaseFailed)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return apperror.Success(config.ModuleDocument, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "documents",
		Data:    docs,
	})
}

// Ingest re-runs ingestion; ?force=1 replaces existing chunks.
func (h *Handler) Ingest(c fiber.Ctx) error {
	chatID, docID, ok := ids(c)
	if !ok {
		return apperror.BadRequest(config.ModuleIngest, c, status.InvalidParams, "invalid chatID or docID")
	}
	doc, err := h.svc.Ingest(c.Context(), chatID, docID, common.QueryBool(c, "force"))
	if err != nil {
		return common.HandleError(config.ModuleIngest, c, err, status.IngestFailed)
	}
	return apperror.Success(config.ModuleIngest, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "ingest done",
		Data:    doc,
	})
}

func (h *Handler) Delete(c fiber.Ctx) error {
	chatID, docID, ok := ids(c)
	if !ok {
		return apperror.BadRequest(config.ModuleDocument, c, status.InvalidParams, "invalid chatID or docID")
	}
	if err := h.svc.Delete(c.Context(), chatID, docID); err != nil {
		return common.HandleError(config.ModuleDocument, c, err, status.VectorStoreFailed)
	}
	return apperror.Success(config.ModuleDocument, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "document deleted",
		Data:    fiber.Map{"id": docID},
	})
}

func ids(c fiber.Ctx) (int64, int64, bool) {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return 0, 0, false
	}
	docID, ok := common.ParamID(c, "docID")
	return chatID, docID, ok
}
