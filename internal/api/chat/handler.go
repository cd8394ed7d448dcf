package chat

import (
	"context"

	"docchat/config"
	"docchat/internal/api/common"
	"docchat/internal/database/model"
	"docchat/pkg/apperror"
	"docchat/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

type Service interface {
	Create(ctx context.Context, title string) (*model.Chat, error)
	List(ctx context.Context) ([]model.Chat, error)
	Get(ctx context.Context, chatID int64) (*model.Chat, error)
	Rename(ctx context.Context, chatID int64, title string) (*model.Chat, error)
	Delete(ctx context.Context, chatID int64) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type titleRequest struct {
	Title string `json:"title"`
}

func (h *Handler) Create(c fiber.Ctx) error {
	var req titleRequest
	if err := common.DecodeJSON(c, &req); err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidRequestBody, err.Error())
	}
	chat, err := h.svc.Create(c.Context(), req.Title)
	if err != nil {
		return common.HandleError(config.ModuleChat, c, err, status.DatabaseFailed)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:    status.Created,
		Message: "chat created",
		Data:    chat,
	})
}

func (h *Handler) List(c fiber.Ctx) error {
	chats, err := h.svc.List(c.Context())
	if err != nil {
		return common.HandleError(config.ModuleChat, c, err, status.DatabaseFailed)
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chats",
		Data:    chats,
	})
}

func (h *Handler) Get(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidParams, "invalid chatID")
	}
	chat, err := h.svc.Get(c.Context(), chatID)
	if err != nil {
		return common.HandleError(config.ModuleChat, c, err, status.DatabaseFailed)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chat",
		Data:    chat,
	})
}

func (h *Handler) Rename(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidParams, "invalid chatID")
	}
	var req titleRequest
	if err := common.DecodeJSON(c, &req); err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidRequestBody, err.Error())
	}
	chat, err := h.svc.Rename(c.Context(), chatID, req.Title)
	if err != nil {
		return common.HandleError(config.ModuleChat, c, err, status.DatabaseFailed)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chat renamed",
		Data:    chat,
	})
}

func (h *Handler) Delete(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidParams, "invalid chatID")
	}
	if err := h.svc.Delete(c.Context(), chatID); err != nil {
		return common.HandleError(config.ModuleChat, c, err, status.DatabaseFailed)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chat deleted",
		Data:    fiber.Map{"id": chatID},
	})
}
