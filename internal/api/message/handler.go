package message

import (
	"context"

	"docchat/config"
	"docchat/internal/api/common"
	"docchat/internal/database/model"
	msgsvc "docchat/internal/services/message"
	"docchat/pkg/apperror"
	"docchat/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

type Service interface {
	Ask(ctx context.Context, chatID int64, question string, k int) (msgsvc.Reply, error)
	List(ctx context.Context, chatID int64) ([]model.Message, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type askRequest struct {
	Message   string `json:"message"`
	MaxChunks int    `json:"max_chunks"`
}

func (h *Handler) Ask(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleMessage, c, status.InvalidParams, "invalid chatID")
	}
	var req askRequest
	if err := common.DecodeJSON(c, &req); err != nil {
		return apperror.BadRequest(config.ModuleMessage, c, status.InvalidRequestBody, err.Error())
	}
	if req.MaxChunks < 0 {
		return apperror.BadRequest(config.ModuleMessage, c, status.InvalidParams, "max_chunks must be positive")
	}
	reply, err := h.svc.Ask(c.Context(), chatID, req.Message, req.MaxChunks)
	if err != nil {
		return common.HandleError(config.ModuleMessage, c, err, status.QueryFailed)
	}
	return apperror.Success(config.ModuleMessage, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "answered",
		Data:    reply,
	})
}

func (h *Handler) List(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleMessage, c, status.InvalidParams, "invalid chatID")
	}
	msgs, err := h.svc.List(c.Context(), chatID)
	if err != nil {
		return common.HandleError(config.ModuleMessage, c, err, status.DatabaseFailed)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return apperror.Success(config.ModuleMessage, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "messages",
		Data:    msgs,
	})
}
