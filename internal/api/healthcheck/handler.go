package healthcheck

import (
	"context"
	"time"

	"docchat/config"
	"docchat/pkg/apperror"
	"docchat/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

const checkTimeout = 2 * time.Second

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

type Handler struct {
	database    PingFunc
	vectorStore PingFunc
}

func NewHandler(database, vectorStore PingFunc) *Handler {
	return &Handler{database: database, vectorStore: vectorStore}
}

func (h *Handler) ApiHealthCheck(c fiber.Ctx) error {
	return c.SendString("ok")
}

func (h *Handler) DatabaseHealthCheck(c fiber.Ctx) error {
	return check(c, config.ModuleDatabase, status.DatabaseFailed, h.database)
}

func (h *Handler) VectorStoreHealthCheck(c fiber.Ctx) error {
	return check(c, config.ModuleVectorStore, status.VectorStoreFailed, h.vectorStore)
}

func check(c fiber.Ctx, module config.Module, code status.ErrorCode, ping PingFunc) error {
	ctx, cancel := context.WithTimeout(c.Context(), checkTimeout)
	defer cancel()
	if err := ping(ctx); err != nil {
		return apperror.InternalError(module, c, status.New(code, err))
	}
	return c.SendString("ok")
}
