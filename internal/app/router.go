package app

import (
	"time"

	"docchat/internal/api/chat"
	"docchat/internal/api/document"
	"docchat/internal/api/healthcheck"
	"docchat/internal/api/message"
	"docchat/internal/api/retriever"
	"docchat/internal/middleware"

	"github.com/gofiber/fiber/v3"
)

// Router mounts middleware and every route on a new fiber app.
func (a *App) Router() *fiber.App {
	srv := a.Config.Server
	router := fiber.New(fiber.Config{
		AppName:      srv.AppName,
		BodyLimit:    srv.BodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(a.Config.Ingest.TimeoutSecond+30) * time.Second,
	})
	middleware.Register(router, a.Config)

	healthcheck.RegisterRoutes(router, healthcheck.NewHandler(a.PingDatabase, a.Vectors.Ping))
	if a.Chats != nil {
		chat.RegisterRoutes(router, chat.NewHandler(a.Chats))
		document.RegisterRoutes(router, document.NewHandler(a.Documents))
		message.RegisterRoutes(router, message.NewHandler(a.Messages))
	}
	retriever.RegisterRoutes(router, retriever.NewHandler(a.Retriever))
	return router
}
