package chat

import "github.com/gofiber/fiber/v3"

func RegisterRoutes(r fiber.Router, h *Handler) {
	grp := r.Group("/chats")

	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:chatID", h.Get)
	grp.Put("/:chatID", h.Rename)
	grp.Delete("/:chatID", h.Delete)
}
