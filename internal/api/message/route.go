package message

import "github.com/gofiber/fiber/v3"

func RegisterRoutes(r fiber.Router, h *Handler) {
	grp := r.Group("/chats/:chatID")

	grp.Post("/ask", h.Ask)
	grp.Get("/messages", h.List)
}
