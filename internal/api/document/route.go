package document

import "github.com/gofiber/fiber/v3"

func RegisterRoutes(r fiber.Router, h *Handler) {
	grp := r.Group("/chats/:chatID/documents")

	grp.Post("/", h.Upload)
	grp.Get("/", h.List)
	grp.Post("/:docID/ingest", h.Ingest)
	grp.Delete("/:docID", h.Delete)
}
