package retriever

import (
	"context"
	"strconv"
	"strings"

	"docchat/config"
	"docchat/internal/api/common"
	"docchat/internal/core/vectorstore"
	"docchat/pkg/apperror"
	"docchat/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

type Searcher interface {
	Search(ctx context.Context, chatID int64, question string, k int) ([]vectorstore.Hit, error)
}

type Handler struct {
	searcher Searcher
}

func NewHandler(searcher Searcher) *Handler {
	return &Handler{searcher: searcher}
}

type searchResponse struct {
	Hits []vectorstore.Hit `json:"hits"`
}

// Search returns the raw hits for q without calling the LLM.
func (h *Handler) Search(c fiber.Ctx) error {
	chatID, ok := common.ParamID(c, "chatID")
	if !ok {
		return apperror.BadRequest(config.ModuleQuery, c, status.InvalidParams, "invalid chatID")
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return apperror.BadRequest(config.ModuleQuery, c, status.MissingParams, "q is required")
	}
	topK := 0
	if s := c.Query("top_k"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return apperror.BadRequest(config.ModuleQuery, c, status.InvalidParams, "top_k must be a positive integer")
		}
		topK = v
	}

	hits, err := h.searcher.Search(c.Context(), chatID, q, topK)
	if err != nil {
		return common.HandleError(config.ModuleQuery, c, err, status.VectorStoreFailed)
	}
	if hits == nil {
		hits = []vectorstore.Hit{}
	}
	return apperror.Success(config.ModuleQuery, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "search ok",
		Data:    searchResponse{Hits: hits},
	})
}
