// Package common holds request parsing and error mapping shared by the
// route packages.
package common

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"docchat/config"
	"docchat/internal/core/extract"
	"docchat/internal/core/ingest"
	"docchat/internal/core/query"
	"docchat/internal/services"
	"docchat/pkg/apperror"
	"docchat/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

// ParamID parses a positive int64 route parameter.
func ParamID(c fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// QueryBool accepts 1, true and yes.
func QueryBool(c fiber.Ctx, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// HandleError maps service errors onto the API envelope. Anything that is not
// a client error is reported as internal with the given code.
func HandleError(module config.Module, c fiber.Ctx, err error, internal status.ErrorCode) error {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		return apperror.NotFound(module, c, status.DocumentNotFound, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return apperror.NotFound(module, c, status.ChatNotFound, err.Error())
	case errors.Is(err, query.ErrEmptyQuestion):
		return apperror.BadRequest(module, c, status.EmptyQuestion, "message is required")
	case errors.Is(err, services.ErrInvalidInput):
		return apperror.BadRequest(module, c, status.InvalidParams, err.Error())
	case errors.Is(err, ingest.ErrNoText):
		return apperror.BadRequest(module, c, status.InvalidFile, "No text found in PDF.")
	case errors.Is(err, services.ErrInvalidFile), errors.Is(err, extract.ErrUnreadablePDF):
		return apperror.BadRequest(module, c, status.InvalidFile, err.Error())
	}
	return apperror.InternalError(module, c, status.New(internal, err))
}

// DecodeJSON reads the request body into out. An empty body leaves out as is.
func DecodeJSON(c fiber.Ctx, out any) error {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
