// Package services holds the business operations behind the HTTP API.
package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidFile  = errors.New("invalid file")
	ErrInvalidInput = errors.New("invalid input")

	ErrChatNotFound     = fmt.Errorf("chat %w", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
)
