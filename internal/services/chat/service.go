// Package chat manages chats and everything they own.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docchat/config"
	"docchat/internal/core/vectorstore"
	"docchat/internal/database"
	"docchat/internal/database/model"
	"docchat/internal/services"
	"docchat/internal/storage"
	"docchat/pkg/logger"
)

const maxTitleLen = 255

type Service struct {
	repo    Repository
	files   storage.Storage
	vectors vectorstore.Store
}

func NewService(repo Repository, files storage.Storage, vectors vectorstore.Store) *Service {
	return &Service{repo: repo, files: files, vectors: vectors}
}

// Create starts a chat. An empty title becomes model.DefaultChatTitle.
func (s *Service) Create(ctx context.Context, title string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultChatTitle
	}
	if len([]rune(title)) > maxTitleLen {
		return nil, fmt.Errorf("%w: title longer than %d characters", services.ErrInvalidInput, maxTitleLen)
	}
	c := &model.Chat{Title: title}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("chat: create: %w", err)
	}
	return c, nil
}

// List returns chats, most recently updated first.
func (s *Service) List(ctx context.Context) ([]model.Chat, error) {
	chats, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: list: %w", err)
	}
	return chats, nil
}

func (s *Service) Get(ctx context.Context, chatID int64) (*model.Chat, error) {
	c, err := s.repo.Get(ctx, chatID)
	if err != nil {
		return nil, notFound("get", chatID, err)
	}
	return c, nil
}

func (s *Service) Rename(ctx context.Context, chatID int64, title string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", services.ErrInvalidInput)
	}
	if len([]rune(title)) > maxTitleLen {
		return nil, fmt.Errorf("%w: title longer than %d characters", services.ErrInvalidInput, maxTitleLen)
	}
	if _, err := s.Get(ctx, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, chatID, title); err != nil {
		return nil, fmt.Errorf("chat: rename: %w", err)
	}
	return s.Get(ctx, chatID)
}

// Delete removes the chat rows, drops its collection and releases files no
// other chat references. Once the rows are gone the chat is deleted: a failed
// drop or file removal is logged, not returned.
func (s *Service) Delete(ctx context.Context, chatID int64) error {
	paths, err := s.repo.StoragePaths(ctx, chatID)
	if err != nil {
		return fmt.Errorf("chat: list files: %w", err)
	}
	if err := s.repo.Delete(ctx, chatID); err != nil {
		return notFound("delete", chatID, err)
	}

	fields := map[string]interface{}{"module": config.ModuleChat, "chat_id": chatID}
	collection := vectorstore.CollectionName(chatID)
	if err := s.vectors.DropCollection(ctx, collection); err != nil {
		logger.WithFields(fields).WithField("collection", collection).Errorf("chat: drop collection: %v", err)
	}
	for _, p := range paths {
		refs, err := s.repo.CountByStoragePath(ctx, p)
		if err != nil {
			logger.WithFields(fields).WithField("path", p).Warnf("chat: count references: %v", err)
			continue
		}
		if refs > 0 {
			continue
		}
		if err := s.files.Delete(ctx, p); err != nil {
			logger.WithFields(fields).WithField("path", p).Warnf("chat: delete file: %v", err)
		}
	}
	logger.WithFields(fields).WithField("files", len(paths)).Info("chat: deleted")
	return nil
}

func notFound(op string, chatID int64, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %d", services.ErrChatNotFound, chatID)
	}
	return fmt.Errorf("chat: %s: %w", op, err)
}
