// Package message stores the conversation of a chat and answers questions
// against its documents.
package message

import (
	"context"
	"fmt"
	"strings"

	"docchat/config"
	"docchat/internal/core/query"
	"docchat/internal/core/vectorstore"
	"docchat/internal/database/model"
	"docchat/internal/services"
	"docchat/pkg/logger"
)

type Asker interface {
	Ask(ctx context.Context, chatID int64, question string, k int) (query.Answer, error)
}

type Reply struct {
	Answer    string            `json:"answer"`
	MessageID int64             `json:"message_id"`
	Sources   []vectorstore.Hit `json:"sources"`
}

type Service struct {
	repo  Repository
	asker Asker
}

func NewService(repo Repository, asker Asker) *Service {
	return &Service{repo: repo, asker: asker}
}

// Ask records the question, answers it from the chat's documents and records
// the answer. The question stays stored when answering fails. k follows
// query.Asker: k <= 0 means the default and larger values are capped.
func (s *Service) Ask(ctx context.Context, chatID int64, question string, k int) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, fmt.Errorf("%w: %w", services.ErrInvalidInput, query.ErrEmptyQuestion)
	}
	if err := s.ensureChat(ctx, chatID); err != nil {
		return Reply{}, err
	}

	if err := s.repo.Append(ctx, &model.Message{ChatID: chatID, Role: model.RoleUser, Content: question}); err != nil {
		return Reply{}, fmt.Errorf("message: save question: %w", err)
	}

	answer, err := s.asker.Ask(ctx, chatID, question, k)
	if err != nil {
		return Reply{}, err
	}

	reply := &model.Message{ChatID: chatID, Role: model.RoleAssistant, Content: answer.Text}
	if err := s.repo.Append(ctx, reply); err != nil {
		return Reply{}, fmt.Errorf("message: save answer: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"module":     config.ModuleMessage,
		"chat_id":    chatID,
		"message_id": reply.ID,
		"sources":    len(answer.Sources),
	}).Info("message: answered")
	return Reply{Answer: answer.Text, MessageID: reply.ID, Sources: answer.Sources}, nil
}

func (s *Service) List(ctx context.Context, chatID int64) ([]model.Message, error) {
	if err := s.ensureChat(ctx, chatID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("message: list: %w", err)
	}
	return msgs, nil
}

func (s *Service) ensureChat(ctx context.Context, chatID int64) error {
	ok, err := s.repo.ChatExists(ctx, chatID)
	if err != nil {
		return fmt.Errorf("message: chat lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", services.ErrChatNotFound, chatID)
	}
	return nil
}
