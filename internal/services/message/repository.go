package message

import (
	"context"
	"time"

	"docchat/internal/database"
	"docchat/internal/database/model"

	"gorm.io/gorm"
)

type Repository interface {
	ChatExists(ctx context.Context, chatID int64) (bool, error)
	// Append stores the message and bumps the chat's updated_at.
	Append(ctx context.Context, msg *model.Message) error
	ListByChat(ctx context.Context, chatID int64) ([]model.Message, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ChatExists(ctx context.Context, chatID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Chat{}).Where("id = ?", chatID).Count(&count).Error
	return count > 0, err
}

func (r *GormRepository) Append(ctx context.Context, msg *model.Message) error {
	return database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Chat{}).Where("id = ?", msg.ChatID).Update("updated_at", time.Now()).Error
	})
}

func (r *GormRepository) ListByChat(ctx context.Context, chatID int64) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at ASC, id ASC").Find(&msgs).Error
	return msgs, err
}
