package chat

import (
	"context"

	"docchat/internal/database"
	"docchat/internal/database/model"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, chat *model.Chat) error
	List(ctx context.Context) ([]model.Chat, error)
	// Get loads the chat with its messages in creation order.
	Get(ctx context.Context, chatID int64) (*model.Chat, error)
	Rename(ctx context.Context, chatID int64, title string) error
	StoragePaths(ctx context.Context, chatID int64) ([]string, error)
	// Delete removes the chat with its messages, documents and chunks.
	Delete(ctx context.Context, chatID int64) error
	CountByStoragePath(ctx context.Context, path string) (int64, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, chat *model.Chat) error {
	return database.CreateEntity(ctx, r.db, chat)
}

func (r *GormRepository) List(ctx context.Context) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.WithContext(ctx).Order("updated_at DESC, id DESC").Find(&chats).Error
	return chats, err
}

func (r *GormRepository) Get(ctx context.Context, chatID int64) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&chat, chatID).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *GormRepository) Rename(ctx context.Context, chatID int64, title string) error {
	return database.UpdateEntityByID[model.Chat](ctx, r.db, chatID, map[string]interface{}{"title": title})
}

func (r *GormRepository) StoragePaths(ctx context.Context, chatID int64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("chat_id = ?", chatID).Distinct().Pluck("storage_path", &paths).Error
	return paths, err
}

func (r *GormRepository) Delete(ctx context.Context, chatID int64) error {
	return database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Chat{}, chatID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

func (r *GormRepository) CountByStoragePath(ctx context.Context, path string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Where("storage_path = ?", path).Count(&count).Error
	return count, err
}
