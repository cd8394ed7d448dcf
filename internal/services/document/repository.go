package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"docchat/internal/core/ingest"
	"docchat/internal/database"
	"docchat/internal/database/model"

	"gorm.io/gorm"
)

const previewRunes = 512

type Repository interface {
	ChatExists(ctx context.Context, chatID int64) (bool, error)
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, chatID, docID int64) (*model.Document, error)
	ListByChat(ctx context.Context, chatID int64) ([]model.Document, error)
	UpdateStatus(ctx context.Context, docID int64, status model.DocumentStatus, numChunks int, errText *string) error
	HasChunks(ctx context.Context, docID int64) (bool, error)
	ReplaceChunks(ctx context.Context, docID int64, chunks []model.Chunk) error
	Delete(ctx context.Context, docID int64) error
	CountByStoragePath(ctx context.Context, path string) (int64, error)
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

func (r *GormRepository) Create(ctx context.Context, doc *model.Document) error {
	return database.CreateEntity(ctx, r.db, doc)
}

func (r *GormRepository) Get(ctx context.Context, chatID, docID int64) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Where("id = ? AND chat_id = ?", docID, chatID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *GormRepository) ListByChat(ctx context.Context, chatID int64) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at ASC, id ASC").Find(&docs).Error
	return docs, err
}

func (r *GormRepository) UpdateStatus(ctx context.Context, docID int64, status model.DocumentStatus, numChunks int, errText *string) error {
	return database.UpdateEntityByID[model.Document](ctx, r.db, docID, map[string]interface{}{
		"status":     status,
		"num_chunks": numChunks,
		"error":      errText,
	})
}

func (r *GormRepository) HasChunks(ctx context.Context, docID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Chunk{}).Where("document_id = ?", docID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) ReplaceChunks(ctx context.Context, docID int64, chunks []model.Chunk) error {
	return database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 200).Error
	})
}

func (r *GormRepository) Delete(ctx context.Context, docID int64) error {
	return database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		return database.DeleteEntityByID[model.Document](ctx, tx, docID)
	})
}

func (r *GormRepository) CountByStoragePath(ctx context.Context, path string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Where("storage_path = ?", path).Count(&count).Error
	return count, err
}

// chunkRows turns pipeline output into persisted chunk rows.
func chunkRows(chatID, docID int64, chunks []ingest.Chunk) []model.Chunk {
	rows := make([]model.Chunk, len(chunks))
	for i, ch := range chunks {
		h := sha256.Sum256([]byte(ch.Text))
		preview := buildPreview(ch.Text, previewRunes)
		rows[i] = model.Chunk{
			ID:          ch.ID,
			DocumentID:  docID,
			ChatID:      chatID,
			ChunkIndex:  ch.Index,
			Content:     ch.Text,
			Preview:     &preview,
			ContentHash: hex.EncodeToString(h[:]),
		}
	}
	return rows
}

// buildPreview keeps printable runes and common whitespace, truncated by
// runes so multi-byte sequences stay intact.
func buildPreview(s string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(s))
	count := 0
	for _, r := range s {
		if r == '\uFEFF' {
			continue
		}
		if r != '\n' && r != '\t' && r != '\r' && !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
		count++
		if count >= maxRunes {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
