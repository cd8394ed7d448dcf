package model

import "time"

const DefaultChatTitle = "New Chat"

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentProcessed  DocumentStatus = "processed"
	DocumentFailed     DocumentStatus = "failed"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Chat struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`
	Messages  []Message  `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Documents []Document `gorm:"constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

type Document struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID      int64          `gorm:"index;not null" json:"chat_id"`
	Filename    string         `gorm:"size:512;not null" json:"filename"`
	StoragePath string         `gorm:"size:1024;not null" json:"storage_path"`
	SHA256      string         `gorm:"column:sha256;size:64;index" json:"sha256"`
	Status      DocumentStatus `gorm:"size:32;not null;default:uploaded" json:"status"`
	NumChunks   int            `gorm:"not null;default:0" json:"num_chunks"`
	Error       *string        `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Chunks      []Chunk        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    int64     `gorm:"index;not null" json:"chat_id"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Chunk mirrors a stored vector; ID is the vector id.
type Chunk struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	DocumentID  int64     `gorm:"index;not null" json:"document_id"`
	ChatID      int64     `gorm:"index;not null" json:"chat_id"`
	ChunkIndex  int       `gorm:"not null" json:"chunk_index"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Preview     *string   `gorm:"size:2048" json:"preview,omitempty"`
	ContentHash string    `gorm:"size:64;not null" json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// All lists every model for migrations and code generation.
func All() []interface{} {
	return []interface{}{&Chat{}, &Document{}, &Message{}, &Chunk{}}
}
