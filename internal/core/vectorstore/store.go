// Package vectorstore keeps chunk embeddings in per-chat collections.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

// Metadata travels with every vector.
type Metadata struct {
	ChatID     int64  `json:"chat_id"`
	DocumentID int64  `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Source     string `json:"source"`
}

type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

type Hit struct {
	ID       string   `json:"id"`
	Score    float32  `json:"score"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Store is implemented by the milvus, qdrant and memory backends.
type Store interface {
	// Upsert creates the collection on first use, sized to the records' vectors.
	Upsert(ctx context.Context, collection string, records []Record) error
	// Search returns at most k hits, best first. A missing collection yields no hits.
	Search(ctx context.Context, collection string, vector []float32, k int) ([]Hit, error)
	DeleteDocument(ctx context.Context, collection string, documentID int64) error
	// DropCollection is a no-op for a missing collection.
	DropCollection(ctx context.Context, collection string) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrDimensionMismatch = errors.New("vectorstore: vector dimension mismatch")

// CollectionName is the collection holding every chunk of one chat.
func CollectionName(chatID int64) string {
	return fmt.Sprintf("chat_%d_collection", chatID)
}

// dimension checks that all records share one non-zero vector size.
func dimension(records []Record) (int, error) {
	dim := len(records[0].Vector)
	if dim == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	for _, r := range records {
		if len(r.Vector) != dim {
			return 0, fmt.Errorf("%w: %d and %d", ErrDimensionMismatch, dim, len(r.Vector))
		}
	}
	return dim, nil
}
