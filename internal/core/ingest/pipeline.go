// Package ingest runs a PDF through extraction, normalization, chunking,
// embedding and vector storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"docchat/config"
	"docchat/internal/core/chunker"
	"docchat/internal/core/embedder"
	"docchat/internal/core/textnorm"
	"docchat/internal/core/vectorstore"
	"docchat/pkg/logger"

	"github.com/google/uuid"
)

// ErrNoText means the PDF produced no usable text, e.g. a scanned document.
var ErrNoText = errors.New("ingest: no text found in pdf")

type PageExtractor interface {
	Pages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error)
}

type Input struct {
	ChatID     int64
	DocumentID int64
	Source     string
	PDF        io.ReaderAt
	Size       int64
}

type Chunk struct {
	ID    string
	Index int
	Text  string
}

type Result struct {
	Pages  int
	Chunks []Chunk
}

type Pipeline struct {
	extractor PageExtractor
	splitter  *chunker.Splitter
	embedder  embedder.Embedder
	store     vectorstore.Store
	newID     func() string
}

func New(extractor PageExtractor, splitter *chunker.Splitter, emb embedder.Embedder, store vectorstore.Store) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		splitter:  splitter,
		embedder:  emb,
		store:     store,
		newID:     uuid.NewString,
	}
}

// Run ingests one document into its chat's collection.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	fields := map[string]interface{}{
		"module":      config.ModuleIngest,
		"chat_id":     in.ChatID,
		"document_id": in.DocumentID,
		"source":      in.Source,
	}

	pages, err := p.extractor.Pages(ctx, in.PDF, in.Size)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: extract: %w", err)
	}
	logger.WithFields(fields).WithField("pages", len(pages)).Info("ingest: extracted pages")

	texts := p.splitter.Split(textnorm.Normalize(pages))
	if len(texts) == 0 {
		return Result{Pages: len(pages)}, ErrNoText
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return Result{}, fmt.Errorf("ingest: embed: got %d vectors for %d chunks", len(vectors), len(texts))
	}

	chunks := make([]Chunk, len(texts))
	records := make([]vectorstore.Record, len(texts))
	for i, text := range texts {
		id := p.newID()
		chunks[i] = Chunk{ID: id, Index: i, Text: text}
		records[i] = vectorstore.Record{
			ID:     id,
			Vector: vectors[i],
			Text:   text,
			Metadata: vectorstore.Metadata{
				ChatID:     in.ChatID,
				DocumentID: in.DocumentID,
				ChunkIndex: i,
				Source:     in.Source,
			},
		}
	}

	collection := vectorstore.CollectionName(in.ChatID)
	if err := p.store.Upsert(ctx, collection, records); err != nil {
		return Result{}, fmt.Errorf("ingest: upsert: %w", err)
	}

	logger.WithFields(fields).WithFields(map[string]interface{}{
		"chunks":     len(chunks),
		"collection": collection,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("ingest: done")
	return Result{Pages: len(pages), Chunks: chunks}, nil
}

// Plan normalizes pages and chunks the result without embedding anything.
func (p *Pipeline) Plan(pages []string) ([]string, []chunker.Span) {
	return p.splitter.SplitSpans(textnorm.Normalize(pages))
}
