// Package app builds the long-lived service context once at startup. Every
// client lives here and is handed to the layers that need it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docchat/config"
	"docchat/internal/core/chunker"
	"docchat/internal/core/embedder"
	"docchat/internal/core/extract"
	"docchat/internal/core/ingest"
	"docchat/internal/core/llm"
	"docchat/internal/core/query"
	"docchat/internal/core/retriever"
	"docchat/internal/core/vectorstore"
	"docchat/internal/database"
	"docchat/internal/services/chat"
	"docchat/internal/services/document"
	"docchat/internal/services/message"
	"docchat/internal/storage"
	"docchat/pkg/logger"

	"gorm.io/gorm"
)

type App struct {
	Config *config.Config

	Vectors   vectorstore.Store
	Embedder  embedder.Embedder
	LLM       llm.Completer
	Pipeline  *ingest.Pipeline
	Retriever *retriever.Retriever
	Asker     *query.Asker

	DB        *gorm.DB
	Files     storage.Storage
	Chats     *chat.Service
	Documents *document.Service
	Messages  *message.Service

	closers []func() error
}

// NewCore builds the retrieval stack only: vector store, OpenAI clients,
// ingest pipeline and asker. The CLI runs on this.
func NewCore(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.initCore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// New builds the full service: the core plus database, file storage and
// the chat, document and message services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.initCore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.initServices(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) initCore(ctx context.Context) error {
	cfg := a.Config

	store, err := vectorstore.Open(ctx, cfg)
	if err != nil {
		return err
	}
	a.Vectors = store
	a.closers = append(a.closers, store.Close)
	logger.Info("%v: %s store ready", config.ModuleVectorStore, cfg.VectorStore.Type)

	emb, err := NewEmbedder(cfg)
	if err != nil {
		return err
	}
	a.Embedder = emb

	completer, err := llm.NewOpenAI(llm.Options{
		APIKey:      cfg.OpenAI.Key,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		MaxRetries:  2,
	})
	if err != nil {
		return err
	}
	a.LLM = completer

	splitter, err := NewSplitter(cfg)
	if err != nil {
		return err
	}
	a.Pipeline = ingest.New(NewExtractor(cfg), splitter, a.Embedder, a.Vectors)

	q := cfg.Query
	a.Retriever = retriever.New(a.Embedder, a.Vectors, retriever.Options{
		DefaultK:      q.DefaultK,
		EmbedTimeout:  time.Duration(q.EmbedTimeoutMs) * time.Millisecond,
		SearchTimeout: time.Duration(q.SearchTimeoutMs) * time.Millisecond,
	})
	a.Asker = query.NewAsker(a.Retriever, a.LLM, query.Options{
		MaxContextChars: q.MaxContextChars,
		LLMTimeout:      time.Duration(q.LLMTimeoutMs) * time.Millisecond,
	})
	return nil
}

func (a *App) initServices(ctx context.Context) error {
	cfg := a.Config

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	a.DB = db
	a.closers = append(a.closers, func() error { return database.Close(db) })
	logger.Info("%v: connected to %s:%d/%s", config.ModuleDatabase, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	files, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	a.Files = files
	logger.Info("%v: %s storage ready", config.ModuleStorage, cfg.Storage.Type)

	a.Chats = chat.NewService(chat.NewRepository(db), files, a.Vectors)
	a.Documents = document.NewService(document.NewRepository(db), files, a.Pipeline, a.Vectors,
		time.Duration(cfg.Ingest.TimeoutSecond)*time.Second)
	a.Messages = message.NewService(message.NewRepository(db), a.Asker)
	return nil
}

// NewEmbedder builds the OpenAI-compatible embedder. embedding_base_url wins
// over base_url so chat and embeddings can live on different providers.
func NewEmbedder(cfg *config.Config) (*embedder.OpenAI, error) {
	baseURL := cfg.OpenAI.EmbeddingBaseURL
	if baseURL == "" {
		baseURL = cfg.OpenAI.BaseURL
	}
	return embedder.NewOpenAI(embedder.Options{
		APIKey:            cfg.OpenAI.Key,
		BaseURL:           baseURL,
		Model:             cfg.OpenAI.EmbeddingModel,
		BatchSize:         cfg.OpenAI.EmbeddingBatch,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		MaxRetries:        2,
	})
}

func NewSplitter(cfg *config.Config) (*chunker.Splitter, error) {
	s, err := chunker.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, chunker.WithAvgWordLen(cfg.Ingest.AvgWordLen))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", config.ModuleIngest, err)
	}
	return s, nil
}

func NewExtractor(cfg *config.Config) *extract.Extractor {
	return extract.New(extract.Options{
		HeaderRatio: cfg.Ingest.HeaderRatio,
		FooterRatio: cfg.Ingest.FooterRatio,
		XTolerance:  cfg.Ingest.XTolerance,
		YTolerance:  cfg.Ingest.YTolerance,
	})
}

// PingDatabase is nil-safe so health checks work on a core-only App.
func (a *App) PingDatabase(ctx context.Context) error {
	if a.DB == nil {
		return errors.New("database not configured")
	}
	return database.Ping(ctx, a.DB)
}

// Close releases clients in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
