// Package retriever finds the chunks of a chat closest to a question.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docchat/config"
	"docchat/internal/core/embedder"
	"docchat/internal/core/vectorstore"
	"docchat/pkg/logger"
)

const (
	DefaultK = 5
	MaxK     = 64
)

var ErrEmptyQuestion = errors.New("retriever: question is empty")

type Options struct {
	DefaultK      int
	EmbedTimeout  time.Duration
	SearchTimeout time.Duration
}

type Retriever struct {
	embedder embedder.Embedder
	store    vectorstore.Store
	opts     Options
}

func New(emb embedder.Embedder, store vectorstore.Store, opts Options) *Retriever {
	if opts.DefaultK <= 0 {
		opts.DefaultK = DefaultK
	}
	return &Retriever{embedder: emb, store: store, opts: opts}
}

// K applies the default for k <= 0 and caps at MaxK.
func (r *Retriever) K(k int) int {
	if k <= 0 {
		k = r.opts.DefaultK
	}
	return min(k, MaxK)
}

// Search embeds question and returns the best hits of the chat's collection.
func (r *Retriever) Search(ctx context.Context, chatID int64, question string, k int) ([]vectorstore.Hit, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	k = r.K(k)

	embedCtx, cancelEmbed := withTimeout(ctx, r.opts.EmbedTimeout)
	defer cancelEmbed()
	vec, err := embedder.EmbedOne(embedCtx, r.embedder, question)
	if err != nil {
		logger.Error(err, "%v: embed question failed", config.ModuleQuery)
		return nil, fmt.Errorf("retriever: embed: %w", err)
	}

	searchCtx, cancelSearch := withTimeout(ctx, r.opts.SearchTimeout)
	defer cancelSearch()
	start := time.Now()
	hits, err := r.store.Search(searchCtx, vectorstore.CollectionName(chatID), vec, k)
	if err != nil {
		logger.Error(err, "%v: vector search failed", config.ModuleQuery)
		return nil, fmt.Errorf("retriever: search: %w", err)
	}
	logger.Debug("%v: search done: chat=%d k=%d hits=%d elapsed=%dms", config.ModuleQuery, chatID, k, len(hits), time.Since(start).Milliseconds())
	return hits, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
