package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"docchat/internal/core/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	delay time.Duration
}

func (s stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return [][]float32{s.vec}, nil
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemory()
	require.NoError(t, store.Upsert(ctx, vectorstore.CollectionName(4), []vectorstore.Record{
		{ID: "a", Vector: []float32{1, 0}, Text: "alpha"},
		{ID: "b", Vector: []float32{0, 1}, Text: "beta"},
	}))

	t.Run("Should reject an empty question", func(t *testing.T) {
		_, err := New(stubEmbedder{}, store, Options{}).Search(ctx, 4, " ", 1)
		require.ErrorIs(t, err, ErrEmptyQuestion)
	})

	t.Run("Should search the chat collection", func(t *testing.T) {
		hits, err := New(stubEmbedder{vec: []float32{0, 1}}, store, Options{}).Search(ctx, 4, "b?", 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "beta", hits[0].Text)
	})

	t.Run("Should return no hits for another chat", func(t *testing.T) {
		hits, err := New(stubEmbedder{vec: []float32{0, 1}}, store, Options{}).Search(ctx, 5, "b?", 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Should bound the embedding call by its timeout", func(t *testing.T) {
		r := New(stubEmbedder{vec: []float32{1, 0}, delay: time.Second}, store, Options{EmbedTimeout: 10 * time.Millisecond})
		_, err := r.Search(ctx, 4, "slow", 1)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Should wrap embedder errors", func(t *testing.T) {
		boom := errors.New("quota")
		_, err := New(stubEmbedder{err: boom}, store, Options{}).Search(ctx, 4, "q", 1)
		require.ErrorIs(t, err, boom)
	})
}

func TestK(t *testing.T) {
	r := New(stubEmbedder{}, vectorstore.NewMemory(), Options{})
	assert.Equal(t, DefaultK, r.K(0))
	assert.Equal(t, DefaultK, r.K(-3))
	assert.Equal(t, 12, r.K(12))
	assert.Equal(t, MaxK, r.K(500))
	assert.Equal(t, 8, New(stubEmbedder{}, vectorstore.NewMemory(), Options{DefaultK: 8}).K(0))
}
