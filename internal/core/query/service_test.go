package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docchat/internal/core/embedder"
	"docchat/internal/core/retriever"
	"docchat/internal/core/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constEmbedder struct{ err error }

func (e constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type recordingCompleter struct {
	system, user string
	calls        int
	answer       string
	err          error
}

func (c *recordingCompleter) Complete(_ context.Context, system, user string) (string, error) {
	c.calls++
	c.system, c.user = system, user
	return c.answer, c.err
}

func seed(t *testing.T, chatID int64, n int) *vectorstore.Memory {
	t.Helper()
	m := vectorstore.NewMemory()
	records := make([]vectorstore.Record, n)
	for i := range records {
		records[i] = vectorstore.Record{
			ID:       fmt.Sprintf("c%d", i),
			Vector:   []float32{1, float32(i) / 10},
			Text:     fmt.Sprintf("chunk %d %s", i, strings.Repeat("x", 100)),
			Metadata: vectorstore.Metadata{ChatID: chatID, DocumentID: 1, ChunkIndex: i},
		}
	}
	require.NoError(t, m.Upsert(context.Background(), vectorstore.CollectionName(chatID), records))
	return m
}

func newAsker(emb embedder.Embedder, store vectorstore.Store, comp *recordingCompleter, opts Options) *Asker {
	return NewAsker(retriever.New(emb, store, retriever.Options{}), comp, opts)
}

func TestAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("Should answer from the retrieved chunks in rank order", func(t *testing.T) {
		comp := &recordingCompleter{answer: "it is x"}
		a := newAsker(constEmbedder{}, seed(t, 1, 8), comp, Options{})
		out, err := a.Ask(ctx, 1, "  what is x? ", 0)
		require.NoError(t, err)
		assert.Equal(t, "it is x", out.Text)
		require.Len(t, out.Sources, DefaultK)
		assert.Equal(t, "c0", out.Sources[0].ID)
		assert.Contains(t, comp.system, "only the provided context")
		assert.True(t, strings.HasPrefix(comp.user, "Context:\nchunk 0"))
		assert.Contains(t, comp.user, "\n\n---\n\nchunk 1")
		assert.Contains(t, comp.user, "Question: what is x?")
	})

	t.Run("Should cap k", func(t *testing.T) {
		a := newAsker(constEmbedder{}, seed(t, 1, 70), &recordingCompleter{answer: "ok"}, Options{})
		out, err := a.Ask(ctx, 1, "q", 1000)
		require.NoError(t, err)
		assert.Len(t, out.Sources, MaxK)
	})

	t.Run("Should keep the context inside the character budget", func(t *testing.T) {
		comp := &recordingCompleter{answer: "ok"}
		a := newAsker(constEmbedder{}, seed(t, 1, 10), comp, Options{MaxContextChars: 250})
		_, err := a.Ask(ctx, 1, "q", 10)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(comp.user, "chunk "))
	})

	t.Run("Should not call the llm when nothing is retrieved", func(t *testing.T) {
		comp := &recordingCompleter{answer: "made up"}
		a := newAsker(constEmbedder{}, seed(t, 1, 3), comp, Options{})
		out, err := a.Ask(ctx, 2, "q", 5)
		require.NoError(t, err)
		assert.Equal(t, NoAnswer, out.Text)
		assert.Empty(t, out.Sources)
		assert.Zero(t, comp.calls)
	})

	t.Run("Should reject an empty question", func(t *testing.T) {
		a := newAsker(constEmbedder{}, vectorstore.NewMemory(), &recordingCompleter{}, Options{})
		_, err := a.Ask(ctx, 1, "   ", 5)
		require.ErrorIs(t, err, ErrEmptyQuestion)
	})

	t.Run("Should surface collaborator failures", func(t *testing.T) {
		boom := errors.New("down")
		_, err := newAsker(constEmbedder{err: boom}, seed(t, 1, 1), &recordingCompleter{}, Options{}).Ask(ctx, 1, "q", 1)
		require.ErrorIs(t, err, boom)

		_, err = newAsker(constEmbedder{}, seed(t, 1, 1), &recordingCompleter{err: boom}, Options{}).Ask(ctx, 1, "q", 1)
		require.ErrorIs(t, err, boom)
	})
}
