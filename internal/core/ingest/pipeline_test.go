package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"docchat/internal/core/chunker"
	"docchat/internal/core/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	pages []string
	err   error
}

func (f fakeExtractor) Pages(context.Context, io.ReaderAt, int64) ([]string, error) {
	return f.pages, f.err
}

// fakeEmbedder maps every text to [len(text), 1].
type fakeEmbedder struct {
	calls int
	drop  bool
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, []float32{float32(len(t)), 1})
	}
	if f.drop {
		out = out[1:]
	}
	return out, nil
}

func newPipeline(t *testing.T, ex PageExtractor, emb *fakeEmbedder, store vectorstore.Store) *Pipeline {
	t.Helper()
	s, err := chunker.NewSplitter(60, 12)
	require.NoError(t, err)
	p := New(ex, s, emb, store)
	n := 0
	p.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return p
}

func manyWords(n int) string {
	ws := make([]string, n)
	for i := range ws {
		ws[i] = fmt.Sprintf("word%02d", i)
	}
	return strings.Join(ws, " ")
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	in := Input{ChatID: 7, DocumentID: 3, Source: "storage/documents/a.pdf"}

	t.Run("Should store every chunk in the chat collection", func(t *testing.T) {
		store := vectorstore.NewMemory()
		emb := &fakeEmbedder{}
		ex := fakeExtractor{pages: []string{manyWords(10) + "\n1", "Page 2\n" + manyWords(10)}}
		res, err := newPipeline(t, ex, emb, store).Run(ctx, in)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Pages)
		require.NotEmpty(t, res.Chunks)
		assert.Equal(t, 1, emb.calls)
		assert.Equal(t, len(res.Chunks), store.Len("chat_7_collection"))
		for i, c := range res.Chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, fmt.Sprintf("id-%d", i+1), c.ID)
			assert.NotContains(t, c.Text, "Page 2")
		}

		hits, err := store.Search(ctx, "chat_7_collection", []float32{1, 0}, 100)
		require.NoError(t, err)
		for _, h := range hits {
			assert.Equal(t, int64(7), h.Metadata.ChatID)
			assert.Equal(t, int64(3), h.Metadata.DocumentID)
			assert.Equal(t, "storage/documents/a.pdf", h.Metadata.Source)
		}
	})

	t.Run("Should fail with no text for blank pages without embedding", func(t *testing.T) {
		emb := &fakeEmbedder{}
		_, err := newPipeline(t, fakeExtractor{pages: []string{"  ", "12"}}, emb, vectorstore.NewMemory()).Run(ctx, in)
		require.ErrorIs(t, err, ErrNoText)
		assert.Zero(t, emb.calls)
	})

	t.Run("Should wrap extraction errors", func(t *testing.T) {
		boom := errors.New("bad xref")
		_, err := newPipeline(t, fakeExtractor{err: boom}, &fakeEmbedder{}, vectorstore.NewMemory()).Run(ctx, in)
		require.ErrorIs(t, err, boom)
	})

	t.Run("Should fail on embedding errors and leave the store empty", func(t *testing.T) {
		store := vectorstore.NewMemory()
		boom := errors.New("rate limited")
		_, err := newPipeline(t, fakeExtractor{pages: []string{manyWords(5)}}, &fakeEmbedder{err: boom}, store).Run(ctx, in)
		require.ErrorIs(t, err, boom)
		assert.Zero(t, store.Len("chat_7_collection"))
	})

	t.Run("Should fail when the vector count does not match", func(t *testing.T) {
		_, err := newPipeline(t, fakeExtractor{pages: []string{manyWords(5)}}, &fakeEmbedder{drop: true}, vectorstore.NewMemory()).Run(ctx, in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vectors for")
	})
}

func TestPipelinePlan(t *testing.T) {
	p := newPipeline(t, fakeExtractor{}, &fakeEmbedder{}, vectorstore.NewMemory())
	texts, spans := p.Plan([]string{manyWords(20)})
	require.Len(t, spans, len(texts))
	assert.Greater(t, len(texts), 1)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 20, spans[len(spans)-1].End)
}
