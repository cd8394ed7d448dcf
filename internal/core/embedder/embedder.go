// Package embedder turns texts into vectors through an OpenAI-compatible
// embeddings endpoint.
package embedder

import (
	"context"
	"errors"
	"fmt"

	"docchat/config"
	"docchat/pkg/logger"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

const DefaultBatchSize = 100

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Options struct {
	APIKey            string
	BaseURL           string
	Model             string
	BatchSize         int
	RequestsPerSecond float64
	MaxRetries        int
}

type OpenAI struct {
	client  openai.Client
	model   string
	batch   int
	limiter *rate.Limiter
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewOpenAI(o Options) (*OpenAI, error) {
	if o.APIKey == "" {
		return nil, errors.New("embedder: missing openai key")
	}
	if o.Model == "" {
		return nil, errors.New("embedder: missing embedding model")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithMaxRetries(o.MaxRetries),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	batch := o.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	limit := rate.Inf
	if o.RequestsPerSecond > 0 {
		limit = rate.Limit(o.RequestsPerSecond)
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   o.Model,
		batch:   batch,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Embed calls the embeddings endpoint once per batch.
func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batch {
		j := min(i+e.batch, len(texts))
		fields := map[string]interface{}{
			"module":      config.ModuleOpenAI,
			"model":       e.model,
			"batch_start": i,
			"batch_end":   j,
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedder: wait: %w", err)
		}
		logger.WithFields(fields).Debug("openai: embedding batch start")

		vectors, err := e.embedBatch(ctx, texts[i:j])
		if err != nil {
			logger.WithFields(fields).WithField("error", err).Error("openai: embedding batch failed")
			return nil, err
		}
		logger.WithFields(fields).WithField("vectors", len(vectors)).Debug("openai: embedding batch done")
		all = append(all, vectors...)
	}
	return all, nil
}

func (e *OpenAI) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var out embeddingResponse
	if err := e.client.Post(ctx, "/embeddings", embeddingRequest{Model: e.model, Input: batch}, &out); err != nil {
		return nil, fmt.Errorf("embedder: post: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("embedder: %s", out.Error.Message)
	}
	if len(out.Data) != len(batch) {
		return nil, fmt.Errorf("embedder: got %d vectors for %d inputs", len(out.Data), len(batch))
	}
	vectors := make([][]float32, len(batch))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(batch) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("embedder: bad index %d in response", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for k, v := range d.Embedding {
			vec[k] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, errors.New("embedder: no embedding returned")
	}
	return vecs[0], nil
}
