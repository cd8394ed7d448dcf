// Package llm calls an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docchat/config"
	"docchat/pkg/logger"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Completer answers a user message under a system instruction.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

var ErrNoChoices = errors.New("llm: no choices returned")

type OpenAI struct {
	client openai.Client
	opts   Options
}

func NewOpenAI(o Options) (*OpenAI, error) {
	if o.APIKey == "" {
		return nil, errors.New("llm: missing openai key")
	}
	if o.Model == "" {
		return nil, errors.New("llm: missing model")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithMaxRetries(o.MaxRetries),
	}
	if o.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), opts: o}, nil
}

func (c *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	var out chatResponse
	if err := c.client.Post(ctx, "/chat/completions", req, &out); err != nil {
		logger.Error(err, "%v: call llm failed", config.ModuleQuery)
		return "", fmt.Errorf("llm: post: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
