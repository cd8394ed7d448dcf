package query

import (
	"context"
	"fmt"
	"strings"

	"docchat/config"
	"docchat/internal/core/llm"
	"docchat/internal/core/retriever"
	"docchat/internal/core/vectorstore"
	"docchat/pkg/logger"
)

// Asker answers questions from the chunks stored for a chat.
type Asker struct {
	retriever *retriever.Retriever
	completer llm.Completer
	opts      Options
}

func NewAsker(r *retriever.Retriever, completer llm.Completer, opts Options) *Asker {
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = llm.DefaultMaxContextChars
	}
	return &Asker{retriever: r, completer: completer, opts: opts}
}

// Ask runs retrieve -> prompt -> LLM. k <= 0 uses the default and anything
// above MaxK is capped.
func (a *Asker) Ask(ctx context.Context, chatID int64, question string, k int) (Answer, error) {
	question = strings.TrimSpace(question)
	hits, err := a.retriever.Search(ctx, chatID, question, k)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{Text: NoAnswer, Sources: []vectorstore.Hit{}}, nil
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	contextText := llm.BuildContext(texts, a.opts.MaxContextChars)

	answer, err := a.complete(ctx, llm.UserPrompt(contextText, question))
	if err != nil {
		return Answer{}, fmt.Errorf("query: complete: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"module":  config.ModuleQuery,
		"chat_id": chatID,
		"hits":    len(hits),
	}).Info("query: answered")
	return Answer{Text: answer, Sources: hits}, nil
}

func (a *Asker) complete(ctx context.Context, user string) (string, error) {
	if a.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.LLMTimeout)
		defer cancel()
	}
	return a.completer.Complete(ctx, llm.SystemPrompt, user)
}
