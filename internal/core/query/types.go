package query

import (
	"time"

	"docchat/internal/core/retriever"
	"docchat/internal/core/vectorstore"
)

const (
	DefaultK = retriever.DefaultK
	MaxK     = retriever.MaxK

	// NoAnswer is returned without calling the LLM when nothing was retrieved.
	NoAnswer = "I don't know based on the uploaded documents."
)

var ErrEmptyQuestion = retriever.ErrEmptyQuestion

type Answer struct {
	Text    string            `json:"answer"`
	Sources []vectorstore.Hit `json:"sources"`
}

type Options struct {
	MaxContextChars int
	LLMTimeout      time.Duration
}
