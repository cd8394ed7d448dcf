package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxContextChars = 3500
	ContextSeparator       = "\n\n---\n\n"
)

const SystemPrompt = "You are a helpful assistant that answers questions using only the provided context. " +
	"If the answer is not in the context, say that you don't know based on the provided documents."

// BuildContext joins chunks in rank order and stops before the first chunk
// that would push the total chunk length past maxChars. Separators are not
// counted against the budget.
func BuildContext(chunks []string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	var b strings.Builder
	used := 0
	for _, c := range chunks {
		c = strings.TrimSpace(strings.ReplaceAll(c, "\x00", ""))
		if c == "" {
			continue
		}
		add := utf8.RuneCountInString(c)
		if used+add > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString(ContextSeparator)
		}
		b.WriteString(c)
		used += add
	}
	return b.String()
}

// UserPrompt frames the question with its retrieved context.
func UserPrompt(context, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer in a concise way.", context, strings.TrimSpace(question))
}
