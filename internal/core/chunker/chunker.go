// Package chunker splits normalized document text into overlapping chunks
// that are cut only at word boundaries.
//
// Sizes are character targets. A chunk keeps taking whole words until its
// accumulated length (each word plus one separator) reaches the target, so a
// chunk can exceed the target by at most one word and a word is never split.
// The character overlap target is converted to a word count using an average
// word length, and is capped so the cursor always moves forward.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultAvgWordLen is the characters-per-word ratio used to turn a character
// overlap into a number of words.
const DefaultAvgWordLen = 6

// ErrInvalidParameter is returned when the chunk size or overlap break
// 0 <= overlap < chunkSize with chunkSize > 0.
var ErrInvalidParameter = errors.New("chunker: invalid parameter")

// Span describes one chunk as a half-open word range [Start, End) over the
// input's word sequence. Overlap is the number of leading words shared with
// the previous chunk. Index is 0-based, matching the stored chunk_index; the
// chunk's ordinal position is Index+1.
type Span struct {
	Index   int `json:"index"`
	Start   int `json:"start"`
	End     int `json:"end"`
	Overlap int `json:"overlap"`
}

// Option customizes a Splitter.
type Option func(*Splitter)

// WithAvgWordLen overrides DefaultAvgWordLen. Values below 1 are ignored.
func WithAvgWordLen(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.avgWordLen = n
		}
	}
}

// Splitter holds validated chunking parameters. It has no mutable state and
// is safe for concurrent use.
type Splitter struct {
	size       int
	overlap    int
	avgWordLen int
}

// NewSplitter validates the parameters before anything is processed.
func NewSplitter(chunkSize, overlap int, opts ...Option) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be > 0, got %d", ErrInvalidParameter, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be >= 0, got %d", ErrInvalidParameter, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk_size %d", ErrInvalidParameter, overlap, chunkSize)
	}
	s := &Splitter{size: chunkSize, overlap: overlap, avgWordLen: DefaultAvgWordLen}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Chunk is the one-shot form of NewSplitter(chunkSize, overlap).Split(text).
func Chunk(text string, chunkSize, overlap int) ([]string, error) {
	s, err := NewSplitter(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}

// ChunkSize returns the target chunk size in characters.
func (s *Splitter) ChunkSize() int { return s.size }

// Overlap returns the target overlap in characters.
func (s *Splitter) Overlap() int { return s.overlap }

// OverlapWords is the uncapped word overlap derived from the character target.
func (s *Splitter) OverlapWords() int {
	return max(0, s.overlap/s.avgWordLen)
}

// Split returns the chunks of text in order. Empty or all-whitespace text
// yields an empty result.
func (s *Splitter) Split(text string) []string {
	chunks, _ := s.SplitSpans(text)
	return chunks
}

// SplitSpans returns the chunks of text together with the word range each
// one covers, from a single pass over the words.
func (s *Splitter) SplitSpans(text string) ([]string, []Span) {
	words := strings.Fields(text)
	spans := s.plan(words)
	chunks := make([]string, 0, len(spans))
	for _, sp := range spans {
		chunks = append(chunks, strings.Join(words[sp.Start:sp.End], " "))
	}
	return chunks, spans
}

// Plan reports the word ranges Split would produce for text.
func (s *Splitter) Plan(text string) []Span {
	return s.plan(strings.Fields(text))
}

func (s *Splitter) plan(words []string) []Span {
	n := len(words)
	if n == 0 {
		return []Span{}
	}
	target := s.OverlapWords()
	spans := make([]Span, 0, n/max(1, s.size/s.avgWordLen)+1)
	prevEnd := 0
	i := 0
	for i < n {
		start := i
		acc := 0
		for i < n && acc < s.size {
			acc += utf8.RuneCountInString(words[i]) + 1
			i++
		}
		shared := 0
		if start < prevEnd {
			shared = prevEnd - start
		}
		spans = append(spans, Span{Index: len(spans), Start: start, End: i, Overlap: shared})
		if i >= n {
			break
		}
		back := min(target, (i-start)-1)
		prevEnd = i
		i = max(0, i-back)
	}
	return spans
}
