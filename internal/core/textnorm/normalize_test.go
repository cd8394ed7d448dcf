package textnorm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("Should return empty string for no pages", func(t *testing.T) {
		assert.Equal(t, "", Normalize(nil))
		assert.Equal(t, "", Normalize([]string{}))
	})

	t.Run("Should return empty string for blank pages", func(t *testing.T) {
		assert.Equal(t, "", Normalize([]string{"   ", "\n\n"}))
	})

	t.Run("Should drop pages that only carry a page number", func(t *testing.T) {
		assert.Equal(t, "", Normalize([]string{"12\n", "Page 3", " 4 / 10 "}))
	})

	t.Run("Should strip standalone page number lines", func(t *testing.T) {
		assert.Equal(t, "Body text More text", Normalize([]string{"Body text\n42\nMore text"}))
	})

	t.Run("Should keep lines that only contain a number", func(t *testing.T) {
		assert.Equal(t, "Room 42 is here", Normalize([]string{"Room 42 is here"}))
	})

	t.Run("Should keep the hyphen when repairing a line wrap", func(t *testing.T) {
		assert.Equal(t, "exam-ple text", Normalize([]string{"exam-\nple text"}))
		assert.Equal(t, "exam-ple text", Normalize([]string{"exam-  \n   ple text"}))
	})

	t.Run("Should separate pages with one paragraph break", func(t *testing.T) {
		got := Normalize([]string{"first page ends\nmid", "second page\nstarts"})
		assert.Equal(t, "first page ends mid\n\nsecond page starts", got)
	})

	t.Run("Should collapse blank line runs and inner whitespace", func(t *testing.T) {
		got := Normalize([]string{"  alpha\t beta\r\n\r\n\r\n\n gamma   delta  \n\n\n"})
		assert.Equal(t, "alpha beta\n\ngamma delta", got)
	})

	t.Run("Should treat Unicode line separators as line breaks", func(t *testing.T) {
		assert.Equal(t, "body", Normalize([]string{"12\u2028body"}))
		assert.Equal(t, "exam-ple text", Normalize([]string{"exam-\u2028ple text"}))
		assert.Equal(t, "a b", Normalize([]string{"a\u0085b"}))
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		once := Normalize([]string{"A line\n7\nanother-\nline\n\n\nPage 2\nlast  one"})
		assert.Equal(t, once, Normalize([]string{once}))
	})
}

func TestStripPageNumbers(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", ""},
		{"999", ""},
		{"1000", "1000"},
		{"page 14", ""},
		{"PAGE   7", ""},
		{"Page 7 of 9", "Page 7 of 9"},
		{"3/10", ""},
		{"3 / 10", ""},
		{"3 of 10", "3 of 10"},
		{"Chapter 1", "Chapter 1"},
		{"text\n  12  \nmore", "text\nmore"},
		{"12\u2028body", "body"},
		{"body\u2029Page 4\u0085end", "body\nend"},
		{"text\v7\fmore", "text\nmore"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("Should handle %q", tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, StripPageNumbers(tc.in))
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	t.Run("Should turn single line breaks into spaces", func(t *testing.T) {
		assert.Equal(t, "a b c", NormalizeWhitespace("a\nb\nc"))
	})
	t.Run("Should collapse non-breaking spaces", func(t *testing.T) {
		assert.Equal(t, "a b", NormalizeWhitespace("a\u00a0\u00a0b"))
	})
	t.Run("Should collapse every Unicode space", func(t *testing.T) {
		for _, in := range []string{"a\vb", "a\u2028b", "a\u2029b", "a\u0085b", "a\f b", "a\u3000b"} {
			out := NormalizeWhitespace(in)
			assert.Equal(t, "a b", out, "input %q", in)
			assert.Equal(t, strings.Fields(in), strings.Split(out, " "), "input %q", in)
		}
	})
	t.Run("Should leave no blank line runs", func(t *testing.T) {
		out := NormalizeWhitespace("a\n\n\n\n\nb\n\n\n\nc")
		require.NotContains(t, out, "\n\n\n")
		assert.Equal(t, 2, strings.Count(out, ParagraphSeparator))
		assert.Equal(t, "a\n\nb\n\nc", out)
	})
	t.Run("Should treat whitespace-only lines as part of a block", func(t *testing.T) {
		assert.Equal(t, "a\n\nb c", NormalizeWhitespace("a\n\n\nb\n \n \nc"))
	})
}
