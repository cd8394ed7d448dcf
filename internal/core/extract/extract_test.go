package extract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphs lays out s one character per item, 5 units wide, starting at x.
func glyphs(s string, x, y float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{S: string(r), X: x, Y: y, W: 5, FontSize: 10})
		x += 5
	}
	return out
}

func TestLayout(t *testing.T) {
	e := New(DefaultOptions())

	t.Run("Should crop the header and footer bands", func(t *testing.T) {
		var items []pdf.Text
		items = append(items, glyphs("Running header", 10, 790)...)
		items = append(items, glyphs("Body line", 10, 500)...)
		items = append(items, glyphs("Footer 3", 10, 20)...)
		assert.Equal(t, "Body line", e.layout(items, 0, 800))
	})

	t.Run("Should order lines top to bottom whatever the stream order", func(t *testing.T) {
		var items []pdf.Text
		items = append(items, glyphs("second", 10, 400)...)
		items = append(items, glyphs("first", 10, 600)...)
		assert.Equal(t, "first\nsecond", e.layout(items, 0, 800))
	})

	t.Run("Should merge glyphs within the y tolerance into one line", func(t *testing.T) {
		var items []pdf.Text
		items = append(items, glyphs("sub", 10, 500)...)
		items = append(items, glyphs("script", 25, 498)...)
		assert.Equal(t, "subscript", e.layout(items, 0, 800))
	})

	t.Run("Should insert a space on a wide horizontal gap", func(t *testing.T) {
		var items []pdf.Text
		items = append(items, glyphs("left", 10, 500)...)
		items = append(items, glyphs("right", 60, 500)...)
		assert.Equal(t, "left right", e.layout(items, 0, 800))
	})

	t.Run("Should not double a space the glyphs already carry", func(t *testing.T) {
		var items []pdf.Text
		items = append(items, glyphs("left ", 10, 500)...)
		items = append(items, glyphs("right", 80, 500)...)
		items = append(items, glyphs(" end", 150, 500)...)
		assert.Equal(t, "left right end", e.layout(items, 0, 800))
	})

	t.Run("Should join a long line in glyph order", func(t *testing.T) {
		var items []pdf.Text
		want := make([]string, 0, 200)
		for i := 0; i < 200; i++ {
			items = append(items, glyphs("ab", float64(10+i*20), 500)...)
			want = append(want, "ab")
		}
		assert.Equal(t, strings.Join(want, " "), e.layout(items, 0, 800))
	})

	t.Run("Should honor the media box offset", func(t *testing.T) {
		items := glyphs("kept", 10, 150)
		// box from 100 to 900: footer band ends at 164
		assert.Equal(t, "", e.layout(items, 100, 800))
		assert.Equal(t, "kept", e.layout(items, 0, 800))
	})

	t.Run("Should return empty text when nothing survives", func(t *testing.T) {
		assert.Equal(t, "", e.layout(nil, 0, 800))
	})
}

func TestPages(t *testing.T) {
	t.Run("Should reject bytes that are not a pdf", func(t *testing.T) {
		data := []byte("definitely not a pdf")
		_, err := New(DefaultOptions()).Pages(context.Background(), bytes.NewReader(data), int64(len(data)))
		require.ErrorIs(t, err, ErrUnreadablePDF)
	})
}
