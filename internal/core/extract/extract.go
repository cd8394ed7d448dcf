// Package extract reads per-page text from PDF files.
//
// Header and footer bands are cropped geometrically before any text is
// assembled, and positioned glyphs are rebuilt into lines using x/y
// tolerances. What is left for page-number lines is handled by textnorm.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"docchat/config"
	"docchat/pkg/logger"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF is returned when the file cannot be opened as a PDF.
var ErrUnreadablePDF = errors.New("extract: unreadable pdf")

// Options controls cropping and line rebuilding.
type Options struct {
	// HeaderRatio and FooterRatio are fractions of the page height cut from
	// the top and the bottom.
	HeaderRatio float64
	FooterRatio float64
	// XTolerance is the horizontal gap above which a space is inserted.
	XTolerance float64
	// YTolerance is the baseline distance under which glyphs share a line.
	YTolerance float64
}

func DefaultOptions() Options {
	return Options{HeaderRatio: 0.08, FooterRatio: 0.08, XTolerance: 1.0, YTolerance: 3.0}
}

type Extractor struct {
	opts Options
}

func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Pages returns one raw text per page, in page order. A page that cannot be
// decoded becomes "" so page positions stay stable.
func (e *Extractor) Pages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error) {
	rdr, err := openReader(r, size)
	if err != nil {
		return nil, err
	}

	n := rdr.NumPage()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := e.page(rdr, i)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"module": config.ModuleIngest,
				"page":   i,
				"error":  err,
			}).Warn("extract: page skipped")
			text = ""
		}
		out = append(out, text)
	}
	return out, nil
}

func openReader(r io.ReaderAt, size int64) (rdr *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadablePDF, p)
		}
	}()
	rdr, err = pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	return rdr, nil
}

// page decodes a single page; the pdf library panics on some malformed streams.
func (e *Extractor) page(rdr *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: %v", i, p)
		}
	}()
	p := rdr.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	items := p.Content().Text
	bottom, height := pageBox(p, items)
	return e.layout(items, bottom, height), nil
}

// layout keeps glyphs inside the crop window and rebuilds lines top to bottom.
func (e *Extractor) layout(items []pdf.Text, bottom, height float64) string {
	lo := bottom + e.opts.FooterRatio*height
	hi := bottom + height - e.opts.HeaderRatio*height

	kept := make([]pdf.Text, 0, len(items))
	for _, t := range items {
		if t.S == "" || t.Y < lo || t.Y > hi {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return ""
	}

	sort.SliceStable(kept, func(a, b int) bool { return kept[a].Y > kept[b].Y })

	var lines [][]pdf.Text
	var current []pdf.Text
	lineY := kept[0].Y
	for _, t := range kept {
		if math.Abs(t.Y-lineY) > e.opts.YTolerance {
			lines = append(lines, current)
			current = nil
			lineY = t.Y
		}
		current = append(current, t)
	}
	lines = append(lines, current)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, e.joinLine(line))
	}
	return strings.Join(out, "\n")
}

func (e *Extractor) joinLine(line []pdf.Text) string {
	sort.SliceStable(line, func(a, b int) bool { return line[a].X < line[b].X })
	var b strings.Builder
	prevEnd := math.Inf(-1)
	endsInSpace := false
	for _, t := range line {
		if b.Len() > 0 && t.X-prevEnd > e.opts.XTolerance && !endsInSpace && !strings.HasPrefix(t.S, " ") {
			b.WriteByte(' ')
			endsInSpace = true
		}
		b.WriteString(t.S)
		if t.S != "" {
			endsInSpace = t.S[len(t.S)-1] == ' '
		}
		prevEnd = t.X + t.W
	}
	return b.String()
}

// pageBox returns the lower bound and height of the page from its MediaBox,
// walking up inherited page tree nodes. Without one, the glyph extent is used.
func pageBox(p pdf.Page, items []pdf.Text) (float64, float64) {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			y0, y1 := box.Index(1).Float64(), box.Index(3).Float64()
			if y1 > y0 {
				return y0, y1 - y0
			}
		}
	}
	top := 0.0
	for _, t := range items {
		top = max(top, t.Y+t.FontSize)
	}
	return 0, top
}
