// Package textnorm turns raw per-page PDF text into a single clean document string.
package textnorm

import (
	"regexp"
	"strings"
)

// ParagraphSeparator separates paragraph blocks in normalized text.
const ParagraphSeparator = "\n\n"

var (
	barePageNumber   = regexp.MustCompile(`^\d{1,3}$`)
	labeledPageNum   = regexp.MustCompile(`(?i)^Page\s+\d{1,3}$`)
	paginationMarker = regexp.MustCompile(`^\d{1,3}\s*/\s*\d{1,3}$`)

	lineWrapHyphen = regexp.MustCompile(`-\s*\n\s*`)
	blankLineRun   = regexp.MustCompile(`\n{2,}`)

	// same set as unicode.IsSpace, so block text and strings.Fields agree
	whitespaceRun = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)

	// \r\n first so it stays one break
	lineBreaks = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\v", "\n",
		"\f", "\n",
		"\u0085", "\n",
		"\u2028", "\n",
		"\u2029", "\n",
	)
)

// Normalize strips page-number lines from every page, joins the surviving
// pages with a paragraph separator and cleans up whitespace.
// It never fails: no pages, or only blank pages, give "".
func Normalize(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, page := range pages {
		cleaned := StripPageNumbers(page)
		if strings.TrimSpace(cleaned) == "" {
			continue
		}
		kept = append(kept, cleaned)
	}
	return NormalizeWhitespace(strings.Join(kept, ParagraphSeparator))
}

// StripPageNumbers drops lines that consist solely of a page marker such as
// "12", "Page 3" or "3 / 10". Lines that merely contain a number are kept verbatim.
func StripPageNumbers(page string) string {
	lines := strings.Split(unifyLineEndings(page), "\n")
	out := lines[:0]
	for _, line := range lines {
		if isPageNumberLine(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// NormalizeWhitespace repairs line-wrap hyphenation and rebuilds paragraphs:
// at most one blank line between blocks, single spaces inside a block.
func NormalizeWhitespace(text string) string {
	if text == "" {
		return ""
	}
	// the hyphen stays; only the wrap is removed
	text = lineWrapHyphen.ReplaceAllString(text, "-")
	text = strings.ReplaceAll(text, "\r", "")
	text = blankLineRun.ReplaceAllString(text, ParagraphSeparator)

	blocks := strings.Split(text, ParagraphSeparator)
	paragraphs := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(whitespaceRun.ReplaceAllString(block, " "))
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return strings.Join(paragraphs, ParagraphSeparator)
}

func isPageNumberLine(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	return barePageNumber.MatchString(s) ||
		labeledPageNum.MatchString(s) ||
		paginationMarker.MatchString(s)
}

// unifyLineEndings maps every line boundary, Unicode line and paragraph
// separators included, to "\n".
func unifyLineEndings(s string) string {
	return lineBreaks.Replace(s)
}
