package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/app"
	"docchat/internal/core/chunker"
	"docchat/internal/core/textnorm"

	"github.com/spf13/cobra"
)

// pageBreak separates pages in plain-text input, as pdftotext emits them.
const pageBreak = "\f"

type chunkOptions struct {
	size    int
	overlap int
	plan    bool
}

func newChunkCommand(load configLoader) *cobra.Command {
	var opts chunkOptions
	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Normalize a PDF or text file and print its chunks",
		Long: "Reads a PDF, or plain text with pages separated by form feeds, from the\n" +
			"file argument or stdin. Prints the chunks, or their spans with --plan.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("size") {
				cfg.Ingest.ChunkSize = opts.size
			}
			if cmd.Flags().Changed("overlap") {
				cfg.Ingest.ChunkOverlap = opts.overlap
			}
			splitter, err := app.NewSplitter(cfg)
			if err != nil {
				return err
			}

			var pages []string
			if len(args) == 1 && strings.EqualFold(filepath.Ext(args[0]), ".pdf") {
				pages, err = pdfPages(cmd.Context(), args[0], app.NewExtractor(cfg))
			} else {
				pages, err = textPages(cmd.InOrStdin(), args)
			}
			if err != nil {
				return err
			}
			return writeChunks(cmd.OutOrStdout(), splitter, pages, opts.plan)
		},
	}
	cmd.Flags().IntVar(&opts.size, "size", 0, "chunk size in characters (default from config)")
	cmd.Flags().IntVar(&opts.overlap, "overlap", 0, "overlap in characters (default from config)")
	cmd.Flags().BoolVar(&opts.plan, "plan", false, "print chunk spans as json instead of text")
	return cmd
}

type pageReader interface {
	Pages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error)
}

func pdfPages(ctx context.Context, path string, ex pageReader) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ex.Pages(ctx, f, st.Size())
}

func textPages(stdin io.Reader, args []string) ([]string, error) {
	var raw []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, err
	}
	return strings.Split(string(raw), pageBreak), nil
}

func writeChunks(w io.Writer, splitter *chunker.Splitter, pages []string, plan bool) error {
	text := textnorm.Normalize(pages)
	if plan {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		spans := splitter.Plan(text)
		if spans == nil {
			spans = []chunker.Span{}
		}
		return enc.Encode(spans)
	}
	var buf bytes.Buffer
	for i, c := range splitter.Split(text) {
		fmt.Fprintf(&buf, "--- chunk %d (%d chars) ---\n%s\n", i, len([]rune(c)), c)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
