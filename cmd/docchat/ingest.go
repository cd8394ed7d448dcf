package main

import (
	"fmt"
	"os"
	"path/filepath"

	"docchat/internal/app"
	"docchat/internal/core/ingest"

	"github.com/spf13/cobra"
)

func newIngestCommand(load configLoader) *cobra.Command {
	var (
		chatID int64
		docID  int64
		store  string
	)
	cmd := &cobra.Command{
		Use:   "ingest <pdf>",
		Short: "Embed a PDF into a chat collection of the configured vector store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if store != "" {
				cfg.VectorStore.Type = store
			}
			a, err := app.NewCore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			st, err := f.Stat()
			if err != nil {
				return err
			}
			source, _ := filepath.Abs(args[0])
			res, err := a.Pipeline.Run(cmd.Context(), ingest.Input{
				ChatID:     chatID,
				DocumentID: docID,
				Source:     source,
				PDF:        f,
				Size:       st.Size(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d chunks\n", args[0], res.Pages, len(res.Chunks))
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 1, "chat id owning the collection")
	cmd.Flags().Int64Var(&docID, "doc", 1, "document id stored with each vector")
	cmd.Flags().StringVar(&store, "store", "", "override vector_store.type (milvus, qdrant, memory)")
	return cmd
}
