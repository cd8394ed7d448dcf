package main

import (
	"fmt"
	"strings"

	"docchat/internal/app"

	"github.com/spf13/cobra"
)

func newAskCommand(load configLoader) *cobra.Command {
	var (
		chatID  int64
		k       int
		sources bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from a chat's ingested documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := app.NewCore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			answer, err := a.Asker.Ask(cmd.Context(), chatID, strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, answer.Text)
			if sources {
				for _, h := range answer.Sources {
					fmt.Fprintf(out, "  [%.3f] doc %d chunk %d %s\n", h.Score, h.Metadata.DocumentID, h.Metadata.ChunkIndex, h.Metadata.Source)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 1, "chat id to search")
	cmd.Flags().IntVar(&k, "k", 0, "number of chunks to retrieve (default from config)")
	cmd.Flags().BoolVar(&sources, "sources", false, "print the retrieved chunks")
	return cmd
}
