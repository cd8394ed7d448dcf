// Command docchat runs the ingestion and question answering pipeline from
// the shell.
package main

import (
	"errors"
	"fmt"
	"os"

	"docchat/config"
	"docchat/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:           "docchat",
		Short:         "Chunk, ingest and query PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to the yaml config")

	load := func() (*config.Config, error) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("env: %w", err)
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		logger.Init(string(cfg.LogLevel))
		logger.SetOutput(os.Stderr)
		return cfg, nil
	}

	cmd.AddCommand(newChunkCommand(load))
	cmd.AddCommand(newIngestCommand(load))
	cmd.AddCommand(newAskCommand(load))
	return cmd
}

type configLoader func() (*config.Config, error)
