package main

import (
	"context"
	"fmt"
	"os"

	"rnaseqde/internal"
	"rnaseqde/internal/config"
	"rnaseqde/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// containerFactory builds the wired dependencies for one command.
type containerFactory func(ctx context.Context) (*container.Container, error)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(loadContainer).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(newContainer containerFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rnaseqde",
		Short:         "RNA-seq differential expression from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(newContainer),
		newRunsCmd(newContainer),
	)
	return rootCmd
}

func loadContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)))
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx, false); err != nil {
		return nil, err
	}
	return c, nil
}
