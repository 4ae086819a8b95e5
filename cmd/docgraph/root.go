package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docgraph/docgraph/internal/config"
	"github.com/docgraph/docgraph/internal/svcctx"
	"github.com/docgraph/docgraph/version"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docgraph",
	Short: "PDF document structure extraction into a navigable graph",
	Long: `Docgraph ingests PDF documents, derives a hierarchical outline
(headings, subheadings, context, visual references, page anchors) using an
LLM generator with cascading output repair, and persists the outline as a
Neo4j graph alongside per-page images.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docgraph/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		manager, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(svcctx.WithServices(cmd.Context(), &svcctx.Services{
			Logger: logger,
			Config: manager,
		}))
		return nil
	}

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(structureCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(versionCmd)
}
