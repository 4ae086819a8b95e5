package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/docgraph/docgraph/internal/config"
	"github.com/docgraph/docgraph/internal/extract"
	"github.com/docgraph/docgraph/internal/graph"
	"github.com/docgraph/docgraph/internal/index"
	"github.com/docgraph/docgraph/internal/ingest"
	"github.com/docgraph/docgraph/internal/providers"
	"github.com/docgraph/docgraph/internal/structure"
	"github.com/docgraph/docgraph/internal/svcctx"
)

var (
	ingestMode       string
	ingestConvention string
	ingestNoIndex    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>",
	Short: "Ingest a PDF and persist its structure to the graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := svcctx.ConfigFrom(ctx).Get()

		pdfData, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		store, err := graph.New(ctx, resolvedNeo4j(cfg), svcctx.LoggerFrom(ctx))
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		var indexer index.Indexer
		if cfg.Index.Dir != "" && !ingestNoIndex {
			li, err := index.NewLocalIndexer(cfg.Index.Dir)
			if err != nil {
				return err
			}
			indexer = li
		}

		pipeline := ingest.NewPipeline(store, buildEngine(cfg), indexer, ingest.NewStatusStore())
		pipeline.Options = extract.Options{
			RenderDPI:     cfg.Extraction.RenderDPI,
			MaxImageWidth: cfg.Extraction.MaxImageWidth,
			JPEGQuality:   cfg.Extraction.JPEGQuality,
		}

		res, err := pipeline.Ingest(ctx, pdfData, filepath.Base(args[0]))
		if err != nil {
			return err
		}

		fmt.Printf("Ingested %s\n", args[0])
		fmt.Printf("  Document ID: %s\n", res.DocumentID)
		fmt.Printf("  Title:       %s\n", res.Title)
		fmt.Printf("  Pages:       %d\n", res.PageCount)
		fmt.Printf("  Headings:    %d\n", len(res.Structured.Headings))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMode, "mode", "", "generation mode: text or vision (default from config)")
	ingestCmd.Flags().StringVar(&ingestConvention, "convention", "", "response convention: marker or json (default from config)")
	ingestCmd.Flags().BoolVar(&ingestNoIndex, "no-index", false, "skip handing the document to the retrieval indexer")
}

func buildEngine(cfg *config.Config) *structure.Engine {
	mode := cfg.Extraction.Mode
	if ingestMode != "" {
		mode = ingestMode
	}
	convention := cfg.Extraction.Convention
	if ingestConvention != "" {
		convention = ingestConvention
	}

	client := providers.NewOpenRouterClient(providers.OpenRouterConfig{
		APIKey:       config.ResolveEnvVars(cfg.LLM.APIKey),
		BaseURL:      cfg.LLM.BaseURL,
		DefaultModel: cfg.LLM.Model,
		Timeout:      time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		RPM:          cfg.LLM.RequestsPerMinute,
		MaxRetries:   cfg.LLM.MaxRetries,
	})

	return &structure.Engine{
		Client:        client,
		Convention:    structure.Convention(convention),
		Mode:          structure.Mode(mode),
		Model:         cfg.LLM.Model,
		MaxTokens:     cfg.LLM.MaxTokens,
		Timeout:       time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		ContextBudget: cfg.Extraction.ContextBudget,
	}
}

func resolvedNeo4j(cfg *config.Config) config.Neo4jCfg {
	n := cfg.Neo4j
	n.Password = config.ResolveEnvVars(n.Password)
	return n
}
