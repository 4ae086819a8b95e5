package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgraph/docgraph/internal/graph"
	"github.com/docgraph/docgraph/internal/svcctx"
)

var structureEnhanced bool

var structureCmd = &cobra.Command{
	Use:   "structure <document-id>",
	Short: "Print the persisted structure of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := svcctx.ConfigFrom(ctx).Get()

		store, err := graph.New(ctx, resolvedNeo4j(cfg), svcctx.LoggerFrom(ctx))
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		outline, err := store.GetStructuredContent(ctx, args[0], structureEnhanced)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(outline, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	structureCmd.Flags().BoolVar(&structureEnhanced, "enhanced", false, "include contexts and visual references")
}
