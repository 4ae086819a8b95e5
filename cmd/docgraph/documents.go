package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgraph/docgraph/internal/graph"
	"github.com/docgraph/docgraph/internal/svcctx"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage documents in the graph",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := svcctx.ConfigFrom(ctx).Get()

		store, err := graph.New(ctx, resolvedNeo4j(cfg), svcctx.LoggerFrom(ctx))
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		docs, err := store.ListDocuments(ctx)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("no documents")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%s  %-40s  %d pages\n", d.ID, d.Title, d.PageCount)
		}
		return nil
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := svcctx.ConfigFrom(ctx).Get()

		store, err := graph.New(ctx, resolvedNeo4j(cfg), svcctx.LoggerFrom(ctx))
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		deleted, err := store.DeleteDocument(ctx, args[0])
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Printf("document %s not found\n", args[0])
			return nil
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var documentsHeadingPageCmd = &cobra.Command{
	Use:   "heading-page <document-id> <heading>",
	Short: "Show the page a heading appears on",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := svcctx.ConfigFrom(ctx).Get()

		store, err := graph.New(ctx, resolvedNeo4j(cfg), svcctx.LoggerFrom(ctx))
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		page, _, err := store.GetHeadingPage(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%q appears on page %d\n", args[1], page+1)
		return nil
	},
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsHeadingPageCmd)
}
