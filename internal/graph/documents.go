package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/docgraph/docgraph/internal/extract"
)

// DocumentMeta is the document node's property set.
type DocumentMeta struct {
	ID           string
	Title        string
	UploadedAt   time.Time
	PageCount    int
	FileSizeKB   int
	Author       string
	Keywords     string
	Subject      string
	Producer     string
	Creator      string
	CreationDate time.Time
}

// CreateDocument creates the document node. Fails with ErrAlreadyExists if
// the id is taken.
func (c *Client) CreateDocument(ctx context.Context, meta DocumentMeta) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			`MATCH (d:Document {id: $id}) RETURN count(d) AS n`,
			map[string]any{"id": meta.ID})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if n, _ := rec.Get("n"); n.(int64) > 0 {
			return nil, ErrAlreadyExists
		}

		props := map[string]any{
			"id":           meta.ID,
			"title":        meta.Title,
			"uploaded_at":  meta.UploadedAt.UTC().Format(time.RFC3339),
			"page_count":   int64(meta.PageCount),
			"file_size_kb": int64(meta.FileSizeKB),
			"author":       meta.Author,
			"keywords":     meta.Keywords,
			"subject":      meta.Subject,
			"producer":     meta.Producer,
			"creator":      meta.Creator,
		}
		if !meta.CreationDate.IsZero() {
			props["creation_date"] = meta.CreationDate.UTC().Format(time.RFC3339)
		}

		res, err = tx.Run(ctx, `CREATE (d:Document) SET d = $props`, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", meta.ID, err)
	}
	return nil
}

// CreatePages creates all page nodes for a document in one batch.
func (c *Client) CreatePages(ctx context.Context, documentID string, pages []extract.Page) error {
	rows := make([]map[string]any, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, map[string]any{
			"number": int64(p.Number),
			"image":  p.Image,
		})
	}

	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})
			UNWIND $rows AS row
			CREATE (p:Page {document_id: $doc_id, number: row.number, image: row.image})
			CREATE (d)-[:HAS_PAGE]->(p)`,
			map[string]any{"doc_id": documentID, "rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to create pages for %s: %w", documentID, err)
	}
	return nil
}

// DocumentInfo is a listing entry.
type DocumentInfo struct {
	ID        string
	Title     string
	PageCount int
}

// ListDocuments returns all documents in the graph.
func (c *Client) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (d:Document)
			RETURN d.id AS id, d.title AS title, d.page_count AS page_count
			ORDER BY d.uploaded_at`,
			nil)
		if err != nil {
			return nil, err
		}
		var docs []DocumentInfo
		for res.Next(ctx) {
			rec := res.Record()
			info := DocumentInfo{}
			if v, ok := rec.Get("id"); ok && v != nil {
				info.ID = v.(string)
			}
			if v, ok := rec.Get("title"); ok && v != nil {
				info.Title = v.(string)
			}
			if v, ok := rec.Get("page_count"); ok && v != nil {
				info.PageCount = int(v.(int64))
			}
			docs = append(docs, info)
		}
		return docs, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return out.([]DocumentInfo), nil
}

// DeleteDocument removes a document and everything it owns. Idempotent:
// returns false, not an error, when the id is already absent.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			`MATCH (d:Document {id: $doc_id}) RETURN count(d) AS n`,
			map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if n, _ := rec.Get("n"); n.(int64) == 0 {
			return false, nil
		}

		res, err = tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})
			OPTIONAL MATCH (d)-[:HAS_PAGE]->(p:Page)
			OPTIONAL MATCH (d)-[:HAS_HEADING]->(h:Heading)
			OPTIONAL MATCH (h)-[:HAS_VISUAL]->(v:VisualReference)
			DETACH DELETE d, p, h, v`,
			map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return true, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return out.(bool), nil
}
