package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/docgraph/docgraph/internal/structure"
)

// PersistStructure writes the normalized outline under an existing document:
// main heading nodes, sub heading nodes under their parents, and visual
// reference nodes, each anchored to its page.
func (c *Client) PersistStructure(ctx context.Context, documentID string, outline *structure.Outline, norm *structure.StructuredDocument) error {
	mains, subs, visuals := buildStructureRows(outline, norm)

	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(mains) > 0 {
			res, err := tx.Run(ctx, `
				MATCH (d:Document {id: $doc_id})
				UNWIND $rows AS row
				MATCH (p:Page {document_id: $doc_id, number: row.page})
				CREATE (h:Heading {document_id: $doc_id, text: row.text, type: 'main', context: row.context, position: row.position})
				CREATE (d)-[:HAS_HEADING]->(h)
				CREATE (h)-[:APPEARS_ON]->(p)`,
				map[string]any{"doc_id": documentID, "rows": mains})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		if len(subs) > 0 {
			res, err := tx.Run(ctx, `
				MATCH (d:Document {id: $doc_id})
				UNWIND $rows AS row
				MATCH (d)-[:HAS_HEADING]->(h:Heading {text: row.parent, type: 'main'})
				MATCH (p:Page {document_id: $doc_id, number: row.page})
				CREATE (s:Heading {document_id: $doc_id, text: row.text, type: 'sub', context: row.context, position: row.position})
				CREATE (d)-[:HAS_HEADING]->(s)
				CREATE (h)-[:HAS_SUBHEADING]->(s)
				CREATE (s)-[:APPEARS_ON]->(p)`,
				map[string]any{"doc_id": documentID, "rows": subs})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		if len(visuals) > 0 {
			res, err := tx.Run(ctx, `
				MATCH (d:Document {id: $doc_id})
				UNWIND $rows AS row
				MATCH (d)-[:HAS_HEADING]->(h:Heading {text: row.owner})
				MATCH (p:Page {document_id: $doc_id, number: row.page})
				CREATE (v:VisualReference {document_id: $doc_id, caption: row.caption, reference: row.reference})
				CREATE (h)-[:HAS_VISUAL]->(v)
				CREATE (v)-[:APPEARS_ON]->(p)`,
				map[string]any{"doc_id": documentID, "rows": visuals})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist structure for %s: %w", documentID, err)
	}
	return nil
}

// buildStructureRows flattens the outline into UNWIND parameter rows. The
// normalized structure supplies the deduplicated ordering and 0-indexed page
// mapping; the outline supplies contexts and visual references.
func buildStructureRows(outline *structure.Outline, norm *structure.StructuredDocument) (mains, subs, visuals []map[string]any) {
	headingContext := make(map[string]string)
	subContext := make(map[string]string)
	for _, h := range outline.DocumentStructure {
		if _, ok := headingContext[h.Heading]; !ok {
			headingContext[h.Heading] = h.Context
		}
		for _, s := range h.Subheadings {
			if _, ok := subContext[s.Title]; !ok {
				subContext[s.Title] = s.Context
			}
		}
	}

	for i, text := range norm.Headings {
		mains = append(mains, map[string]any{
			"text":     text,
			"page":     int64(norm.PageMapping[text]),
			"context":  headingContext[text],
			"position": int64(i),
		})
	}
	for _, parent := range norm.Headings {
		for i, title := range norm.Hierarchy[parent] {
			subs = append(subs, map[string]any{
				"parent":   parent,
				"text":     title,
				"page":     int64(norm.PageMapping[title]),
				"context":  subContext[title],
				"position": int64(i),
			})
		}
	}

	for _, h := range outline.DocumentStructure {
		for _, v := range h.VisualReferences {
			visuals = append(visuals, visualRow(h.Heading, v))
		}
		for _, s := range h.Subheadings {
			for _, v := range s.VisualReferences {
				visuals = append(visuals, visualRow(s.Title, v))
			}
		}
	}
	return mains, subs, visuals
}

func visualRow(owner string, v structure.VisualReference) map[string]any {
	page := v.PageReference - 1
	if page < 0 {
		page = 0
	}
	return map[string]any{
		"owner":     owner,
		"caption":   v.Caption,
		"reference": v.Reference,
		"page":      int64(page),
	}
}

// CreateHeading creates a single heading node. headingType is "main" or
// "sub"; sub headings name their parent main heading.
func (c *Client) CreateHeading(ctx context.Context, documentID string, pageNumber int, text, headingType, parentHeading string) error {
	query := `
		MATCH (d:Document {id: $doc_id})
		MATCH (p:Page {document_id: $doc_id, number: $page})
		CREATE (h:Heading {document_id: $doc_id, text: $text, type: $type, context: ''})
		CREATE (d)-[:HAS_HEADING]->(h)
		CREATE (h)-[:APPEARS_ON]->(p)`
	params := map[string]any{
		"doc_id": documentID,
		"page":   int64(pageNumber),
		"text":   text,
		"type":   headingType,
	}
	if headingType == "sub" && parentHeading != "" {
		query = `
			MATCH (d:Document {id: $doc_id})
			MATCH (d)-[:HAS_HEADING]->(parent:Heading {text: $parent, type: 'main'})
			MATCH (p:Page {document_id: $doc_id, number: $page})
			CREATE (h:Heading {document_id: $doc_id, text: $text, type: 'sub', context: ''})
			CREATE (d)-[:HAS_HEADING]->(h)
			CREATE (parent)-[:HAS_SUBHEADING]->(h)
			CREATE (h)-[:APPEARS_ON]->(p)`
		params["parent"] = parentHeading
	}

	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to create heading %q: %w", text, err)
	}
	return nil
}

// CreateVisualReference attaches a visual reference to an owning heading.
func (c *Client) CreateVisualReference(ctx context.Context, documentID, ownerHeading, caption, referenceToken string, pageNumber int) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})-[:HAS_HEADING]->(h:Heading {text: $owner})
			MATCH (p:Page {document_id: $doc_id, number: $page})
			CREATE (v:VisualReference {document_id: $doc_id, caption: $caption, reference: $reference})
			CREATE (h)-[:HAS_VISUAL]->(v)
			CREATE (v)-[:APPEARS_ON]->(p)`,
			map[string]any{
				"doc_id":    documentID,
				"owner":     ownerHeading,
				"caption":   caption,
				"reference": referenceToken,
				"page":      int64(pageNumber),
			})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to create visual reference %q: %w", referenceToken, err)
	}
	return nil
}
