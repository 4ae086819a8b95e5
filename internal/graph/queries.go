package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/docgraph/docgraph/internal/structure"
)

// GetDocumentStructure returns the flat structure of a document: ordered
// heading list, hierarchy, and 0-indexed page mapping.
func (c *Client) GetDocumentStructure(ctx context.Context, documentID string) (*structure.StructuredDocument, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := c.requireDocument(ctx, tx, documentID); err != nil {
			return nil, err
		}

		doc := &structure.StructuredDocument{
			PageMapping: make(map[string]int),
			Hierarchy:   make(map[string][]string),
		}

		res, err := tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})-[:HAS_HEADING]->(h:Heading {type: 'main'})
			OPTIONAL MATCH (h)-[:APPEARS_ON]->(hp:Page)
			RETURN h.text AS text, hp.number AS page
			ORDER BY h.position`,
			map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			text := recString(rec, "text")
			doc.Headings = append(doc.Headings, text)
			doc.PageMapping[text] = recInt(rec, "page")
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})-[:HAS_HEADING]->(h:Heading {type: 'main'})-[:HAS_SUBHEADING]->(s:Heading)
			OPTIONAL MATCH (s)-[:APPEARS_ON]->(sp:Page)
			RETURN h.text AS parent, s.text AS text, sp.number AS page
			ORDER BY h.position, s.position`,
			map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			parent := recString(rec, "parent")
			text := recString(rec, "text")
			doc.Hierarchy[parent] = append(doc.Hierarchy[parent], text)
			if _, ok := doc.PageMapping[text]; !ok {
				doc.PageMapping[text] = recInt(rec, "page")
			}
		}
		return doc, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.(*structure.StructuredDocument), nil
}

// GetStructuredContent returns the document's outline with 1-indexed page
// references. When enhanced is false, contexts and visual references are
// omitted.
func (c *Client) GetStructuredContent(ctx context.Context, documentID string, enhanced bool) (*structure.Outline, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := c.requireDocument(ctx, tx, documentID); err != nil {
			return nil, err
		}

		outline := &structure.Outline{}
		headingIdx := make(map[string]int)
		subIdx := make(map[string][2]int)

		res, err := tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})-[:HAS_HEADING]->(h:Heading {type: 'main'})
			OPTIONAL MATCH (h)-[:APPEARS_ON]->(hp:Page)
			RETURN h.text AS text, h.context AS context, hp.number AS page
			ORDER BY h.position`,
			map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			h := structure.Heading{
				Heading:       recString(rec, "text"),
				PageReference: recInt(rec, "page") + 1,
			}
			if enhanced {
				h.Context = recString(rec, "context")
			}
			headingIdx[h.Heading] = len(outline.DocumentStructure)
			outline.DocumentStructure = append(outline.DocumentStructure, h)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})-[:HAS_HEADING]->(h:Heading {type: 'main'})-[:HAS_SUBHEADING]->(s:Heading)
			OPTIONAL MATCH (s)-[:APPEARS_ON]->(sp:Page)
			RETURN h.text AS parent, s.text AS text, s.context AS context, sp.number AS page
			ORDER BY h.position, s.position`,
			map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			parent, ok := headingIdx[recString(rec, "parent")]
			if !ok {
				continue
			}
			s := structure.Subheading{
				Title:         recString(rec, "text"),
				PageReference: recInt(rec, "page") + 1,
			}
			if enhanced {
				s.Context = recString(rec, "context")
			}
			h := &outline.DocumentStructure[parent]
			subIdx[s.Title] = [2]int{parent, len(h.Subheadings)}
			h.Subheadings = append(h.Subheadings, s)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		if enhanced {
			res, err = tx.Run(ctx, `
				MATCH (d:Document {id: $doc_id})-[:HAS_HEADING]->(h:Heading)-[:HAS_VISUAL]->(v:VisualReference)
				OPTIONAL MATCH (v)-[:APPEARS_ON]->(vp:Page)
				RETURN h.text AS owner, v.caption AS caption, v.reference AS reference, vp.number AS page`,
				map[string]any{"doc_id": documentID})
			if err != nil {
				return nil, err
			}
			for res.Next(ctx) {
				rec := res.Record()
				owner := recString(rec, "owner")
				ref := structure.VisualReference{
					Caption:       recString(rec, "caption"),
					Reference:     recString(rec, "reference"),
					PageReference: recInt(rec, "page") + 1,
				}
				if idx, ok := subIdx[owner]; ok {
					s := &outline.DocumentStructure[idx[0]].Subheadings[idx[1]]
					s.VisualReferences = append(s.VisualReferences, ref)
				} else if idx, ok := headingIdx[owner]; ok {
					h := &outline.DocumentStructure[idx]
					h.VisualReferences = append(h.VisualReferences, ref)
				}
			}
			if err := res.Err(); err != nil {
				return nil, err
			}
		}

		return outline, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*structure.Outline), nil
}

// GetHeadingPage returns the 0-indexed page number and encoded page image a
// heading appears on.
func (c *Client) GetHeadingPage(ctx context.Context, documentID, heading string) (int, string, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	type pageResult struct {
		number int
		image  string
	}
	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})-[:HAS_HEADING]->(h:Heading {text: $heading})-[:APPEARS_ON]->(p:Page)
			RETURN p.number AS page, p.image AS image
			LIMIT 1`,
			map[string]any{"doc_id": documentID, "heading": heading})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("heading %q: %w", heading, ErrNotFound)
		}
		return pageResult{number: recInt(rec, "page"), image: recString(rec, "image")}, nil
	})
	if err != nil {
		return 0, "", err
	}
	r := out.(pageResult)
	return r.number, r.image, nil
}

// requireDocument fails with ErrNotFound when the document id is unknown.
func (c *Client) requireDocument(ctx context.Context, tx neo4j.ManagedTransaction, documentID string) error {
	res, err := tx.Run(ctx,
		`MATCH (d:Document {id: $doc_id}) RETURN count(d) AS n`,
		map[string]any{"doc_id": documentID})
	if err != nil {
		return err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return err
	}
	if n, _ := rec.Get("n"); n.(int64) == 0 {
		return fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	return nil
}

func recString(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func recInt(rec *neo4j.Record, key string) int {
	if v, ok := rec.Get(key); ok && v != nil {
		if n, ok := v.(int64); ok {
			return int(n)
		}
	}
	return 0
}
