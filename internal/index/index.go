// Package index hands documents to the retrieval subsystem. The pipeline's
// only obligation is supplying the document id and the original bytes; no
// data flows back.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Indexer receives documents for independent retrieval indexing.
type Indexer interface {
	// Index makes the raw document available to the retrieval subsystem.
	Index(ctx context.Context, documentID string, pdfData []byte) error
	// Remove drops a document from the index. Idempotent.
	Remove(ctx context.Context, documentID string) error
}

// LocalIndexer writes documents to a spool directory the retrieval
// subsystem watches.
type LocalIndexer struct {
	Dir string
}

func NewLocalIndexer(dir string) (*LocalIndexer, error) {
	if dir == "" {
		return nil, fmt.Errorf("index directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	return &LocalIndexer{Dir: dir}, nil
}

func (l *LocalIndexer) path(documentID string) string {
	return filepath.Join(l.Dir, documentID+".pdf")
}

func (l *LocalIndexer) Index(ctx context.Context, documentID string, pdfData []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(l.path(documentID), pdfData, 0o644); err != nil {
		return fmt.Errorf("failed to spool document for indexing: %w", err)
	}
	return nil
}

func (l *LocalIndexer) Remove(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(l.path(documentID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove indexed document: %w", err)
	}
	return nil
}
