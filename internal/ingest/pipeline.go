// Package ingest orchestrates document ingestion: extract pages, generate
// the outline, normalize it, and persist everything to the graph. A second
// subsystem indexes the raw bytes for retrieval; ingestion only hands the
// bytes over.
package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docgraph/docgraph/internal/extract"
	"github.com/docgraph/docgraph/internal/graph"
	"github.com/docgraph/docgraph/internal/index"
	"github.com/docgraph/docgraph/internal/structure"
	"github.com/docgraph/docgraph/internal/svcctx"
)

// GraphStore is the persistence gateway the pipeline writes through.
// *graph.Client implements it.
type GraphStore interface {
	CreateDocument(ctx context.Context, meta graph.DocumentMeta) error
	CreatePages(ctx context.Context, documentID string, pages []extract.Page) error
	PersistStructure(ctx context.Context, documentID string, outline *structure.Outline, norm *structure.StructuredDocument) error
}

// Pipeline runs document ingestion end to end. Concurrent ingestions of
// distinct documents are independent; the status store is the only shared
// state.
type Pipeline struct {
	Graph   GraphStore
	Engine  *structure.Engine
	Indexer index.Indexer // optional
	Status  *StatusStore
	Options extract.Options

	extractFn func(ctx context.Context, pdfData []byte, filename string, opts extract.Options) (*extract.Document, error)
}

// NewPipeline wires a pipeline with the real page extractor.
func NewPipeline(store GraphStore, engine *structure.Engine, indexer index.Indexer, status *StatusStore) *Pipeline {
	if status == nil {
		status = NewStatusStore()
	}
	return &Pipeline{
		Graph:     store,
		Engine:    engine,
		Indexer:   indexer,
		Status:    status,
		extractFn: extract.Extract,
	}
}

// Result reports a completed ingestion. The outline is guaranteed non-empty.
type Result struct {
	DocumentID string
	Title      string
	PageCount  int
	Outline    *structure.Outline
	Structured *structure.StructuredDocument
}

// Ingest processes one PDF. The filename, when non-empty, overrides the
// document title. Either a result with a non-empty structure is returned,
// or the ingestion fails outright; never both halves.
func (p *Pipeline) Ingest(ctx context.Context, pdfData []byte, filename string) (*Result, error) {
	log := svcctx.LoggerFrom(ctx)
	documentID := uuid.New().String()
	log = log.With("document_id", documentID)

	p.Status.Set(documentID, StatusExtracting)
	doc, err := p.extractFn(ctx, pdfData, filename, p.Options)
	if err != nil {
		p.Status.Fail(documentID, err)
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	log.Info("extracted document", "pages", len(doc.Pages), "title", doc.Meta.Title)

	p.Status.Set(documentID, StatusGenerating)
	outline, err := p.Engine.Generate(ctx, doc)
	if err != nil {
		p.Status.Fail(documentID, err)
		return nil, fmt.Errorf("structure generation cancelled: %w", err)
	}
	norm := structure.Normalize(outline, len(doc.Pages))
	log.Info("generated structure", "headings", len(norm.Headings))

	p.Status.Set(documentID, StatusPersisting)
	if err := p.persist(ctx, documentID, doc, outline, norm); err != nil {
		p.Status.Fail(documentID, err)
		return nil, err
	}

	if p.Indexer != nil {
		p.Status.Set(documentID, StatusIndexing)
		go p.indexInBackground(ctx, documentID, pdfData)
	} else {
		p.Status.Set(documentID, StatusCompleted)
	}

	return &Result{
		DocumentID: documentID,
		Title:      doc.Meta.Title,
		PageCount:  len(doc.Pages),
		Outline:    outline,
		Structured: norm,
	}, nil
}

// IngestBase64 decodes a base64-encoded PDF and ingests it.
func (p *Pipeline) IngestBase64(ctx context.Context, encoded, filename string) (*Result, error) {
	pdfData, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 PDF data: %w", err)
	}
	return p.Ingest(ctx, pdfData, filename)
}

func (p *Pipeline) persist(ctx context.Context, documentID string, doc *extract.Document, outline *structure.Outline, norm *structure.StructuredDocument) error {
	meta := graph.DocumentMeta{
		ID:           documentID,
		Title:        doc.Meta.Title,
		UploadedAt:   time.Now(),
		PageCount:    doc.Meta.PageCount,
		FileSizeKB:   doc.Meta.FileSizeKB,
		Author:       doc.Meta.Author,
		Keywords:     doc.Meta.Keywords,
		Subject:      doc.Meta.Subject,
		Producer:     doc.Meta.Producer,
		Creator:      doc.Meta.Creator,
		CreationDate: doc.Meta.CreationDate,
	}
	if err := p.Graph.CreateDocument(ctx, meta); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	if err := p.Graph.CreatePages(ctx, documentID, doc.Pages); err != nil {
		return fmt.Errorf("failed to persist pages: %w", err)
	}
	if err := p.Graph.PersistStructure(ctx, documentID, outline, norm); err != nil {
		return fmt.Errorf("failed to persist structure: %w", err)
	}
	return nil
}

// indexInBackground hands the raw bytes to the retrieval indexer. Indexing
// failures do not fail the ingestion; the structure is already persisted.
func (p *Pipeline) indexInBackground(ctx context.Context, documentID string, pdfData []byte) {
	bg := context.WithoutCancel(ctx)
	log := svcctx.LoggerFrom(bg)
	if err := p.Indexer.Index(bg, documentID, pdfData); err != nil {
		log.Warn("retrieval indexing failed", "document_id", documentID, "error", err)
	}
	p.Status.Set(documentID, StatusCompleted)
}
