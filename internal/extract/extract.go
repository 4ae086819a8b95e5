// Package extract reads PDF documents into per-page text, rendered page
// images, and document metadata. It is deterministic and makes no external
// service calls.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/docgraph/docgraph/internal/svcctx"
)

// Page holds the extracted content of a single PDF page.
type Page struct {
	// Number is the 0-indexed page number.
	Number int
	// Text is the embedded text layer, empty when extraction fails.
	Text string
	// Image is the base64-encoded JPEG render of the page.
	Image string
}

// Document is the result of extracting a PDF.
type Document struct {
	Pages []Page
	Meta  Metadata
}

// Options configures page rendering.
type Options struct {
	RenderDPI     int // default 150
	MaxImageWidth int // default 1200
	JPEGQuality   int // default 85
	// SkipImages disables page rendering (text-only extraction paths).
	SkipImages bool
}

func (o Options) withDefaults() Options {
	if o.RenderDPI <= 0 {
		o.RenderDPI = 150
	}
	if o.MaxImageWidth <= 0 {
		o.MaxImageWidth = 1200
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = 85
	}
	return o
}

// Extract reads a PDF into pages and metadata. The original filename is
// threaded explicitly; when non-empty it overrides the embedded title.
// An unreadable PDF is a fatal error; per-page and per-field failures
// degrade to empty values.
func Extract(ctx context.Context, pdfData []byte, filename string, opts Options) (*Document, error) {
	log := svcctx.LoggerFrom(ctx)
	opts = opts.withDefaults()

	if len(pdfData) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	pageCount, err := api.PageCount(bytes.NewReader(pdfData), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	reader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	doc := &Document{
		Pages: make([]Page, pageCount),
	}

	// Text layer, page by page. Failures degrade to empty text.
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= pageCount; i++ {
		doc.Pages[i-1].Number = i - 1

		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			log.Warn("failed to extract page text", "page", i, "error", err)
			continue
		}
		doc.Pages[i-1].Text = strings.TrimSpace(text)
	}

	doc.Meta = extractMetadata(reader, pdfData, filename, doc.Pages)
	doc.Meta.PageCount = pageCount

	if !opts.SkipImages {
		if err := renderPages(ctx, pdfData, doc.Pages, opts); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// extractMetadata pulls document info fields; every field is best-effort.
func extractMetadata(reader *pdf.Reader, pdfData []byte, filename string, pages []Page) Metadata {
	meta := Metadata{
		FileSizeKB: len(pdfData) / 1024,
	}

	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		meta.Author = infoString(info, "Author")
		meta.Subject = infoString(info, "Subject")
		meta.Keywords = infoString(info, "Keywords")
		meta.Producer = infoString(info, "Producer")
		meta.Creator = infoString(info, "Creator")
		meta.CreationDate = parsePDFDate(infoString(info, "CreationDate"))
	}

	meta.Title = resolveTitle(filename, infoString(info, "Title"), pages)
	return meta
}

// resolveTitle picks the document title: explicit filename override, then
// embedded title, then the first reasonably short line of page 1, then a
// generated placeholder.
func resolveTitle(filename, embedded string, pages []Page) string {
	if filename != "" {
		name := filename
		if idx := strings.LastIndex(name, "."); idx > 0 {
			name = name[:idx]
		}
		if name != "" {
			return name
		}
	}
	if embedded != "" {
		return embedded
	}
	if len(pages) > 0 {
		if line := FirstShortLine(pages[0].Text, 80); line != "" {
			return line
		}
	}
	return "Untitled Document " + uuid.New().String()[:8]
}

// FirstShortLine returns the first non-empty line of text no longer than
// maxLen, or empty when none qualifies.
func FirstShortLine(text string, maxLen int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxLen {
			return line
		}
	}
	return ""
}

// writeTempPDF writes PDF bytes to a temp file for tools that need a path.
func writeTempPDF(pdfData []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "docgraph-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp PDF: %w", err)
	}
	if _, err := f.Write(pdfData); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to close temp PDF: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
