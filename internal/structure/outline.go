// Package structure turns raw generator output into a validated document
// outline. The JSON convention runs a tiered repair cascade; the marker
// convention runs a tolerant line scanner. Both guarantee a non-empty
// outline to the caller.
package structure

import (
	"fmt"
	"unicode/utf8"

	"github.com/docgraph/docgraph/internal/extract"
)

// PlaceholderHeadingTitle names the single heading synthesized when no
// structure can be extracted from a document.
const PlaceholderHeadingTitle = "Document Content"

// placeholderContext is the diagnostic context attached to a bare
// placeholder heading produced by the marker scanner.
const placeholderContext = "No document structure could be extracted from the response."

// VisualReference records a figure/table/chart caption anchored to a page.
type VisualReference struct {
	Caption       string `json:"caption"`
	Reference     string `json:"reference"`
	PageReference int    `json:"page_reference"`
}

// Subheading is one level below a heading. No deeper nesting is modeled.
type Subheading struct {
	Title            string            `json:"title"`
	Context          string            `json:"context"`
	PageReference    int               `json:"page_reference"`
	VisualReferences []VisualReference `json:"visual_references,omitempty"`
}

// Heading is a top-level outline entry with 1-indexed page references.
type Heading struct {
	Heading          string            `json:"heading"`
	PageReference    int               `json:"page_reference"`
	Context          string            `json:"context,omitempty"`
	VisualReferences []VisualReference `json:"visual_references,omitempty"`
	Subheadings      []Subheading      `json:"subheadings,omitempty"`
}

// Outline is the canonical hierarchical structure of a document. Page
// references are 1-indexed until the normalizer converts them.
type Outline struct {
	DocumentStructure []Heading `json:"document_structure"`
}

// IsEmpty reports whether the outline has no headings.
func (o *Outline) IsEmpty() bool {
	return o == nil || len(o.DocumentStructure) == 0
}

// IsPlaceholder reports whether the outline is the bare single-placeholder
// form, which the normalizer expands into per-page subheadings.
func (o *Outline) IsPlaceholder() bool {
	return o != nil &&
		len(o.DocumentStructure) == 1 &&
		o.DocumentStructure[0].Heading == PlaceholderHeadingTitle &&
		len(o.DocumentStructure[0].Subheadings) == 0
}

// ClampPages forces every page reference into [1, pageCount]. Out-of-range
// values from the generator are clamped to the nearest bound rather than
// rejected.
func ClampPages(o *Outline, pageCount int) {
	if o == nil || pageCount < 1 {
		return
	}
	clamp := func(p int) int {
		if p < 1 {
			return 1
		}
		if p > pageCount {
			return pageCount
		}
		return p
	}
	for i := range o.DocumentStructure {
		h := &o.DocumentStructure[i]
		h.PageReference = clamp(h.PageReference)
		for j := range h.VisualReferences {
			h.VisualReferences[j].PageReference = clamp(h.VisualReferences[j].PageReference)
		}
		for j := range h.Subheadings {
			s := &h.Subheadings[j]
			s.PageReference = clamp(s.PageReference)
			for k := range s.VisualReferences {
				s.VisualReferences[k].PageReference = clamp(s.VisualReferences[k].PageReference)
			}
		}
	}
}

// PlaceholderOutline returns the bare single-heading fallback with a fixed
// diagnostic context.
func PlaceholderOutline() *Outline {
	return &Outline{
		DocumentStructure: []Heading{{
			Heading:       PlaceholderHeadingTitle,
			PageReference: 1,
			Context:       placeholderContext,
		}},
	}
}

// FallbackOutline builds the page-based outline used when the generator is
// unavailable or every parse tier fails: one generic heading, one subheading
// per page titled by the page's first short text line, body text truncated
// to contextBudget characters.
func FallbackOutline(pages []extract.Page, contextBudget int) *Outline {
	if contextBudget <= 0 {
		contextBudget = 500
	}

	heading := Heading{
		Heading:       PlaceholderHeadingTitle,
		PageReference: 1,
	}
	for _, p := range pages {
		title := extract.FirstShortLine(p.Text, 80)
		if title == "" {
			title = fmt.Sprintf("Page %d", p.Number+1)
		}
		context := truncateToBudget(p.Text, contextBudget)
		heading.Subheadings = append(heading.Subheadings, Subheading{
			Title:         title,
			Context:       context,
			PageReference: p.Number + 1,
		})
	}

	return &Outline{DocumentStructure: []Heading{heading}}
}

// truncateToBudget cuts s to at most budget bytes, backing up so the cut
// never splits a multi-byte rune.
func truncateToBudget(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
