package structure

import (
	"fmt"
	"strings"

	"github.com/docgraph/docgraph/internal/extract"
)

// Convention selects the serialization the generator is asked to emit.
type Convention string

const (
	// ConventionJSON asks for a single strict-JSON object.
	ConventionJSON Convention = "json"
	// ConventionMarker asks for the line-oriented marker format, which
	// degrades more gracefully when output is truncated at the token limit.
	ConventionMarker Convention = "marker"
)

// Mode selects what the generator sees.
type Mode string

const (
	ModeText   Mode = "text"
	ModeVision Mode = "vision"
)

const jsonSystemPrompt = `You are a document structure analyst. You extract the hierarchical outline of a document: its headings, subheadings, surrounding context, and references to visual elements.

Respond with a single JSON object and nothing else. The object has one key, "document_structure", whose value is an array of heading objects. Each heading object has:
- "heading": the heading text, copied verbatim from the document
- "page_reference": the 1-indexed page number where the heading appears
- "context": a short excerpt of the body text under the heading
- "visual_references": an array of {"caption", "reference", "page_reference"} objects
- "subheadings": an array of {"title", "context", "page_reference", "visual_references"} objects

Rules:
1. Do not invent or summarize content. Copy heading and subheading text verbatim from the document.
2. Always include a page number for every heading and subheading.
3. Copy visual element captions verbatim when they are explicitly present in the text (for example "Figure 1: ..."). Never fabricate a caption.
4. Treat candidate headings shorter than 120 characters of supporting body text as false positives when they are merely short decorative or all-caps fragments: demote them to body text, do not emit them as headings.
5. Only one level of subheading nesting is allowed.
6. Output valid JSON only. No prose, no code fences, no trailing commas.`

const markerSystemPrompt = `You are a document structure analyst. You extract the hierarchical outline of a document: its headings, subheadings, surrounding context, and references to visual elements.

Respond in plain text using exactly these line markers:

--HEADING-- <heading text> (Page: N)
--SUBHEADING-- <subheading text> (Page: N)
--CONTENT-- <body text for the heading or subheading above>
--VISUAL-- <caption text> (Page: N)

Rules:
1. Do not invent or summarize content. Copy heading and subheading text verbatim from the document.
2. Always include the (Page: N) page number on every --HEADING--, --SUBHEADING--, and --VISUAL-- line, using 1-indexed page numbers.
3. Copy visual element captions verbatim when they are explicitly present in the text (for example "Figure 1: ..."). Never fabricate a caption.
4. Treat candidate headings shorter than 120 characters of supporting body text as false positives when they are merely short decorative or all-caps fragments: demote them to body text, do not emit them as headings.
5. A --SUBHEADING-- must follow the --HEADING-- it belongs to. Only one level of nesting is allowed.
6. Every --SUBHEADING-- must be followed by a --CONTENT-- or --VISUAL-- line before the next section marker.
7. Do not use any markers other than the four listed above.`

// SystemPrompt returns the generator instructions for a convention.
func SystemPrompt(convention Convention) string {
	if convention == ConventionMarker {
		return markerSystemPrompt
	}
	return jsonSystemPrompt
}

// BuildUserPrompt assembles the user message: per-page text blocks plus an
// advisory list of heading candidates found by the regex pre-pass. In vision
// mode page text is still included so the generator can copy headings
// verbatim even when OCR of the image would differ.
func BuildUserPrompt(doc *extract.Document, convention Convention) string {
	var b strings.Builder

	b.WriteString("Extract the document structure from the following document")
	if doc.Meta.Title != "" {
		fmt.Fprintf(&b, " titled %q", doc.Meta.Title)
	}
	fmt.Fprintf(&b, " (%d pages).\n\n", len(doc.Pages))

	candidates := collectCandidates(doc.Pages, 40)
	if len(candidates) > 0 {
		b.WriteString("Lines that may be headings (advisory only, verify against the document):\n")
		for _, c := range candidates {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, p := range doc.Pages {
		fmt.Fprintf(&b, "=== Page %d ===\n", p.Number+1)
		if text := strings.TrimSpace(p.Text); text != "" {
			b.WriteString(text)
		} else {
			b.WriteString("(no embedded text on this page)")
		}
		b.WriteString("\n\n")
	}

	if convention == ConventionMarker {
		b.WriteString("Respond using the --HEADING--/--SUBHEADING--/--CONTENT--/--VISUAL-- marker format described in your instructions.")
	} else {
		b.WriteString("Respond with the single JSON object described in your instructions.")
	}

	return b.String()
}

// collectCandidates gathers heading candidates across pages, capped so the
// hint block cannot dominate the prompt.
func collectCandidates(pages []extract.Page, max int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range pages {
		for _, c := range extract.ScanHeadingCandidates(p.Text) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}
