package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentStructureSchema is the shape the generator is asked for. It is
// deliberately loose about page_reference types; the decoder coerces
// strings and floats to ints.
const documentStructureSchema = `{
  "type": "object",
  "required": ["document_structure"],
  "properties": {
    "document_structure": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["heading"],
        "properties": {
          "heading": {"type": "string"},
          "page_reference": {"type": ["integer", "number", "string"]},
          "context": {"type": "string"},
          "visual_references": {"type": ["array", "null"]},
          "subheadings": {"type": ["array", "null"]}
        }
      }
    }
  }
}`

var outlineSchema = mustCompileSchema(documentStructureSchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("outline.json", strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("invalid outline schema: %v", err))
	}
	schema, err := compiler.Compile("outline.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile outline schema: %v", err))
	}
	return schema
}

// pageRef tolerates the page-number representations generators actually
// emit: integers, floats, numeric strings, or null.
type pageRef int

func (p *pageRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*p = 0
			return nil
		}
		*p = pageRef(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = pageRef(int(f))
	return nil
}

type wireVisualReference struct {
	Caption       string  `json:"caption"`
	Reference     string  `json:"reference"`
	PageReference pageRef `json:"page_reference"`
}

type wireSubheading struct {
	Title            string                `json:"title"`
	Context          string                `json:"context"`
	PageReference    pageRef               `json:"page_reference"`
	VisualReferences []wireVisualReference `json:"visual_references"`
}

type wireHeading struct {
	Heading          string                `json:"heading"`
	PageReference    pageRef               `json:"page_reference"`
	Context          string                `json:"context"`
	VisualReferences []wireVisualReference `json:"visual_references"`
	Subheadings      []wireSubheading      `json:"subheadings"`
}

type wireOutline struct {
	DocumentStructure []wireHeading `json:"document_structure"`
}

// ParseJSONResponse extracts and decodes a JSON-convention outline from raw
// generator output, running the repair cascade when the extracted span does
// not parse. Returns an error only when every tier fails.
func ParseJSONResponse(raw string) (*Outline, error) {
	span := extractJSONSpan(raw)
	if strings.TrimSpace(span) == "" {
		return nil, fmt.Errorf("no JSON content found in response")
	}

	outline, firstErr := decodeOutline(span)
	if firstErr == nil {
		return outline, nil
	}

	// Repairs apply cumulatively in a fixed order, re-testing after each.
	current := span
	for _, strategy := range repairStrategies {
		repaired, changed := strategy.Repair(current)
		if !changed {
			continue
		}
		current = repaired
		if outline, err := decodeOutline(current); err == nil {
			return outline, nil
		}
	}

	return nil, fmt.Errorf("JSON repair cascade exhausted: %w", firstErr)
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// extractJSONSpan pulls the most plausible JSON span from raw text: a
// fenced code block if present, else the first brace-matched object, else
// the trimmed text itself.
func extractJSONSpan(raw string) string {
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if span, ok := matchBraceSpan(raw); ok {
		return span
	}
	return strings.TrimSpace(raw)
}

// matchBraceSpan finds the first '{' and its matching '}', ignoring braces
// inside quoted strings and honoring backslash escapes.
func matchBraceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeOutline parses a candidate span, validates it against the outline
// schema, and converts it to the canonical form.
func decodeOutline(span string) (*Outline, error) {
	var generic any
	if err := json.Unmarshal([]byte(span), &generic); err != nil {
		return nil, err
	}
	if err := outlineSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("response does not match outline schema: %w", err)
	}

	var wire wireOutline
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return nil, err
	}
	return wire.toOutline(), nil
}

func (w *wireOutline) toOutline() *Outline {
	out := &Outline{}
	for _, wh := range w.DocumentStructure {
		if strings.TrimSpace(wh.Heading) == "" {
			continue
		}
		h := Heading{
			Heading:       strings.TrimSpace(wh.Heading),
			PageReference: defaultPage(int(wh.PageReference)),
			Context:       strings.TrimSpace(wh.Context),
		}
		for _, wv := range wh.VisualReferences {
			h.VisualReferences = append(h.VisualReferences, toVisualReference(wv, len(h.VisualReferences)+1))
		}
		for _, ws := range wh.Subheadings {
			if strings.TrimSpace(ws.Title) == "" {
				continue
			}
			s := Subheading{
				Title:         strings.TrimSpace(ws.Title),
				Context:       strings.TrimSpace(ws.Context),
				PageReference: defaultPage(int(ws.PageReference)),
			}
			for _, wv := range ws.VisualReferences {
				s.VisualReferences = append(s.VisualReferences, toVisualReference(wv, len(s.VisualReferences)+1))
			}
			h.Subheadings = append(h.Subheadings, s)
		}
		out.DocumentStructure = append(out.DocumentStructure, h)
	}
	return out
}

func toVisualReference(wv wireVisualReference, seq int) VisualReference {
	ref := strings.TrimSpace(wv.Reference)
	if ref == "" {
		ref = fmt.Sprintf("figure_%03d", seq)
	}
	return VisualReference{
		Caption:       strings.TrimSpace(wv.Caption),
		Reference:     ref,
		PageReference: defaultPage(int(wv.PageReference)),
	}
}

// defaultPage maps a missing or non-positive page reference to page 1.
func defaultPage(p int) int {
	if p < 1 {
		return 1
	}
	return p
}
