package structure

import (
	"encoding/json"
	"testing"
)

func TestParseJSONResponseFencedBlock(t *testing.T) {
	raw := "Here is the structure:\n```json\n{\"document_structure\": [{\"heading\": \"Intro\", \"page_reference\": 1, \"subheadings\": []}]}\n```\nLet me know if you need anything else."

	outline, err := ParseJSONResponse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(outline.DocumentStructure) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(outline.DocumentStructure))
	}
	if outline.DocumentStructure[0].Heading != "Intro" {
		t.Fatalf("wrong heading: %q", outline.DocumentStructure[0].Heading)
	}
}

func TestParseJSONResponseBareObjectInProse(t *testing.T) {
	raw := `Sure! {"document_structure": [{"heading": "Results", "page_reference": 3}]} hope that helps.`

	outline, err := ParseJSONResponse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if outline.DocumentStructure[0].Heading != "Results" {
		t.Fatalf("wrong heading: %q", outline.DocumentStructure[0].Heading)
	}
	if outline.DocumentStructure[0].PageReference != 3 {
		t.Fatalf("wrong page: %d", outline.DocumentStructure[0].PageReference)
	}
}

func TestMatchBraceSpanIgnoresBracesInStrings(t *testing.T) {
	raw := `The model said: {"a": "text with } inside a string", "b": 1} and then more prose`

	span, ok := matchBraceSpan(raw)
	if !ok {
		t.Fatal("no span found")
	}
	want := `{"a": "text with } inside a string", "b": 1}`
	if span != want {
		t.Fatalf("span mismatch:\n got %q\nwant %q", span, want)
	}
}

func TestParseJSONResponseStringPageReference(t *testing.T) {
	raw := `{"document_structure": [{"heading": "A", "page_reference": "4"}]}`

	outline, err := ParseJSONResponse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if outline.DocumentStructure[0].PageReference != 4 {
		t.Fatalf("string page not coerced: %d", outline.DocumentStructure[0].PageReference)
	}
}

func TestParseJSONResponseMissingStructureKey(t *testing.T) {
	if _, err := ParseJSONResponse(`{"sections": []}`); err == nil {
		t.Fatal("expected schema violation")
	}
}

func TestParseJSONResponseRepairIdempotence(t *testing.T) {
	raw := `{"document_structure": [{"heading":"A","page_reference":1,"subheadings":[],},]}`

	first, err := ParseJSONResponse(raw)
	if err != nil {
		t.Fatalf("initial repair failed: %v", err)
	}

	serialized, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	second, err := ParseJSONResponse(string(serialized))
	if err != nil {
		t.Fatalf("re-parse of repaired output failed: %v", err)
	}
	reserialized, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("re-marshal failed: %v", err)
	}
	if string(serialized) != string(reserialized) {
		t.Fatalf("repair is not a fixed point:\n first %s\nsecond %s", serialized, reserialized)
	}
}

func TestParseJSONResponseNullArrays(t *testing.T) {
	raw := `{"document_structure": [{"heading": "Intro", "page_reference": 1, "visual_references": null, "subheadings": null}]}`

	outline, err := ParseJSONResponse(raw)
	if err != nil {
		t.Fatalf("null arrays must be accepted: %v", err)
	}
	h := outline.DocumentStructure[0]
	if h.Heading != "Intro" || len(h.Subheadings) != 0 || len(h.VisualReferences) != 0 {
		t.Fatalf("unexpected outline: %+v", h)
	}
}

func TestParseJSONResponseNestedSubheadings(t *testing.T) {
	raw := `{"document_structure": [{"heading": "Methods", "page_reference": 2, "subheadings": [{"title": "Sampling", "context": "How samples were taken", "page_reference": 2, "visual_references": [{"caption": "Figure 1: Sample grid", "page_reference": 3}]}]}]}`

	outline, err := ParseJSONResponse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	subs := outline.DocumentStructure[0].Subheadings
	if len(subs) != 1 || subs[0].Title != "Sampling" {
		t.Fatalf("subheading not decoded: %+v", subs)
	}
	if len(subs[0].VisualReferences) != 1 {
		t.Fatalf("visual reference not decoded: %+v", subs[0])
	}
	if subs[0].VisualReferences[0].Reference != "figure_001" {
		t.Fatalf("missing reference token not generated: %q", subs[0].VisualReferences[0].Reference)
	}
}

func TestParseJSONResponseNoJSONAtAll(t *testing.T) {
	if _, err := ParseJSONResponse("I could not find any structure in this document."); err == nil {
		t.Fatal("expected failure for pure prose")
	}
}
