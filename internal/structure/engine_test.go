package structure

import (
	"context"
	"strings"
	"testing"

	"github.com/docgraph/docgraph/internal/extract"
	"github.com/docgraph/docgraph/internal/providers"
)

func testDocument() *extract.Document {
	return &extract.Document{
		Pages: []extract.Page{
			{Number: 0, Text: "Introduction\nThis is the opening page with some body text."},
			{Number: 1, Text: "Methods\nHow the work was done."},
			{Number: 2, Text: ""},
		},
		Meta: extract.Metadata{Title: "Test Document", PageCount: 3},
	}
}

func TestEngineGeneratesFromMarkerResponse(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "--HEADING-- Introduction (Page: 1)\n--CONTENT-- Opening text\n--HEADING-- Methods (Page: 2)\n--CONTENT-- Method text"

	engine := &Engine{Client: mock, Convention: ConventionMarker, Mode: ModeText}
	outline, err := engine.Generate(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(outline.DocumentStructure) != 2 {
		t.Fatalf("expected 2 headings, got %+v", outline.DocumentStructure)
	}
	if mock.Calls() != 1 {
		t.Fatalf("expected 1 generator call, got %d", mock.Calls())
	}
}

func TestEngineNetworkErrorFallsBackToPages(t *testing.T) {
	mock := providers.NewMockClient()
	mock.FailWith = providers.ErrorTypeNetwork

	engine := &Engine{Client: mock, Convention: ConventionMarker, Mode: ModeText}
	outline, err := engine.Generate(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("generator failure must not propagate: %v", err)
	}
	if outline.IsEmpty() {
		t.Fatal("outline must never be empty")
	}
	if len(outline.DocumentStructure) != 1 {
		t.Fatalf("expected single fallback heading, got %+v", outline.DocumentStructure)
	}
	h := outline.DocumentStructure[0]
	if h.Heading != PlaceholderHeadingTitle {
		t.Fatalf("unexpected fallback heading: %q", h.Heading)
	}
	if len(h.Subheadings) != 3 {
		t.Fatalf("expected one subheading per page, got %d", len(h.Subheadings))
	}
	if h.Subheadings[0].Title != "Introduction" {
		t.Fatalf("first short line not used as subheading title: %q", h.Subheadings[0].Title)
	}
	if h.Subheadings[2].Title != "Page 3" {
		t.Fatalf("textless page should fall back to generic title: %q", h.Subheadings[2].Title)
	}
}

func TestEngineGarbageJSONFallsBack(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "complete nonsense with no structure whatsoever"

	engine := &Engine{Client: mock, Convention: ConventionJSON, Mode: ModeText}
	outline, err := engine.Generate(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if outline.IsEmpty() {
		t.Fatal("outline must never be empty")
	}
}

func TestEngineSalvagesPartialJSON(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = `{"document_structure": [[[ {"heading": "Intro", "page_reference": 1} broken {"heading": "Methods", "page_reference": 2`
	mock.Truncate = true

	engine := &Engine{Client: mock, Convention: ConventionJSON, Mode: ModeText}
	outline, err := engine.Generate(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(outline.DocumentStructure) != 2 {
		t.Fatalf("expected salvage to recover 2 headings, got %+v", outline.DocumentStructure)
	}
}

func TestEngineClampsOutOfRangePages(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = `{"document_structure": [{"heading": "A", "page_reference": 50}, {"heading": "B", "page_reference": 2}]}`

	engine := &Engine{Client: mock, Convention: ConventionJSON, Mode: ModeText}
	outline, err := engine.Generate(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := outline.DocumentStructure[0].PageReference; got != 3 {
		t.Fatalf("page not clamped to page count: %d", got)
	}
}

func TestEngineUsesDeterministicDecoding(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "--HEADING-- A (Page: 1)\n--CONTENT-- x"

	engine := &Engine{Client: mock, Convention: ConventionMarker, Mode: ModeText}
	if _, err := engine.Generate(context.Background(), testDocument()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if mock.LastRequest.Temperature != 0 {
		t.Fatalf("structure generation must use temperature 0, got %v", mock.LastRequest.Temperature)
	}
	if mock.LastRequest.MaxTokens <= 0 {
		t.Fatal("output length cap not set")
	}
}

func TestEngineVisionModeAttachesImages(t *testing.T) {
	doc := testDocument()
	// "img" base64-encoded
	doc.Pages[0].Image = "aW1n"

	mock := providers.NewMockClient()
	mock.ResponseText = "--HEADING-- A (Page: 1)\n--CONTENT-- x"

	engine := &Engine{Client: mock, Convention: ConventionMarker, Mode: ModeVision}
	if _, err := engine.Generate(context.Background(), doc); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	user := mock.LastRequest.Messages[len(mock.LastRequest.Messages)-1]
	if len(user.Images) != 1 || string(user.Images[0]) != "img" {
		t.Fatalf("page image not attached to user message: %+v", user.Images)
	}
}

func TestPromptContainsHeadingLengthRule(t *testing.T) {
	for _, convention := range []Convention{ConventionJSON, ConventionMarker} {
		prompt := SystemPrompt(convention)
		if !strings.Contains(prompt, "120") {
			t.Fatalf("%s prompt missing the 120-character false-positive rule", convention)
		}
		if !strings.Contains(prompt, "verbatim") {
			t.Fatalf("%s prompt missing the verbatim-copy rule", convention)
		}
	}
}

func TestBuildUserPromptIncludesPagesAndCandidates(t *testing.T) {
	doc := testDocument()
	doc.Pages[0].Text = "CHAPTER ONE INTRO\nbody text follows here"

	prompt := BuildUserPrompt(doc, ConventionMarker)
	if !strings.Contains(prompt, "=== Page 1 ===") || !strings.Contains(prompt, "=== Page 3 ===") {
		t.Fatal("page sections missing from prompt")
	}
	if !strings.Contains(prompt, "CHAPTER ONE INTRO") {
		t.Fatal("page text missing from prompt")
	}
	if !strings.Contains(prompt, "--HEADING--") {
		t.Fatal("marker instructions missing from prompt")
	}
}
