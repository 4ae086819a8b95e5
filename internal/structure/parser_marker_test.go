package structure

import "testing"

func TestParseMarkerTwoHeadings(t *testing.T) {
	raw := "--HEADING-- Intro (Page: 1)\n--CONTENT-- Hello world\n--HEADING-- Methods (Page: 2)\n--CONTENT-- Steps here"

	outline := ParseMarkerResponse(raw)
	if len(outline.DocumentStructure) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(outline.DocumentStructure))
	}

	first := outline.DocumentStructure[0]
	if first.Heading != "Intro" || first.Context != "Hello world" || first.PageReference != 1 {
		t.Fatalf("unexpected first heading: %+v", first)
	}
	second := outline.DocumentStructure[1]
	if second.Heading != "Methods" || second.Context != "Steps here" || second.PageReference != 2 {
		t.Fatalf("unexpected second heading: %+v", second)
	}
	if len(first.Subheadings) != 0 || len(second.Subheadings) != 0 {
		t.Fatal("expected no subheadings")
	}
}

func TestParseMarkerSubheadingSuppression(t *testing.T) {
	raw := "--HEADING-- Main (Page: 1)\n--CONTENT-- Body text\n--SUBHEADING-- Empty (Page: 3)\n--HEADING-- Next (Page: 4)\n--CONTENT-- More text"

	outline := ParseMarkerResponse(raw)
	if len(outline.DocumentStructure) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(outline.DocumentStructure))
	}
	if len(outline.DocumentStructure[0].Subheadings) != 0 {
		t.Fatalf("bodiless subheading not suppressed: %+v", outline.DocumentStructure[0].Subheadings)
	}
}

func TestParseMarkerSubheadingWithContent(t *testing.T) {
	raw := "--HEADING-- Main (Page: 1)\n--SUBHEADING-- Detail (Page: 2)\n--CONTENT-- Sub body\ncontinued on next line\n--VISUAL-- Figure 1: A chart (Page: 2)"

	outline := ParseMarkerResponse(raw)
	if len(outline.DocumentStructure) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(outline.DocumentStructure))
	}
	subs := outline.DocumentStructure[0].Subheadings
	if len(subs) != 1 {
		t.Fatalf("expected 1 subheading, got %d", len(subs))
	}
	if subs[0].Title != "Detail" || subs[0].PageReference != 2 {
		t.Fatalf("unexpected subheading: %+v", subs[0])
	}
	if subs[0].Context != "Sub body continued on next line" {
		t.Fatalf("multiline content not joined: %q", subs[0].Context)
	}
	if len(subs[0].VisualReferences) != 1 {
		t.Fatalf("visual reference lost: %+v", subs[0])
	}
	v := subs[0].VisualReferences[0]
	if v.Caption != "Figure 1: A chart" || v.Reference != "figure_001" || v.PageReference != 2 {
		t.Fatalf("unexpected visual reference: %+v", v)
	}
}

func TestParseMarkerContentSpansBlankLines(t *testing.T) {
	raw := "--HEADING-- Intro (Page: 1)\n--CONTENT-- First paragraph line\n\nSecond paragraph continues here\n--HEADING-- Next (Page: 2)\n--CONTENT-- Tail"

	outline := ParseMarkerResponse(raw)
	if len(outline.DocumentStructure) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(outline.DocumentStructure))
	}
	first := outline.DocumentStructure[0]
	if first.Context != "First paragraph line Second paragraph continues here" {
		t.Fatalf("paragraph after blank line lost: %q", first.Context)
	}
	if outline.DocumentStructure[1].Context != "Tail" {
		t.Fatalf("following section corrupted: %q", outline.DocumentStructure[1].Context)
	}
}

func TestParseMarkerOrphanSubheadingGetsDefaultHeading(t *testing.T) {
	raw := "--SUBHEADING-- Lonely (Page: 2)\n--CONTENT-- Some text"

	outline := ParseMarkerResponse(raw)
	if len(outline.DocumentStructure) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(outline.DocumentStructure))
	}
	if outline.DocumentStructure[0].Heading != PlaceholderHeadingTitle {
		t.Fatalf("default heading not synthesized: %q", outline.DocumentStructure[0].Heading)
	}
	if len(outline.DocumentStructure[0].Subheadings) != 1 {
		t.Fatalf("subheading lost: %+v", outline.DocumentStructure[0])
	}
}

func TestParseMarkerMissingPageDefaultsToOne(t *testing.T) {
	raw := "--HEADING-- No Page Here\n--CONTENT-- Body"

	outline := ParseMarkerResponse(raw)
	if outline.DocumentStructure[0].PageReference != 1 {
		t.Fatalf("missing page annotation should default to 1, got %d", outline.DocumentStructure[0].PageReference)
	}
}

func TestParseMarkerDropsHeadingWithoutBody(t *testing.T) {
	raw := "--HEADING-- Bare (Page: 1)\n--HEADING-- Real (Page: 2)\n--CONTENT-- Text"

	outline := ParseMarkerResponse(raw)
	if len(outline.DocumentStructure) != 1 {
		t.Fatalf("expected bare heading to be dropped, got %+v", outline.DocumentStructure)
	}
	if outline.DocumentStructure[0].Heading != "Real" {
		t.Fatalf("wrong surviving heading: %q", outline.DocumentStructure[0].Heading)
	}
}

func TestParseMarkerEmptyInputYieldsPlaceholder(t *testing.T) {
	for _, raw := range []string{"", "no markers at all", "--HEADING-- Bare (Page: 1)"} {
		outline := ParseMarkerResponse(raw)
		if outline.IsEmpty() {
			t.Fatalf("outline must never be empty (input %q)", raw)
		}
		if !outline.IsPlaceholder() {
			t.Fatalf("expected placeholder outline for %q, got %+v", raw, outline)
		}
	}
}

func TestSplitPageAnnotation(t *testing.T) {
	cases := []struct {
		in       string
		wantText string
		wantPage int
	}{
		{"Intro (Page: 3)", "Intro", 3},
		{"Intro Page: 7", "Intro", 7},
		{"Intro", "Intro", 1},
		{"Intro (page: 12)", "Intro", 12},
	}
	for _, c := range cases {
		text, page := splitPageAnnotation(c.in)
		if text != c.wantText || page != c.wantPage {
			t.Fatalf("splitPageAnnotation(%q) = (%q, %d), want (%q, %d)", c.in, text, page, c.wantText, c.wantPage)
		}
	}
}
