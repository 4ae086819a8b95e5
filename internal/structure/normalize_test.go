package structure

import "testing"

func TestNormalizeConvertsToZeroIndexed(t *testing.T) {
	outline := &Outline{DocumentStructure: []Heading{
		{Heading: "Intro", PageReference: 1, Context: "body", Subheadings: []Subheading{
			{Title: "Background", PageReference: 2, Context: "sub body"},
		}},
		{Heading: "Methods", PageReference: 3, Context: "body"},
	}}

	doc := Normalize(outline, 10)
	if len(doc.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %v", doc.Headings)
	}
	if doc.PageMapping["Intro"] != 0 || doc.PageMapping["Methods"] != 2 {
		t.Fatalf("page mapping not 0-indexed: %v", doc.PageMapping)
	}
	if doc.PageMapping["Background"] != 1 {
		t.Fatalf("subheading page wrong: %v", doc.PageMapping)
	}
	if got := doc.Hierarchy["Intro"]; len(got) != 1 || got[0] != "Background" {
		t.Fatalf("hierarchy wrong: %v", doc.Hierarchy)
	}
}

func TestNormalizePageBounds(t *testing.T) {
	outline := &Outline{DocumentStructure: []Heading{
		{Heading: "Low", PageReference: 0},
		{Heading: "High", PageReference: 99},
	}}

	doc := Normalize(outline, 5)
	for text, page := range doc.PageMapping {
		if page < 0 || page > 4 {
			t.Fatalf("page for %q out of range: %d", text, page)
		}
	}
	if doc.PageMapping["Low"] != 0 {
		t.Fatalf("low page not clamped: %d", doc.PageMapping["Low"])
	}
	if doc.PageMapping["High"] != 4 {
		t.Fatalf("high page not clamped: %d", doc.PageMapping["High"])
	}
}

func TestNormalizeDeduplicatesHeadings(t *testing.T) {
	outline := &Outline{DocumentStructure: []Heading{
		{Heading: "Intro", PageReference: 1, Subheadings: []Subheading{{Title: "A", PageReference: 1, Context: "x"}}},
		{Heading: "Intro", PageReference: 7, Subheadings: []Subheading{{Title: "B", PageReference: 7, Context: "y"}}},
	}}

	doc := Normalize(outline, 10)
	if len(doc.Headings) != 1 {
		t.Fatalf("duplicate heading not merged: %v", doc.Headings)
	}
	// First occurrence's page mapping wins.
	if doc.PageMapping["Intro"] != 0 {
		t.Fatalf("first page mapping lost: %d", doc.PageMapping["Intro"])
	}
	// Later duplicate's subheadings are still merged in.
	subs := doc.Hierarchy["Intro"]
	if len(subs) != 2 || subs[0] != "A" || subs[1] != "B" {
		t.Fatalf("subheadings not merged: %v", subs)
	}
}

func TestNormalizeExpandsPlaceholder(t *testing.T) {
	doc := Normalize(PlaceholderOutline(), 3)

	if len(doc.Headings) != 1 || doc.Headings[0] != PlaceholderHeadingTitle {
		t.Fatalf("placeholder heading missing: %v", doc.Headings)
	}
	subs := doc.Hierarchy[PlaceholderHeadingTitle]
	if len(subs) != 3 {
		t.Fatalf("expected one subheading per page, got %v", subs)
	}
	if subs[0] != "Page 1" || subs[2] != "Page 3" {
		t.Fatalf("unexpected subheading titles: %v", subs)
	}
	if doc.PageMapping["Page 2"] != 1 {
		t.Fatalf("page subheading mapping wrong: %v", doc.PageMapping)
	}
}

func TestClampPages(t *testing.T) {
	outline := &Outline{DocumentStructure: []Heading{
		{Heading: "A", PageReference: -2, Subheadings: []Subheading{
			{Title: "S", PageReference: 42, VisualReferences: []VisualReference{{Caption: "c", PageReference: 0}}},
		}},
	}}

	ClampPages(outline, 5)
	h := outline.DocumentStructure[0]
	if h.PageReference != 1 {
		t.Fatalf("heading page not clamped up: %d", h.PageReference)
	}
	if h.Subheadings[0].PageReference != 5 {
		t.Fatalf("subheading page not clamped down: %d", h.Subheadings[0].PageReference)
	}
	if h.Subheadings[0].VisualReferences[0].PageReference != 1 {
		t.Fatalf("visual page not clamped: %d", h.Subheadings[0].VisualReferences[0].PageReference)
	}
}
