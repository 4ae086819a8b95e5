package structure

import "fmt"

// StructuredDocument is the persistence-ready form of an outline: the flat
// heading list, a 0-indexed page mapping, and the heading hierarchy.
type StructuredDocument struct {
	// Headings is the ordered list of main heading texts, deduplicated.
	Headings []string
	// PageMapping maps heading and subheading text to a 0-indexed page
	// number. The first occurrence of a duplicated text wins.
	PageMapping map[string]int
	// Hierarchy maps each main heading's text to its ordered subheading
	// titles.
	Hierarchy map[string][]string
}

// Normalize converts the 1-indexed canonical outline into the 0-indexed
// persistence structure. Duplicate headings are merged: the first keeps its
// page mapping and list position, later duplicates only contribute their
// subheadings. A bare placeholder outline is expanded to one subheading per
// page.
func Normalize(outline *Outline, pageCount int) *StructuredDocument {
	doc := &StructuredDocument{
		PageMapping: make(map[string]int),
		Hierarchy:   make(map[string][]string),
	}
	if outline == nil {
		return doc
	}

	if outline.IsPlaceholder() && pageCount > 0 {
		doc.Headings = []string{PlaceholderHeadingTitle}
		doc.PageMapping[PlaceholderHeadingTitle] = 0
		for i := 0; i < pageCount; i++ {
			title := fmt.Sprintf("Page %d", i+1)
			doc.Hierarchy[PlaceholderHeadingTitle] = append(doc.Hierarchy[PlaceholderHeadingTitle], title)
			doc.PageMapping[title] = i
		}
		return doc
	}

	seenHeadings := make(map[string]struct{})
	for _, h := range outline.DocumentStructure {
		if h.Heading == "" {
			continue
		}
		if _, dup := seenHeadings[h.Heading]; !dup {
			seenHeadings[h.Heading] = struct{}{}
			doc.Headings = append(doc.Headings, h.Heading)
			doc.PageMapping[h.Heading] = toZeroIndexed(h.PageReference, pageCount)
		}
		for _, s := range h.Subheadings {
			if s.Title == "" {
				continue
			}
			if !containsString(doc.Hierarchy[h.Heading], s.Title) {
				doc.Hierarchy[h.Heading] = append(doc.Hierarchy[h.Heading], s.Title)
			}
			if _, ok := doc.PageMapping[s.Title]; !ok {
				doc.PageMapping[s.Title] = toZeroIndexed(s.PageReference, pageCount)
			}
		}
	}

	return doc
}

// toZeroIndexed converts a 1-indexed page reference to a 0-indexed page
// number, clamped to the document's page range so no dangling reference can
// reach the graph.
func toZeroIndexed(pageRef, pageCount int) int {
	p := pageRef - 1
	if p < 0 {
		p = 0
	}
	if pageCount > 0 && p > pageCount-1 {
		p = pageCount - 1
	}
	return p
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
