package structure

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	markerHeading    = "--HEADING--"
	markerSubheading = "--SUBHEADING--"
	markerContent    = "--CONTENT--"
	markerVisual     = "--VISUAL--"
)

// markerPageRe matches a trailing page annotation like "(Page: 3)" or
// "Page: 3", case-insensitively.
var markerPageRe = regexp.MustCompile(`(?i)\(?\s*Page:\s*(\d+)\s*\)?`)

// ParseMarkerResponse scans marker-convention text in a single pass with one
// line of lookahead. It never fails: when nothing survives the cleanup pass
// it returns the single-placeholder outline.
func ParseMarkerResponse(raw string) *Outline {
	lines := strings.Split(raw, "\n")
	outline := &Outline{}

	// Cursors are indices; appends reallocate the backing arrays, so
	// pointers into the outline would go stale.
	curHeading := -1
	curSub := -1

	// ensureHeading synthesizes a default owner for orphaned markers.
	ensureHeading := func() int {
		if curHeading >= 0 {
			return curHeading
		}
		outline.DocumentStructure = append(outline.DocumentStructure, Heading{
			Heading:       PlaceholderHeadingTitle,
			PageReference: 1,
		})
		curHeading = len(outline.DocumentStructure) - 1
		return curHeading
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, markerHeading):
			text, page := splitPageAnnotation(strings.TrimSpace(line[len(markerHeading):]))
			outline.DocumentStructure = append(outline.DocumentStructure, Heading{
				Heading:       text,
				PageReference: page,
			})
			curHeading = len(outline.DocumentStructure) - 1
			curSub = -1

		case strings.HasPrefix(line, markerSubheading):
			parent := ensureHeading()
			curSub = -1
			// Materialize only if body content follows before the next
			// section marker; bodiless subheadings are discarded.
			if !subheadingHasBody(lines[i+1:]) {
				continue
			}
			text, page := splitPageAnnotation(strings.TrimSpace(line[len(markerSubheading):]))
			h := &outline.DocumentStructure[parent]
			h.Subheadings = append(h.Subheadings, Subheading{
				Title:         text,
				PageReference: page,
			})
			curSub = len(h.Subheadings) - 1

		case strings.HasPrefix(line, markerContent):
			parts := []string{strings.TrimSpace(line[len(markerContent):])}
			// Everything up to the next marker belongs to this section;
			// blank lines separate paragraphs but do not end the body.
			for i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if isMarkerLine(next) {
					break
				}
				if next != "" {
					parts = append(parts, next)
				}
				i++
			}
			context := strings.TrimSpace(strings.Join(parts, " "))
			h := &outline.DocumentStructure[ensureHeading()]
			if curSub >= 0 {
				s := &h.Subheadings[curSub]
				s.Context = joinContext(s.Context, context)
			} else {
				h.Context = joinContext(h.Context, context)
			}

		case strings.HasPrefix(line, markerVisual):
			caption, page := splitPageAnnotation(strings.TrimSpace(line[len(markerVisual):]))
			h := &outline.DocumentStructure[ensureHeading()]
			if curSub >= 0 {
				s := &h.Subheadings[curSub]
				s.VisualReferences = appendVisual(s.VisualReferences, caption, page)
			} else {
				h.VisualReferences = appendVisual(h.VisualReferences, caption, page)
			}
		}
	}

	cleanupOutline(outline)
	if outline.IsEmpty() {
		return PlaceholderOutline()
	}
	return outline
}

// subheadingHasBody looks ahead, without consuming, for a --CONTENT-- or
// --VISUAL-- line before the next heading/subheading marker.
func subheadingHasBody(rest []string) bool {
	for _, line := range rest {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, markerHeading), strings.HasPrefix(line, markerSubheading):
			return false
		case strings.HasPrefix(line, markerContent), strings.HasPrefix(line, markerVisual):
			return true
		}
	}
	return false
}

func isMarkerLine(line string) bool {
	return strings.HasPrefix(line, markerHeading) ||
		strings.HasPrefix(line, markerSubheading) ||
		strings.HasPrefix(line, markerContent) ||
		strings.HasPrefix(line, markerVisual)
}

// splitPageAnnotation strips a trailing page annotation from marker text.
// A missing annotation defaults to page 1; the 1-indexed value is kept as-is
// until the normalizer's index conversion.
func splitPageAnnotation(text string) (string, int) {
	page := 1
	if m := markerPageRe.FindStringSubmatchIndex(text); m != nil {
		if n, err := strconv.Atoi(text[m[2]:m[3]]); err == nil && n > 0 {
			page = n
		}
		text = text[:m[0]] + text[m[1]:]
	}
	return strings.TrimSpace(text), page
}

func joinContext(existing, addition string) string {
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	return existing + " " + addition
}

// appendVisual adds a visual reference with a sequential token unique
// within its owner.
func appendVisual(refs []VisualReference, caption string, page int) []VisualReference {
	return append(refs, VisualReference{
		Caption:       caption,
		Reference:     fmt.Sprintf("figure_%03d", len(refs)+1),
		PageReference: page,
	})
}

// cleanupOutline drops subheadings with no context and no visuals, then
// headings with no context, no visuals, and no surviving subheadings.
func cleanupOutline(o *Outline) {
	var headings []Heading
	for _, h := range o.DocumentStructure {
		var subs []Subheading
		for _, s := range h.Subheadings {
			if s.Context != "" || len(s.VisualReferences) > 0 {
				subs = append(subs, s)
			}
		}
		h.Subheadings = subs
		if h.Context != "" || len(h.VisualReferences) > 0 || len(h.Subheadings) > 0 {
			headings = append(headings, h)
		}
	}
	o.DocumentStructure = headings
}
