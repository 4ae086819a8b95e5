package structure

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	salvageHeadingRe = regexp.MustCompile(`"heading"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	salvageTitleRe   = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	salvagePageRe    = regexp.MustCompile(`"page_reference"\s*:\s*"?(\d+)`)
	salvageContextRe = regexp.MustCompile(`"context"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	salvageSubsRe    = regexp.MustCompile(`"subheadings"\s*:\s*\[`)
)

// Salvage reconstructs a best-effort outline from text that failed every
// JSON repair tier, by pulling heading fields out positionally and repairing
// each heading object independently. The result is used only when at least
// two headings survive; anything less is no better than the page fallback.
func Salvage(raw string) (*Outline, bool) {
	matches := salvageHeadingRe.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) < 2 {
		return nil, false
	}

	outline := &Outline{}
	for i, m := range matches {
		heading := unescapeJSONString(raw[m[2]:m[3]])
		if strings.TrimSpace(heading) == "" {
			continue
		}

		// Fields for this heading live between its match and the next one.
		regionEnd := len(raw)
		if i+1 < len(matches) {
			regionEnd = matches[i+1][0]
		}
		region := raw[m[1]:regionEnd]

		h := Heading{
			Heading:       strings.TrimSpace(heading),
			PageReference: 1,
		}
		if pm := salvagePageRe.FindStringSubmatch(region); pm != nil {
			h.PageReference = defaultPage(atoiOrZero(pm[1]))
		}
		if cm := salvageContextRe.FindStringSubmatch(region); cm != nil {
			h.Context = strings.TrimSpace(unescapeJSONString(cm[1]))
		}
		h.Subheadings = salvageSubheadings(region)

		outline.DocumentStructure = append(outline.DocumentStructure, h)
	}

	if len(outline.DocumentStructure) < 2 {
		return nil, false
	}
	return outline, true
}

// salvageSubheadings extracts the subheadings array from a heading region.
// The bracket-matched block is first tried as real JSON, then field-by-field.
func salvageSubheadings(region string) []Subheading {
	loc := salvageSubsRe.FindStringIndex(region)
	if loc == nil {
		return nil
	}
	block, ok := matchBracketSpan(region[loc[1]-1:])
	if !ok {
		// Truncated mid-array; close it and fall through to field salvage.
		block = closeOpenTokens(region[loc[1]-1:])
	}

	var wire []wireSubheading
	if err := json.Unmarshal([]byte(block), &wire); err == nil {
		var subs []Subheading
		for _, ws := range wire {
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
			subs = append(subs, s)
		}
		return subs
	}

	// Field-level salvage inside the broken block.
	var subs []Subheading
	titleMatches := salvageTitleRe.FindAllStringSubmatchIndex(block, -1)
	for i, tm := range titleMatches {
		title := strings.TrimSpace(unescapeJSONString(block[tm[2]:tm[3]]))
		if title == "" {
			continue
		}
		end := len(block)
		if i+1 < len(titleMatches) {
			end = titleMatches[i+1][0]
		}
		sub := Subheading{Title: title, PageReference: 1}
		if pm := salvagePageRe.FindStringSubmatch(block[tm[1]:end]); pm != nil {
			sub.PageReference = defaultPage(atoiOrZero(pm[1]))
		}
		if cm := salvageContextRe.FindStringSubmatch(block[tm[1]:end]); cm != nil {
			sub.Context = strings.TrimSpace(unescapeJSONString(cm[1]))
		}
		subs = append(subs, sub)
	}
	return subs
}

// matchBracketSpan returns the span from a leading '[' to its matching ']',
// string-aware like matchBraceSpan.
func matchBracketSpan(s string) (string, bool) {
	if len(s) == 0 || s[0] != '[' {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
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
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// unescapeJSONString decodes JSON escape sequences in captured string
// content, falling back to the raw text if decoding fails.
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
