package extract

import (
	"regexp"
	"strings"
)

// Heading candidate patterns, applied per page as a cheap pre-pass. The
// candidates are advisory hints for the generator prompt, not structure.
var headingCandidateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^((?:Chapter|Section|Part|Appendix)\s+[\dIVXLC]+\.?)\s*(.*)$`),
	regexp.MustCompile(`(?m)^(\d+\.)\s+([A-Z][^.\n]+)$`),
	regexp.MustCompile(`(?m)^(\d+\.\d+\.?\d*)\s+(.+)$`),
	regexp.MustCompile(`(?m)^([A-Z][A-Z\s\d:,-]{3,70})$`),
}

// ScanHeadingCandidates returns likely heading lines found in page text,
// in order of first appearance, without duplicates.
func ScanHeadingCandidates(text string) []string {
	var candidates []string
	seen := make(map[string]struct{})

	for _, re := range headingCandidateRes {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			candidate := ""
			switch {
			case len(match) > 2 && strings.TrimSpace(match[2]) != "":
				candidate = strings.TrimSpace(match[1] + " " + match[2])
			case len(match) > 1:
				candidate = strings.TrimSpace(match[1])
			}
			if candidate == "" {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			candidates = append(candidates, candidate)
		}
	}

	return candidates
}
