package structure

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/hjson/hjson-go/v4"
)

// RepairStrategy is one tier of the textual repair cascade. Repair returns
// the (possibly) transformed input and whether it changed anything. Tiers
// that can only guess (relaxed grammar, positional repair, balanced prefix)
// report a change only when their output parses, so a failed guess never
// clobbers the input for later tiers.
type RepairStrategy interface {
	Name() string
	Repair(input string) (output string, changed bool)
}

type repairFunc struct {
	name string
	fn   func(string) (string, bool)
}

func (r repairFunc) Name() string                       { return r.name }
func (r repairFunc) Repair(input string) (string, bool) { return r.fn(input) }

// repairStrategies run in this order, cumulatively, re-testing after each.
var repairStrategies = []RepairStrategy{
	repairFunc{"escape_newlines", escapeNewlinesInStrings},
	repairFunc{"insert_missing_commas", insertMissingCommas},
	repairFunc{"strip_trailing_commas", stripTrailingCommas},
	repairFunc{"normalize_quotes", normalizeQuotesAndKeys},
	repairFunc{"relaxed_grammar", relaxedGrammar},
	repairFunc{"positional_repair", positionalRepair},
	repairFunc{"balanced_prefix", balancedPrefix},
}

// escapeNewlinesInStrings replaces literal control characters inside quoted
// string values with their JSON escape sequences. Raw newlines inside
// strings are a common truncation artifact.
func escapeNewlinesInStrings(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	changed := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			b.WriteByte(c)
			escaped = true
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case inString && c == '\n':
			b.WriteString(`\n`)
			changed = true
		case inString && c == '\r':
			b.WriteString(`\r`)
			changed = true
		case inString && c == '\t':
			b.WriteString(`\t`)
			changed = true
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), changed
}

// insertMissingCommas inserts a comma between adjacent object literals
// ("}" directly followed by "{" outside any string).
func insertMissingCommas(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	escaped := false
	changed := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.WriteByte(c)
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '}':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && s[j] == '{' {
				b.WriteByte(',')
				changed = true
			}
		}
	}
	return b.String(), changed
}

// stripTrailingCommas removes commas that directly precede a closing brace
// or bracket.
func stripTrailingCommas(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	changed := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			b.WriteByte(c)
			escaped = true
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case !inString && c == ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				changed = true
				continue // drop the comma
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), changed
}

var (
	smartQuoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", `'`, "’", `'`,
	)
	bareKeyRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// normalizeQuotesAndKeys straightens smart quotes and quotes bare object
// keys.
func normalizeQuotesAndKeys(s string) (string, bool) {
	out := smartQuoteReplacer.Replace(s)
	out = bareKeyRe.ReplaceAllString(out, `$1"$2":`)
	return out, out != s
}

// relaxedGrammar parses the input with a lenient JSON grammar and, on
// success, re-serializes it as strict JSON. The lenient grammar accepts
// almost any text as a bare scalar, so only an object result counts as a
// repair; anything else keeps the input for the later tiers.
func relaxedGrammar(s string) (string, bool) {
	var v any
	if err := hjson.Unmarshal([]byte(s), &v); err != nil {
		return s, false
	}
	strict, err := json.Marshal(v)
	if err != nil {
		return s, false
	}
	out := string(strict)
	if !strings.HasPrefix(out, "{") {
		return s, false
	}
	return out, true
}

// positionalRepair uses the syntax error's byte offset to make one targeted
// fix: insert the token the parser expected, or truncate at the offset and
// append the minimal closing sequence.
func positionalRepair(s string) (string, bool) {
	var v any
	err := json.Unmarshal([]byte(s), &v)
	if err == nil {
		return s, false
	}
	synErr := &json.SyntaxError{}
	if !errors.As(err, &synErr) {
		return s, false
	}

	off := int(synErr.Offset)
	msg := synErr.Error()

	// The parser names the token it expected; try inserting it.
	if off > 0 && off <= len(s) {
		var insert string
		switch {
		case strings.Contains(msg, "after object key:value pair"),
			strings.Contains(msg, "after array element"):
			insert = ","
		case strings.Contains(msg, "after object key"):
			insert = ":"
		}
		if insert != "" {
			candidate := s[:off-1] + insert + s[off-1:]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}

	// Truncate at the error offset and close whatever is still open.
	prefix := s
	if !strings.Contains(msg, "unexpected end of JSON input") && off > 0 && off <= len(s) {
		prefix = s[:off-1]
	}
	closed := closeOpenTokens(prefix)
	if json.Valid([]byte(closed)) {
		return closed, true
	}

	// The full string may simply be truncated mid-token.
	if closed = closeOpenTokens(s); json.Valid([]byte(closed)) {
		return closed, true
	}
	return s, false
}

// closeOpenTokens appends the minimal closing sequence to a JSON prefix:
// a closing quote if a string is open, then closers for every unclosed
// brace/bracket in reverse nesting order. Dangling commas and colons left
// by the truncation are trimmed first.
func closeOpenTokens(s string) string {
	var stack []byte
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
		case c == '{':
			stack = append(stack, '}')
		case c == '[':
			stack = append(stack, ']')
		case c == '}' || c == ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}

	trimmed := strings.TrimRight(s, " \n\r\t")
	switch {
	case strings.HasSuffix(trimmed, ","):
		s = strings.TrimSuffix(trimmed, ",")
	case strings.HasSuffix(trimmed, ":"):
		s = trimmed + `""`
	}

	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}

// balancedPrefix searches backward for the longest prefix that both ends at
// a closing brace/bracket and parses as valid JSON.
func balancedPrefix(s string) (string, bool) {
	// Precompute which positions sit inside a string literal.
	inStringAt := make([]bool, len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			inStringAt[i] = inString
			continue
		}
		if inString && c == '\\' {
			escaped = true
		} else if c == '"' {
			inString = !inString
		}
		inStringAt[i] = inString || c == '"'
	}

	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != '}' && s[i] != ']' {
			continue
		}
		if inStringAt[i] && s[i] != '"' {
			continue
		}
		candidate := s[:i+1]
		if json.Valid([]byte(candidate)) {
			return candidate, candidate != s
		}
	}
	return s, false
}
