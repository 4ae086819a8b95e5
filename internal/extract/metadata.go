package extract

import (
	"strings"
	"time"
	"unicode/utf16"

	"github.com/ledongthuc/pdf"
)

// Metadata holds document-level fields pulled from the PDF info dictionary.
// All string fields are best-effort and may be empty.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Producer     string
	Creator      string
	CreationDate time.Time
	PageCount    int
	FileSizeKB   int
}

// infoString reads a string entry from the info dictionary, decoding
// UTF-16BE values (BOM-prefixed per the PDF spec) to UTF-8.
func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(decodePDFString(v.RawString()))
}

// decodePDFString converts a raw PDF text string to UTF-8.
func decodePDFString(s string) string {
	if strings.HasPrefix(s, "\xfe\xff") {
		b := []byte(s[2:])
		u16 := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			u16 = append(u16, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u16))
	}
	return s
}

// parsePDFDate parses a PDF date of the form "D:YYYYMMDDHHmmSS...".
// Returns the zero time when the value cannot be parsed.
func parsePDFDate(s string) time.Time {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(s) < 4 {
		return time.Time{}
	}

	// Truncate timezone suffix; layouts below cover the date-time prefix.
	for _, cut := range []string{"+", "-", "Z"} {
		if idx := strings.Index(s, cut); idx > 0 {
			s = s[:idx]
			break
		}
	}

	layouts := []string{"20060102150405", "200601021504", "2006010215", "20060102", "200601", "2006"}
	for _, layout := range layouts {
		if len(s) == len(layout) {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
