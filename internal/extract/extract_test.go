package extract

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
)

func TestFirstShortLine(t *testing.T) {
	text := strings.Repeat("x", 200) + "\n\n  Annual Report 2024  \nmore body text"
	if got := FirstShortLine(text, 80); got != "Annual Report 2024" {
		t.Fatalf("expected short line, got %q", got)
	}

	if got := FirstShortLine("", 80); got != "" {
		t.Fatalf("expected empty for empty text, got %q", got)
	}
	if got := FirstShortLine(strings.Repeat("y", 100), 80); got != "" {
		t.Fatalf("expected empty when all lines too long, got %q", got)
	}
}

func TestResolveTitleOrder(t *testing.T) {
	pages := []Page{{Number: 0, Text: "Page One Heading\nbody"}}

	// Filename override wins and drops the extension.
	if got := resolveTitle("quarterly-report.pdf", "Embedded", pages); got != "quarterly-report" {
		t.Fatalf("filename override not applied: %q", got)
	}

	// Embedded title next.
	if got := resolveTitle("", "Embedded", pages); got != "Embedded" {
		t.Fatalf("embedded title not used: %q", got)
	}

	// First short line of page 1 next.
	if got := resolveTitle("", "", pages); got != "Page One Heading" {
		t.Fatalf("page-1 line not used: %q", got)
	}

	// Generated placeholder last.
	got := resolveTitle("", "", []Page{{Number: 0, Text: ""}})
	if !strings.HasPrefix(got, "Untitled Document ") {
		t.Fatalf("placeholder title not generated: %q", got)
	}
}

func TestClampWidth(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 2400, 1200))
	clamped := ClampWidth(wide, 1200)
	if clamped.Bounds().Dx() != 1200 {
		t.Fatalf("width not clamped: %d", clamped.Bounds().Dx())
	}
	if clamped.Bounds().Dy() != 600 {
		t.Fatalf("aspect ratio not preserved: %d", clamped.Bounds().Dy())
	}

	narrow := image.NewRGBA(image.Rect(0, 0, 800, 600))
	if got := ClampWidth(narrow, 1200); got != narrow {
		t.Fatal("image under the limit should be returned unchanged")
	}
}

func TestParsePDFDate(t *testing.T) {
	got := parsePDFDate("D:20240315120000Z")
	want := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("date mismatch: got %v want %v", got, want)
	}

	if !parsePDFDate("garbage").IsZero() {
		t.Fatal("expected zero time for unparseable date")
	}
	if !parsePDFDate("").IsZero() {
		t.Fatal("expected zero time for empty date")
	}
}

func TestInfoStringNonStringValue(t *testing.T) {
	// A zero Value has no dictionary; every lookup yields a null kind, which
	// must read as an empty field rather than a panic or garbage.
	if got := infoString(pdf.Value{}, "Title"); got != "" {
		t.Fatalf("non-string info entry should read as empty, got %q", got)
	}
}

func TestDecodePDFStringUTF16(t *testing.T) {
	// "Hi" in UTF-16BE with BOM
	raw := "\xfe\xff\x00H\x00i"
	if got := decodePDFString(raw); got != "Hi" {
		t.Fatalf("utf-16 decode failed: %q", got)
	}
	if got := decodePDFString("plain"); got != "plain" {
		t.Fatalf("plain string altered: %q", got)
	}
}

func TestScanHeadingCandidates(t *testing.T) {
	text := "Chapter 3 Advanced Topics\nsome body text here.\n1.2 Subsection Title\nINTRODUCTION\nChapter 3 Advanced Topics"

	candidates := ScanHeadingCandidates(text)
	if len(candidates) == 0 {
		t.Fatal("expected candidates")
	}

	want := map[string]bool{}
	for _, c := range candidates {
		if want[c] {
			t.Fatalf("duplicate candidate %q", c)
		}
		want[c] = true
	}
	if !want["Chapter 3 Advanced Topics"] {
		t.Fatalf("chapter heading not detected: %v", candidates)
	}
	if !want["1.2 Subsection Title"] {
		t.Fatalf("numbered subsection not detected: %v", candidates)
	}
	if !want["INTRODUCTION"] {
		t.Fatalf("all-caps heading not detected: %v", candidates)
	}
}
