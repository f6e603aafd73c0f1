// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// PageSize is the edge length, in points, of every fixture page. At 300 DPI
// a page renders to 150x150 pixels.
const PageSize = 36.0

// Page describes the content of one fixture page: a white page with a
// filled square of the given gray level covering its left half.
type Page struct {
	Gray int
}

// Build returns a PDF with one page per entry of pages.
func Build(t testing.TB, pages ...Page) []byte {
	t.Helper()

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: PageSize, Ht: PageSize},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	for _, p := range pages {
		doc.AddPage()
		doc.SetFillColor(p.Gray, p.Gray, p.Gray)
		doc.Rect(0, 0, PageSize/2, PageSize, "F")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// Pages returns n fixture pages with a dark square each.
func Pages(n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Gray: 40}
	}
	return pages
}

// WriteFile writes data to name inside dir and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// Corrupt returns bytes that start like a PDF but cannot be parsed.
func Corrupt() []byte {
	return []byte("%PDF-1.4\nthis is not a real pdf body\n%%EOF\n")
}
