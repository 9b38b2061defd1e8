// Package pdfextract wraps github.com/dslipak/pdf to extract plain text
// from PDF documents. It reads every page, concatenating the plain
// text, skipping pages it cannot render rather than aborting the whole
// document.
package pdfextract

import (
	"fmt"
	"strings"

	pdf "github.com/dslipak/pdf"
)

// Extractor implements domain.TextExtractor.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads every page of the PDF at path and returns their
// concatenated plain text. A page that fails to render is skipped; the
// whole document only fails to extract when it cannot be opened at all.
func (e *Extractor) Extract(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	var content strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		content.WriteString(text)
		content.WriteString("\n")
	}
	return content.String(), nil
}

// IsBlank reports whether extracted text is empty or whitespace-only,
// the condition that causes the loader to drop a document.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
