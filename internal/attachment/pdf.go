// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment implements the file ingestion pipeline for outgoing
// chat messages.
package attachment

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// =============================================================================
// PDF TEXT EXTRACTION
// =============================================================================

// Document is one parsed PDF document. The concrete parser is injected so the
// extraction algorithm can be exercised without real PDF bytes and so a
// missing or broken parser degrades instead of aborting submission.
type Document interface {
	// NumPages returns the number of pages in the document.
	NumPages() int
	// PageText returns the text tokens of the 1-based page n.
	PageText(n int) ([]string, error)
}

// OpenFunc parses raw file bytes into a Document.
type OpenFunc func(data []byte) (Document, error)

// Extractor produces concatenated per-page text from PDF bytes.
type Extractor struct {
	open OpenFunc
}

// NewExtractor creates an extractor backed by the default PDF parser.
func NewExtractor() *Extractor {
	return &Extractor{open: openPDF}
}

// NewExtractorWithOpen creates an extractor with a custom document parser.
func NewExtractorWithOpen(open OpenFunc) *Extractor {
	return &Extractor{open: open}
}

// ExtractText extracts the text of every page, each page preceded by a
// "--- Page N ---" header and separated by blank lines.
//
// ExtractText never fails past its boundary: any error (missing parser,
// corrupt document, decode error) is returned as a bracketed error-message
// string that is sent downstream as if it were extracted text.
func (e *Extractor) ExtractText(data []byte) (text string) {
	// The parser operates on untrusted bytes and may panic on corrupt
	// cross-reference tables. Degrade to the bracketed error string.
	defer func() {
		if r := recover(); r != nil {
			text = extractionError(fmt.Errorf("%v", r))
		}
	}()

	if e == nil || e.open == nil {
		return extractionError(fmt.Errorf("PDF parser not available"))
	}

	doc, err := e.open(data)
	if err != nil {
		return extractionError(err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPages(); i++ {
		tokens, err := doc.PageText(i)
		if err != nil {
			return extractionError(err)
		}
		sb.WriteString(fmt.Sprintf("\n\n--- Page %d ---\n", i))
		sb.WriteString(strings.Join(tokens, " "))
	}
	return sb.String()
}

// extractionError formats a failure as inline content.
func extractionError(err error) string {
	return fmt.Sprintf("[Error: Could not extract text from PDF: %v]", err)
}

// =============================================================================
// DEFAULT PARSER
// =============================================================================

// pdfDocument adapts the ledongthuc/pdf reader to the Document interface.
type pdfDocument struct {
	reader *pdf.Reader
}

func openPDF(data []byte) (Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pdfDocument{reader: reader}, nil
}

func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) PageText(n int) ([]string, error) {
	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}

	content := page.Content()
	tokens := make([]string, 0, len(content.Text))
	for _, t := range content.Text {
		tokens = append(tokens, t.S)
	}
	return tokens, nil
}
