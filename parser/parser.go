// Package parser extracts raw text and page metadata from document files.
// Each supported format has its own Parser implementation; ForFile selects
// one based on the file extension.
package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Page is a single unit of extracted text with its location in the source.
type Page struct {
	Number int // 1-based page number
	Text   string
}

// Extraction is the result of parsing one document.
type Extraction struct {
	Pages []Page
}

// Text returns the full extracted text with pages joined by blank lines.
func (e *Extraction) Text() string {
	parts := make([]string, 0, len(e.Pages))
	for _, p := range e.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Parser extracts text and per-page metadata from raw document bytes.
type Parser interface {
	Parse(data []byte) (*Extraction, error)
	// FileType returns the canonical format name (e.g. "pdf").
	FileType() string
}

var parsers = map[string]func() Parser{
	".pdf":  func() Parser { return &PDFParser{} },
	".docx": func() Parser { return &DOCXParser{} },
	".txt":  func() Parser { return &TXTParser{} },
	".md":   func() Parser { return &TXTParser{} },
	".text": func() Parser { return &TXTParser{} },
}

// ForFile returns the parser matching the file extension.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	create, ok := parsers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q, supported formats: %s", ext, strings.Join(SupportedExtensions(), ", "))
	}
	return create(), nil
}

// SupportedExtensions lists all extensions the factory can handle.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(parsers))
	for ext := range parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
