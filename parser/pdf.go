package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts per-page plain text from PDF files.
type PDFParser struct{}

func (p *PDFParser) FileType() string { return "pdf" }

// Parse reads the PDF and returns one Page per document page.
// Pages without extractable text are skipped.
func (p *PDFParser) Parse(data []byte) (*Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	extraction := &Extraction{}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		extraction.Pages = append(extraction.Pages, Page{Number: i, Text: text})
	}

	if len(extraction.Pages) == 0 {
		return nil, fmt.Errorf("no text extracted from pdf")
	}

	return extraction, nil
}
