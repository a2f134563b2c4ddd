package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser extracts text from Word documents. DOCX is a flow format
// without fixed pages, so the whole document is returned as a single page.
type DOCXParser struct{}

func (p *DOCXParser) FileType() string { return "docx" }

// Parse reads the document body paragraph by paragraph.
func (p *DOCXParser) Parse(data []byte) (*Extraction, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			text := strings.TrimSpace(block.String())
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		case *docx.Table:
			text := strings.TrimSpace(block.String())
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("no text extracted from docx")
	}

	return &Extraction{Pages: []Page{{Number: 1, Text: text}}}, nil
}
