package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TXTParser reads plain text and Markdown files. Form feed characters are
// treated as page breaks so paginated text exports keep their page numbers.
type TXTParser struct{}

func (p *TXTParser) FileType() string { return "txt" }

// Parse validates the encoding and splits the text into pages on form feeds.
// Text without form feeds yields a single page.
func (p *TXTParser) Parse(data []byte) (*Extraction, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("file is not valid UTF-8 text")
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	extraction := &Extraction{}
	for i, pageText := range strings.Split(text, "\f") {
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		extraction.Pages = append(extraction.Pages, Page{Number: i + 1, Text: pageText})
	}

	if len(extraction.Pages) == 0 {
		return nil, fmt.Errorf("no text content in file")
	}

	return extraction, nil
}
