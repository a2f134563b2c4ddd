package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/docquery/model"
	"github.com/siherrmann/docquery/parser"
)

// SentenceChunker creates a chunker that prefers sentence boundaries.
// Sentences are accumulated until chunkSize characters, each chunk starts
// with the trailing sentences of its predecessor up to chunkOverlap
// characters. Sentences longer than chunkSize are split at fixed width.
// A trailing chunk shorter than minChunkSize is merged into its predecessor
// when the merged chunk still fits chunkSize, otherwise it stays as is.
func SentenceChunker(chunkSize int, chunkOverlap int, minChunkSize int) ChunkFunc {
	return func(pages []parser.Page) ([]model.ChunkDraft, error) {
		if err := validateChunkParams(chunkSize, chunkOverlap, minChunkSize); err != nil {
			return nil, err
		}

		var drafts []model.ChunkDraft
		index := 0

		for _, page := range pages {
			text := strings.TrimSpace(page.Text)
			if text == "" {
				continue
			}

			pieces := chunkText(text, chunkSize, chunkOverlap, minChunkSize)
			for _, piece := range pieces {
				pageNumber := page.Number
				drafts = append(drafts, model.ChunkDraft{
					Content:    piece,
					Page:       &pageNumber,
					ChunkIndex: index,
					Metadata: model.Metadata{
						"chunking_method": "sentence",
					},
				})
				index++
			}
		}

		return drafts, nil
	}
}

// FixedChunker creates a chunker that splits at fixed character width
// without looking at sentence boundaries. Mostly useful for text without
// reliable punctuation, e.g. tables or logs.
func FixedChunker(chunkSize int, chunkOverlap int) ChunkFunc {
	return func(pages []parser.Page) ([]model.ChunkDraft, error) {
		if err := validateChunkParams(chunkSize, chunkOverlap, 0); err != nil {
			return nil, err
		}

		var drafts []model.ChunkDraft
		index := 0

		for _, page := range pages {
			text := strings.TrimSpace(page.Text)
			if text == "" {
				continue
			}

			for _, piece := range splitFixed(text, chunkSize, chunkOverlap) {
				pageNumber := page.Number
				drafts = append(drafts, model.ChunkDraft{
					Content:    piece,
					Page:       &pageNumber,
					ChunkIndex: index,
					Metadata: model.Metadata{
						"chunking_method": "fixed",
					},
				})
				index++
			}
		}

		return drafts, nil
	}
}

func validateChunkParams(chunkSize int, chunkOverlap int, minChunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size)")
	}
	if minChunkSize < 0 || minChunkSize > chunkSize {
		return fmt.Errorf("min chunk size must be in [0, chunk size]")
	}
	return nil
}

// chunkText splits a single page's text into chunk contents.
// Text shorter than chunkSize stays a single chunk regardless of minChunkSize.
func chunkText(text string, chunkSize int, chunkOverlap int, minChunkSize int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))

		// Keep trailing sentences as the overlap prefix of the next chunk.
		var overlap []string
		overlapLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			sentenceLen := len(current[i]) + 1
			if overlapLen+sentenceLen > chunkOverlap {
				break
			}
			overlap = append([]string{current[i]}, overlap...)
			overlapLen += sentenceLen
		}
		current = overlap
		currentLen = overlapLen
	}

	for _, sentence := range sentences {
		if len(sentence) > chunkSize {
			flush()
			chunks = append(chunks, splitFixed(sentence, chunkSize, chunkOverlap)...)
			current = nil
			currentLen = 0
			continue
		}

		if currentLen+len(sentence)+1 > chunkSize {
			flush()
		}
		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}

	if len(current) > 0 {
		content := strings.Join(current, " ")
		// The overlap prefix alone is no new content.
		if content != "" && (len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], content)) {
			chunks = append(chunks, content)
		}
	}

	// Merge a trailing runt into its predecessor when it still fits chunkSize.
	if len(chunks) > 1 && len(chunks[len(chunks)-1]) < minChunkSize {
		merged := chunks[len(chunks)-2] + " " + chunks[len(chunks)-1]
		if len(merged) <= chunkSize {
			chunks[len(chunks)-2] = merged
			chunks = chunks[:len(chunks)-1]
		}
	}

	return chunks
}

// splitSentences splits text at sentence-ending punctuation and newlines.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "! ", "!|")
	text = strings.ReplaceAll(text, "? ", "?|")
	text = strings.ReplaceAll(text, ". ", ".|")
	text = strings.ReplaceAll(text, "\n", "|")

	var sentences []string
	for _, s := range strings.Split(text, "|") {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// splitFixed splits text into windows of chunkSize characters, each window
// starting chunkSize-chunkOverlap characters after the previous one.
// Windows are measured in runes so multi byte characters stay intact.
func splitFixed(text string, chunkSize int, chunkOverlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - chunkOverlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
