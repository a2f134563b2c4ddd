package model

import (
	"time"

	"github.com/google/uuid"
)

// Chunk represents a contiguous span of text from one document.
// Once stored it carries its embedding vector and the metadata needed
// for citation (document hash/name/category, page, index).
type Chunk struct {
	ID           int64     `json:"id"`
	RID          uuid.UUID `json:"rid"`
	DocumentHash string    `json:"document_hash"`
	DocumentName string    `json:"document_name"`
	Category     string    `json:"category,omitempty"`
	Content      string    `json:"content"`
	Page         *int      `json:"page,omitempty"`
	ChunkIndex   int       `json:"chunk_index"`
	Embedding    []float32 `json:"embedding,omitempty"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

// ChunkDraft is a chunk produced by a chunker before it is embedded and stored.
type ChunkDraft struct {
	Content    string
	Page       *int
	ChunkIndex int
	Metadata   Metadata
}
