package pipeline

import (
	"context"

	"github.com/siherrmann/docquery/model"
	"github.com/siherrmann/docquery/parser"
)

// ChunkFunc splits extracted pages into chunk drafts.
// Chunk indices must be contiguous starting at 0 and drafts must keep
// the page number of the page they start on.
type ChunkFunc func(pages []parser.Page) ([]model.ChunkDraft, error)

// EmbedFunc generates an embedding vector for a single text.
// All texts passed through the same pipeline are embedded with the same
// model, so query and chunk vectors stay comparable.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// RerankFunc scores candidate chunks against a query.
// It returns one relevance score per chunk, in chunk order.
type RerankFunc func(ctx context.Context, query string, chunks []*model.Chunk) ([]float64, error)

// GenerateFunc synthesizes an answer for a query from retrieved context blocks.
type GenerateFunc func(ctx context.Context, query string, contextBlocks []string) (string, error)

// Pipeline bundles the pluggable stages of ingestion and querying.
// Chunker and Embedder are required, Reranker and Generator are optional.
type Pipeline struct {
	Chunker   ChunkFunc
	Embedder  EmbedFunc
	Reranker  RerankFunc
	Generator GenerateFunc
	// Dimension is the embedding vector dimension produced by Embedder.
	Dimension int
}

// NewPipeline creates a new processing pipeline.
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc, dimension int) *Pipeline {
	return &Pipeline{
		Chunker:   chunker,
		Embedder:  embedder,
		Dimension: dimension,
	}
}

// SetReranker sets the reranking function.
func (p *Pipeline) SetReranker(reranker RerankFunc) {
	p.Reranker = reranker
}

// SetGenerator sets the answer generation function.
func (p *Pipeline) SetGenerator(generator GenerateFunc) {
	p.Generator = generator
}
