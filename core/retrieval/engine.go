package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/siherrmann/docquery/core/pipeline"
	"github.com/siherrmann/docquery/model"
)

// QueryState is the current stage of a running query.
type QueryState string

const (
	StateEmbedding    QueryState = "EMBEDDING"
	StateRetrieving   QueryState = "RETRIEVING"
	StateReranking    QueryState = "RERANKING"
	StateSynthesizing QueryState = "SYNTHESIZING"
	StateDone         QueryState = "DONE"
	StateEmpty        QueryState = "EMPTY"
	StateFailed       QueryState = "FAILED"
)

// ChunkSearcher is the vector search needed by the query engine.
type ChunkSearcher interface {
	SelectChunksBySimilarity(embedding []float32, limit int, category string) ([]*model.Chunk, error)
}

// Engine answers queries against the chunk store. A query moves through
// embedding, retrieval, reranking and synthesis; retrieval without any
// candidates short-circuits to a refusal without invoking the LLM.
type Engine struct {
	searcher ChunkSearcher
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// NewEngine creates a new query engine.
func NewEngine(searcher ChunkSearcher, pipe *pipeline.Pipeline, logger *slog.Logger) (*Engine, error) {
	if searcher == nil {
		return nil, fmt.Errorf("chunk searcher must not be nil")
	}
	if pipe == nil || pipe.Embedder == nil {
		return nil, fmt.Errorf("pipeline with embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		searcher: searcher,
		pipeline: pipe,
		logger:   logger,
	}, nil
}

// Retrieve embeds the query, searches the vector store and reranks the
// candidates. The returned results are ordered best first, filtered by the
// configured relevance floor and capped at RerankerTopN.
func (e *Engine) Retrieve(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e.transition(StateEmbedding, query)
	embedding, err := e.pipeline.Embedder(ctx, query)
	if err != nil {
		e.transition(StateFailed, query)
		return nil, &model.EmbeddingError{Err: err}
	}

	e.transition(StateRetrieving, query)
	chunks, err := e.searcher.SelectChunksBySimilarity(embedding, config.SimilarityTopK, config.Category)
	if err != nil {
		e.transition(StateFailed, query)
		return nil, &model.StoreError{Op: "similarity search", Err: err}
	}

	results := make([]*model.RetrievalResult, len(chunks))
	for i, chunk := range chunks {
		results[i] = &model.RetrievalResult{
			Chunk:           chunk,
			Score:           chunk.Similarity,
			SimilarityScore: chunk.Similarity,
		}
	}

	if len(results) == 0 {
		return nil, nil
	}

	e.transition(StateReranking, query)
	results = e.rerank(ctx, query, results)

	// Keep the strongest candidates above the relevance floor.
	filtered := make([]*model.RetrievalResult, 0, config.RerankerTopN)
	for _, result := range results {
		if result.Score < config.MinScore {
			continue
		}
		filtered = append(filtered, result)
		if len(filtered) == config.RerankerTopN {
			break
		}
	}

	return filtered, nil
}

// Query answers a question from the stored documents. The answer cites its
// sources; when retrieval finds nothing usable the result carries the
// refusal answer and NoResults, and the LLM is never called. An LLM answer
// matching the refusal answer also resolves to NoResults without citations.
func (e *Engine) Query(ctx context.Context, query string, config *model.QueryConfig) (*model.QueryResult, error) {
	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}

	results, err := e.Retrieve(ctx, query, config)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		e.transition(StateEmpty, query)
		return &model.QueryResult{
			Answer:    pipeline.RefusalAnswer,
			NoResults: true,
		}, nil
	}

	if e.pipeline.Generator == nil {
		e.transition(StateFailed, query)
		return nil, fmt.Errorf("no generator configured")
	}

	e.transition(StateSynthesizing, query)
	answer, err := e.pipeline.Generator(ctx, query, contextBlocks(results))
	if err != nil {
		e.transition(StateFailed, query)
		return nil, &model.GenerationError{Err: err}
	}

	// An LLM refusal carries no citations, the context did not answer the question.
	if strings.TrimSpace(answer) == pipeline.RefusalAnswer {
		e.transition(StateEmpty, query)
		return &model.QueryResult{
			Answer:    pipeline.RefusalAnswer,
			NoResults: true,
		}, nil
	}

	e.transition(StateDone, query)
	return &model.QueryResult{
		Answer:  answer,
		Sources: buildSources(results, config.MaxSources),
	}, nil
}

// rerank scores results with the configured reranker and reorders them.
// A reranker failure degrades to similarity order instead of failing the query.
func (e *Engine) rerank(ctx context.Context, query string, results []*model.RetrievalResult) []*model.RetrievalResult {
	if e.pipeline.Reranker == nil {
		return results
	}

	chunks := make([]*model.Chunk, len(results))
	for i, result := range results {
		chunks[i] = result.Chunk
	}

	scores, err := e.pipeline.Reranker(ctx, query, chunks)
	if err != nil || len(scores) != len(results) {
		e.logger.Warn("Reranking failed, keeping similarity order", "error", err)
		return results
	}

	for i, score := range scores {
		results[i].Score = score
		results[i].Reranked = true
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	return results
}

func (e *Engine) transition(state QueryState, query string) {
	e.logger.Debug("Query state changed", "state", string(state), "query", query)
}

// contextBlocks formats retrieved chunks for the generator prompt.
// Each block names its source so the model can ground its answer.
func contextBlocks(results []*model.RetrievalResult) []string {
	blocks := make([]string, len(results))
	for i, result := range results {
		header := result.Chunk.DocumentName
		if result.Chunk.Page != nil {
			header = fmt.Sprintf("%s, page %d", header, *result.Chunk.Page)
		}
		blocks[i] = fmt.Sprintf("Source: %s\n%s", header, result.Chunk.Content)
	}
	return blocks
}
