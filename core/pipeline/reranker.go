package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
)

// DefaultRerankerModel is a cross-encoder trained on MS MARCO passage ranking.
const DefaultRerankerModel = "cross-encoder/ms-marco-MiniLM-L-2-v2"

// DefaultReranker creates a reranker using a cross-encoder model.
// Cross-encoders score the query and the passage together, which ranks
// candidates more precisely than the vector similarity used for retrieval.
func DefaultReranker(modelName string) (RerankFunc, error) {
	if modelName == "" {
		modelName = DefaultRerankerModel
	}

	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(modelName, "")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "reranker-pipeline",
	}
	rerankerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create reranker pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create reranker pipeline: %w", err)
	}

	return func(ctx context.Context, query string, chunks []*model.Chunk) ([]float64, error) {
		if len(chunks) == 0 {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Cross-encoders expect query and passage as one sequence pair.
		inputs := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			inputs = append(inputs, query+" [SEP] "+chunk.Content)
		}

		result, err := rerankerPipeline.RunPipeline(inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to rerank chunks: %w", err)
		}

		if len(result.ClassificationOutputs) != len(chunks) {
			return nil, fmt.Errorf("score count mismatch: got %d scores for %d chunks", len(result.ClassificationOutputs), len(chunks))
		}

		scores := make([]float64, len(chunks))
		for i, output := range result.ClassificationOutputs {
			if len(output) == 0 {
				return nil, fmt.Errorf("no score for chunk %d", i)
			}
			scores[i] = float64(output[0].Score)
		}
		return scores, nil
	}, nil
}

// LexicalReranker scores chunks by query term overlap.
// A lightweight fallback when no cross-encoder model is available,
// e.g. in tests or offline environments.
func LexicalReranker() RerankFunc {
	return func(ctx context.Context, query string, chunks []*model.Chunk) ([]float64, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		queryTerms := map[string]bool{}
		for _, term := range strings.Fields(strings.ToLower(query)) {
			queryTerms[strings.Trim(term, ".,;:!?\"'")] = true
		}

		scores := make([]float64, len(chunks))
		for i, chunk := range chunks {
			terms := strings.Fields(strings.ToLower(chunk.Content))
			if len(terms) == 0 {
				continue
			}
			matches := 0
			for _, term := range terms {
				if queryTerms[strings.Trim(term, ".,;:!?\"'")] {
					matches++
				}
			}
			scores[i] = float64(matches) / float64(len(terms))
		}
		return scores, nil
	}
}
