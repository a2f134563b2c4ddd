package pipeline

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/openai/openai-go/v3"
	"github.com/siherrmann/docquery/helper"
)

// Embedding dimensions of the supported default models.
const (
	MiniLMDimension        = 384
	OpenAISmallDimension   = 1536
	DefaultEmbeddingModel  = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultOpenAIEmbedding = "text-embedding-3-small"
)

// DefaultEmbedder creates a local embedder using a sentence transformer model.
// The default all-MiniLM-L6-v2 model produces 384-dimensional embeddings.
func DefaultEmbedder(modelName string) (EmbedFunc, error) {
	if modelName == "" {
		modelName = DefaultEmbeddingModel
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

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}

// OpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
// The default text-embedding-3-small model produces 1536-dimensional embeddings.
func OpenAIEmbedder(client openai.Client, modelName string) EmbedFunc {
	if modelName == "" {
		modelName = DefaultOpenAIEmbedding
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		response, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: []string{text},
			},
			Model: openai.EmbeddingModel(modelName),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(response.Data) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		embedding := make([]float32, len(response.Data[0].Embedding))
		for i, v := range response.Data[0].Embedding {
			embedding[i] = float32(v)
		}
		return embedding, nil
	}
}
