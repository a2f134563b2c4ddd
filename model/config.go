package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// QueryConfig represents configuration for a single query.
type QueryConfig struct {
	// Vector search parameters
	SimilarityTopK int `json:"similarity_top_k" yaml:"similarity_top_k"`
	RerankerTopN   int `json:"reranker_top_n" yaml:"reranker_top_n"`

	// Citation parameters
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// Relevance floor applied after reranking. Candidates scoring below
	// MinScore are dropped; 0 keeps everything.
	MinScore float64 `json:"min_score,omitempty" yaml:"min_score,omitempty"`

	// Category filter, empty means all categories
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		SimilarityTopK: 10,
		RerankerTopN:   3,
		MaxSources:     3,
		MinScore:       0.0,
	}
}

// Validate fills zero values with defaults and enforces parameter invariants.
func (c *QueryConfig) Validate() error {
	defaults := DefaultQueryConfig()
	if c.SimilarityTopK <= 0 {
		c.SimilarityTopK = defaults.SimilarityTopK
	}
	if c.RerankerTopN <= 0 {
		c.RerankerTopN = defaults.RerankerTopN
	}
	if c.MaxSources <= 0 {
		c.MaxSources = defaults.MaxSources
	}
	if c.RerankerTopN > c.SimilarityTopK {
		return fmt.Errorf("reranker_top_n (%d) must not exceed similarity_top_k (%d)", c.RerankerTopN, c.SimilarityTopK)
	}
	if c.MinScore < 0 {
		return fmt.Errorf("min_score must not be negative, got %f", c.MinScore)
	}
	return nil
}

// Config holds the pipeline-wide configuration: chunking parameters and
// the model identifiers used for embedding, reranking and synthesis.
type Config struct {
	// Chunking
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`       // Maximum chunk length in characters
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"` // Overlap carried from the previous chunk
	MinChunkSize int `json:"min_chunk_size" yaml:"min_chunk_size"`

	// Models
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
	RerankerModel  string `json:"reranker_model" yaml:"reranker_model"`
	LLMModel       string `json:"llm_model" yaml:"llm_model"`

	// Bounded retries for network-bound collaborators (embedder, LLM)
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DefaultConfig returns the default pipeline configuration.
// The embedding model produces 384-dimensional vectors.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      1000,
		ChunkOverlap:   200,
		MinChunkSize:   100,
		EmbeddingModel: "sentence-transformers/all-MiniLM-L6-v2",
		RerankerModel:  "cross-encoder/ms-marco-MiniLM-L-2-v2",
		LLMModel:       "gpt-4o-mini",
		MaxRetries:     3,
	}
}

// LoadConfig reads a Config from a YAML file. A missing file returns defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = defaults.ChunkOverlap
	}
	if c.MinChunkSize <= 0 || c.MinChunkSize > c.ChunkSize {
		c.MinChunkSize = defaults.MinChunkSize
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = defaults.EmbeddingModel
	}
	if c.RerankerModel == "" {
		c.RerankerModel = defaults.RerankerModel
	}
	if c.LLMModel == "" {
		c.LLMModel = defaults.LLMModel
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaults.MaxRetries
	}
}
