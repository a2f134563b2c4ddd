package model

// RetrievalResult represents a chunk retrieved for a query.
type RetrievalResult struct {
	Chunk           *Chunk  `json:"chunk"`
	Score           float64 `json:"score"`            // Rerank score if reranked, otherwise similarity
	SimilarityScore float64 `json:"similarity_score"` // Cosine similarity from vector search
	Reranked        bool    `json:"reranked"`
}

// Source is a (document, page) citation attached to an answer.
type Source struct {
	Document string  `json:"document"`
	Category string  `json:"category,omitempty"`
	Page     *int    `json:"page,omitempty"`
	Score    float64 `json:"score"`
}

// QueryResult is the outcome of a single query: the synthesized answer plus
// the deduplicated citations that grounded it. NoResults is set when
// retrieval produced no usable candidates and the LLM was never invoked.
type QueryResult struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	NoResults bool     `json:"no_results"`
}
