package docquery

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/siherrmann/docquery/core/ingest"
	"github.com/siherrmann/docquery/core/pipeline"
	"github.com/siherrmann/docquery/core/retrieval"
	"github.com/siherrmann/docquery/database"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
	loadSql "github.com/siherrmann/docquery/sql"
)

// DocQuery provides a unified interface to ingestion and querying.
type DocQuery struct {
	DB        *helper.Database
	Documents *database.DocumentsDBHandler
	Chunks    *database.ChunksDBHandler
	Pipeline  *pipeline.Pipeline // Set via SetPipeline or one of the Use* helpers
	Ingestor  *ingest.Ingestor
	Engine    *retrieval.Engine
	Config    model.Config
	// Logging
	log *slog.Logger

	embeddingDim int
}

// NewDocQuery creates a new DocQuery instance with all handlers initialized.
// embeddingDim is the dimension of the chunk embedding column and must match
// the embedding model configured later through the pipeline.
func NewDocQuery(dbConfig *helper.DatabaseConfiguration, config model.Config, embeddingDim int) (*DocQuery, error) {
	if embeddingDim <= 0 {
		return nil, helper.NewError("create docquery", fmt.Errorf("embedding dimension must be positive"))
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("docquery", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create handlers, force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	return &DocQuery{
		DB:           db,
		Documents:    documents,
		Chunks:       chunks,
		Config:       config,
		log:          logger,
		embeddingDim: embeddingDim,
	}, nil
}

// Close closes the database connection.
func (d *DocQuery) Close() error {
	if d.DB != nil && d.DB.Instance != nil {
		return d.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the processing pipeline and wires ingestion and querying.
// The pipeline's embedding dimension must match the chunk table dimension.
func (d *DocQuery) SetPipeline(pipe *pipeline.Pipeline) error {
	if pipe == nil || pipe.Chunker == nil || pipe.Embedder == nil {
		return helper.NewError("set pipeline", fmt.Errorf("pipeline with chunker and embedder is required"))
	}
	if pipe.Dimension != d.embeddingDim {
		return helper.NewError("set pipeline", fmt.Errorf("pipeline dimension %d does not match chunk table dimension %d", pipe.Dimension, d.embeddingDim))
	}

	ingestor, err := ingest.NewIngestor(d.Documents, d.Chunks, pipe, d.Config.MaxRetries, d.log)
	if err != nil {
		return helper.NewError("create ingestor", err)
	}

	engine, err := retrieval.NewEngine(d.Chunks, pipe, d.log)
	if err != nil {
		return helper.NewError("create query engine", err)
	}

	d.Pipeline = pipe
	d.Ingestor = ingestor
	d.Engine = engine
	return nil
}

// UseDefaultPipeline sets up the default pipeline: sentence chunking with the
// configured sizes, local embeddings with the all-MiniLM-L6-v2 model
// (384 dimensions) and a local cross-encoder for reranking. Answer synthesis
// uses the OpenAI API when OPENAI_API_KEY is set.
func (d *DocQuery) UseDefaultPipeline() error {
	chunker := pipeline.SentenceChunker(d.Config.ChunkSize, d.Config.ChunkOverlap, d.Config.MinChunkSize)

	embedder, err := pipeline.DefaultEmbedder(d.Config.EmbeddingModel)
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	pipe := pipeline.NewPipeline(chunker, embedder, pipeline.MiniLMDimension)

	reranker, err := pipeline.DefaultReranker(d.Config.RerankerModel)
	if err != nil {
		return helper.NewError("create default reranker", err)
	}
	pipe.SetReranker(reranker)

	if os.Getenv("OPENAI_API_KEY") != "" {
		client := openai.NewClient()
		pipe.SetGenerator(pipeline.OpenAIGenerator(client, d.Config.LLMModel, d.Config.MaxRetries))
	}

	return d.SetPipeline(pipe)
}

// UseOpenAIPipeline sets up a fully remote pipeline: sentence chunking with
// the configured sizes, OpenAI embeddings with text-embedding-3-small
// (1536 dimensions), lexical reranking and OpenAI answer synthesis.
func (d *DocQuery) UseOpenAIPipeline() error {
	client := openai.NewClient()

	chunker := pipeline.SentenceChunker(d.Config.ChunkSize, d.Config.ChunkOverlap, d.Config.MinChunkSize)
	embedder := pipeline.OpenAIEmbedder(client, "")

	pipe := pipeline.NewPipeline(chunker, embedder, pipeline.OpenAISmallDimension)
	pipe.SetReranker(pipeline.LexicalReranker())
	pipe.SetGenerator(pipeline.OpenAIGenerator(client, d.Config.LLMModel, d.Config.MaxRetries))

	return d.SetPipeline(pipe)
}

// Ingest runs a batch of files through parse, chunk, dedupe, embed and store.
// One file's failure never aborts the batch, the report lists every file.
func (d *DocQuery) Ingest(ctx context.Context, files ...*model.FileInput) (*model.IngestReport, error) {
	if d.Ingestor == nil {
		return nil, helper.NewError("ingest", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	report, err := d.Ingestor.IngestFiles(ctx, files)
	if err != nil {
		return report, helper.NewError("ingest files", err)
	}

	ingested, skipped, failed := report.Counts()
	d.log.Info("Ingestion finished",
		slog.Int("ingested", ingested),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
	)

	return report, nil
}

// IngestPaths reads files from disk and ingests them under the given category.
func (d *DocQuery) IngestPaths(ctx context.Context, category string, paths ...string) (*model.IngestReport, error) {
	files := make([]*model.FileInput, 0, len(paths))
	for _, path := range paths {
		file, err := model.NewFileInputFromPath(path, category)
		if err != nil {
			return nil, helper.NewError("read file", err)
		}
		files = append(files, file)
	}
	return d.Ingest(ctx, files...)
}

// Query answers a question from the ingested documents with cited sources.
func (d *DocQuery) Query(ctx context.Context, question string, config *model.QueryConfig) (*model.QueryResult, error) {
	if d.Engine == nil {
		return nil, helper.NewError("query", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return d.Engine.Query(ctx, question, config)
}

// Retrieve returns the reranked chunks for a question without answer synthesis.
func (d *DocQuery) Retrieve(ctx context.Context, question string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if d.Engine == nil {
		return nil, helper.NewError("retrieve", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return d.Engine.Retrieve(ctx, question, config)
}

// ListDocuments returns all ingested documents, newest first.
func (d *DocQuery) ListDocuments() ([]*model.Document, error) {
	return d.Documents.SelectAllDocuments()
}

// GetDocument returns a document by content hash.
func (d *DocQuery) GetDocument(hash string) (*model.Document, error) {
	return d.Documents.SelectDocument(hash)
}

// ChangeIndexType switches the vector index between hnsw and ivfflat.
func (d *DocQuery) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return d.Chunks.ChangeIndexType(ctx, indexType, params)
}
