package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/siherrmann/docquery/core/pipeline"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
	"github.com/siherrmann/docquery/parser"
)

// DocumentStore is the document persistence needed by ingestion.
type DocumentStore interface {
	InsertDocument(doc *model.Document) error
	DocumentExists(hash string) (bool, error)
}

// ChunkStore is the chunk persistence needed by ingestion.
type ChunkStore interface {
	InsertChunk(chunk *model.Chunk) error
	ChunkExists(documentHash string, content string) (bool, error)
	CountChunksByDocument(documentHash string) (int, error)
}

// Ingestor runs files through parse, chunk, dedupe, embed and store.
// The document record is written only after every chunk is stored, so a
// file interrupted mid-ingestion is retried on the next run and already
// written chunks are skipped through chunk-level dedupe.
type Ingestor struct {
	documents  DocumentStore
	chunks     ChunkStore
	pipeline   *pipeline.Pipeline
	maxRetries int
	logger     *slog.Logger
}

// NewIngestor creates a new Ingestor.
func NewIngestor(documents DocumentStore, chunks ChunkStore, pipe *pipeline.Pipeline, maxRetries int, logger *slog.Logger) (*Ingestor, error) {
	if documents == nil || chunks == nil {
		return nil, fmt.Errorf("document and chunk stores must not be nil")
	}
	if pipe == nil || pipe.Chunker == nil || pipe.Embedder == nil {
		return nil, fmt.Errorf("pipeline with chunker and embedder is required")
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Ingestor{
		documents:  documents,
		chunks:     chunks,
		pipeline:   pipe,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// IngestFiles ingests a batch of files. One file's failure never aborts the
// batch; the returned report holds exactly one result per input file.
func (i *Ingestor) IngestFiles(ctx context.Context, files []*model.FileInput) (*model.IngestReport, error) {
	report := &model.IngestReport{Files: make([]model.FileResult, 0, len(files))}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := i.ingestFile(ctx, file)
		report.Files = append(report.Files, result)

		i.logger.Info("File processed",
			"filename", result.Filename,
			"status", string(result.Status),
			"chunks_written", result.ChunksWritten,
			"chunks_skipped", result.ChunksSkipped,
		)
	}

	return report, nil
}

func (i *Ingestor) ingestFile(ctx context.Context, file *model.FileInput) model.FileResult {
	result := model.FileResult{Filename: file.Filename}

	hash := helper.FileHash(file.Data)
	result.DocumentHash = hash

	exists, err := i.documents.DocumentExists(hash)
	if err != nil {
		return failed(result, &model.StoreError{Op: "document exists", Err: err})
	}
	if exists {
		result.Status = model.FileStatusSkipped
		return result
	}

	fileParser, err := parser.ForFile(file.Filename)
	if err != nil {
		return failed(result, &model.ParseError{Filename: file.Filename, Err: err})
	}

	extraction, err := fileParser.Parse(file.Data)
	if err != nil {
		return failed(result, &model.ParseError{Filename: file.Filename, Err: err})
	}

	drafts, err := i.pipeline.Chunker(extraction.Pages)
	if err != nil {
		return failed(result, &model.ParseError{Filename: file.Filename, Err: err})
	}
	if len(drafts) == 0 {
		return failed(result, &model.ParseError{Filename: file.Filename, Err: fmt.Errorf("no chunks produced")})
	}

	for _, draft := range drafts {
		chunkExists, err := i.chunks.ChunkExists(hash, draft.Content)
		if err != nil {
			return failed(result, &model.StoreError{Op: "chunk exists", Err: err})
		}
		if chunkExists {
			result.ChunksSkipped++
			continue
		}

		embedding, err := i.embedWithRetry(ctx, draft.Content)
		if err != nil {
			return failed(result, &model.EmbeddingError{Err: err})
		}

		chunk := &model.Chunk{
			DocumentHash: hash,
			DocumentName: file.DisplayName(),
			Category:     file.Category,
			Content:      draft.Content,
			Page:         draft.Page,
			ChunkIndex:   draft.ChunkIndex,
			Embedding:    embedding,
			Metadata:     draft.Metadata,
		}
		if err := i.chunks.InsertChunk(chunk); err != nil {
			return failed(result, &model.StoreError{Op: "insert chunk", Err: err})
		}
		result.ChunksWritten++
	}

	// The document row marks the file complete, so it is written last.
	chunkCount, err := i.chunks.CountChunksByDocument(hash)
	if err != nil {
		return failed(result, &model.StoreError{Op: "count chunks", Err: err})
	}

	document := &model.Document{
		Hash:       hash,
		Name:       file.DisplayName(),
		Category:   file.Category,
		FileType:   fileParser.FileType(),
		ChunkCount: chunkCount,
		Metadata: model.Metadata{
			"filename": file.Filename,
			"pages":    len(extraction.Pages),
		},
	}
	if err := i.documents.InsertDocument(document); err != nil {
		return failed(result, &model.StoreError{Op: "insert document", Err: err})
	}

	result.Status = model.FileStatusIngested
	return result
}

func (i *Ingestor) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	operation := func() error {
		var err error
		embedding, err = i.pipeline.Embedder(ctx, text)
		return err
	}

	err := backoff.Retry(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(i.maxRetries)), ctx),
	)
	if err != nil {
		return nil, err
	}
	return embedding, nil
}

func failed(result model.FileResult, err error) model.FileResult {
	result.Status = model.FileStatusFailed
	result.Error = err.Error()
	return result
}
