package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
	loadSql "github.com/siherrmann/docquery/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(chunk *model.Chunk) error
	SelectChunk(rid uuid.UUID) (*model.Chunk, error)
	SelectChunksByDocument(documentHash string) ([]*model.Chunk, error)
	SelectChunksBySimilarity(embedding []float32, limit int, category string) ([]*model.Chunk, error)
	ChunkExists(documentHash string, content string) (bool, error)
	CountChunksByDocument(documentHash string) (int, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// InsertChunk inserts a new chunk with its embedding.
// Writes are append-only; a record is either fully written or not written at all.
func (h *ChunksDBHandler) InsertChunk(chunk *model.Chunk) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7, $8)`,
		chunk.DocumentHash,
		chunk.DocumentName,
		chunk.Category,
		chunk.Content,
		chunk.Page,
		chunk.ChunkIndex,
		pq.Array(chunk.Embedding),
		chunk.Metadata,
	)

	err := row.Scan(
		&chunk.ID,
		&chunk.RID,
		&chunk.DocumentHash,
		&chunk.DocumentName,
		&chunk.Category,
		&chunk.Content,
		&chunk.Page,
		&chunk.ChunkIndex,
		pq.Array(&chunk.Embedding),
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by RID
func (h *ChunksDBHandler) SelectChunk(rid uuid.UUID) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		rid,
	)

	chunk := &model.Chunk{}
	err := row.Scan(
		&chunk.ID,
		&chunk.RID,
		&chunk.DocumentHash,
		&chunk.DocumentName,
		&chunk.Category,
		&chunk.Content,
		&chunk.Page,
		&chunk.ChunkIndex,
		pq.Array(&chunk.Embedding),
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return chunk, nil
}

// SelectChunksByDocument retrieves all chunks for a document in chunk order
func (h *ChunksDBHandler) SelectChunksByDocument(documentHash string) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_document($1)`,
		documentHash,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.RID,
			&chunk.DocumentHash,
			&chunk.DocumentName,
			&chunk.Category,
			&chunk.Content,
			&chunk.Page,
			&chunk.ChunkIndex,
			pq.Array(&chunk.Embedding),
			&chunk.Metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity performs vector similarity search.
// If category is empty, searches across all categories.
func (h *ChunksDBHandler) SelectChunksBySimilarity(embedding []float32, limit int, category string) ([]*model.Chunk, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3)`,
		embeddingVector,
		limit,
		category,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.RID,
			&chunk.DocumentHash,
			&chunk.DocumentName,
			&chunk.Category,
			&chunk.Content,
			&chunk.Page,
			&chunk.ChunkIndex,
			pq.Array(&chunk.Embedding),
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// ChunkExists checks whether an identical chunk (same document hash and
// exact text) is already stored. This backs chunk-level deduplication.
func (h *ChunksDBHandler) ChunkExists(documentHash string, content string) (bool, error) {
	var exists bool
	err := h.db.Instance.QueryRow(
		`SELECT chunk_exists($1, $2)`,
		documentHash,
		content,
	).Scan(&exists)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return exists, nil
}

// CountChunksByDocument returns the number of stored chunks for a document
func (h *ChunksDBHandler) CountChunksByDocument(documentHash string) (int, error) {
	var count int
	err := h.db.Instance.QueryRow(
		`SELECT count_chunks_by_document($1)`,
		documentHash,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}
