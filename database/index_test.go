package database

import (
	"context"
	"testing"

	"github.com/siherrmann/docquery/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)

	chunksDbHandler, err := NewChunksDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	hash := helper.FileHash([]byte("index type test"))
	require.NoError(t, chunksDbHandler.InsertChunk(testChunk(hash, 0, "Chunk indexed by the vector index.")))

	t.Run("Switch to ivfflat", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err)

		results, err := chunksDbHandler.SelectChunksBySimilarity(testEmbedding(testEmbeddingDim, 0), 1, "")
		require.NoError(t, err)
		assert.NotEmpty(t, results, "Expected search to still work after the index switch")
	})

	t.Run("Switch back to hnsw", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(context.Background(), "hnsw", map[string]interface{}{"m": 8, "ef_construction": 32})
		assert.NoError(t, err)

		results, err := chunksDbHandler.SelectChunksBySimilarity(testEmbedding(testEmbeddingDim, 0), 1, "")
		require.NoError(t, err)
		assert.NotEmpty(t, results)
	})

	t.Run("Unsupported index type", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(context.Background(), "btree", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported index type")
	})
}
