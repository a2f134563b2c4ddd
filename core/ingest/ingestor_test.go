package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/docquery/core/pipeline"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	documents map[string]*model.Document
	chunks    map[string][]*model.Chunk
	ops       []string

	insertChunkErr    error
	insertDocumentErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		documents: map[string]*model.Document{},
		chunks:    map[string][]*model.Chunk{},
	}
}

func (s *stubStore) InsertDocument(doc *model.Document) error {
	if s.insertDocumentErr != nil {
		return s.insertDocumentErr
	}
	s.documents[doc.Hash] = doc
	s.ops = append(s.ops, "insert document")
	return nil
}

func (s *stubStore) DocumentExists(hash string) (bool, error) {
	_, ok := s.documents[hash]
	return ok, nil
}

func (s *stubStore) InsertChunk(chunk *model.Chunk) error {
	if s.insertChunkErr != nil {
		return s.insertChunkErr
	}
	s.chunks[chunk.DocumentHash] = append(s.chunks[chunk.DocumentHash], chunk)
	s.ops = append(s.ops, "insert chunk")
	return nil
}

func (s *stubStore) ChunkExists(documentHash string, content string) (bool, error) {
	for _, chunk := range s.chunks[documentHash] {
		if chunk.Content == content {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) CountChunksByDocument(documentHash string) (int, error) {
	return len(s.chunks[documentHash]), nil
}

type stubEmbedder struct {
	calls int
	err   error
}

func (e *stubEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0, 0, 0}, nil
}

func testIngestor(t *testing.T, store *stubStore, embedder *stubEmbedder) *Ingestor {
	t.Helper()
	pipe := pipeline.NewPipeline(pipeline.SentenceChunker(1000, 200, 100), embedder.embed, 4)
	ingestor, err := NewIngestor(store, store, pipe, 2, helper.NewTestLogger())
	require.NoError(t, err)
	return ingestor
}

func topicFile(name string, topic string, sentences int) *model.FileInput {
	content := ""
	for i := 0; i < sentences; i++ {
		content += fmt.Sprintf("This is sentence number %d about %s. ", i, topic)
	}
	return &model.FileInput{Data: []byte(content), Filename: name}
}

func textFile(name string, sentences int) *model.FileInput {
	return topicFile(name, "quarterly results", sentences)
}

func TestNewIngestor(t *testing.T) {
	t.Run("Valid call NewIngestor", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{}
		pipe := pipeline.NewPipeline(pipeline.SentenceChunker(1000, 200, 100), embedder.embed, 4)

		ingestor, err := NewIngestor(store, store, pipe, 3, nil)

		assert.NoError(t, err)
		assert.NotNil(t, ingestor)
	})

	t.Run("Invalid call NewIngestor without stores", func(t *testing.T) {
		_, err := NewIngestor(nil, nil, &pipeline.Pipeline{}, 3, nil)
		assert.Error(t, err)
	})

	t.Run("Invalid call NewIngestor without chunker", func(t *testing.T) {
		store := newStubStore()
		_, err := NewIngestor(store, store, &pipeline.Pipeline{}, 3, nil)
		assert.Error(t, err)
	})
}

func TestIngestFiles(t *testing.T) {
	t.Run("Ingests a text file and records the document last", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{}
		ingestor := testIngestor(t, store, embedder)
		file := textFile("report.txt", 60)

		report, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{file})

		require.NoError(t, err)
		require.Len(t, report.Files, 1)

		result := report.Files[0]
		assert.Equal(t, model.FileStatusIngested, result.Status)
		assert.Equal(t, helper.FileHash(file.Data), result.DocumentHash)
		assert.Greater(t, result.ChunksWritten, 1)
		assert.Zero(t, result.ChunksSkipped)

		document := store.documents[result.DocumentHash]
		require.NotNil(t, document)
		assert.Equal(t, "report", document.Name)
		assert.Equal(t, "txt", document.FileType)
		assert.Equal(t, result.ChunksWritten, document.ChunkCount)

		require.NotEmpty(t, store.ops)
		assert.Equal(t, "insert document", store.ops[len(store.ops)-1], "Expected the document row to be written after all chunks")
		for _, op := range store.ops[:len(store.ops)-1] {
			assert.Equal(t, "insert chunk", op)
		}
	})

	t.Run("Duplicate file is skipped without parsing", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{}
		ingestor := testIngestor(t, store, embedder)
		file := textFile("report.txt", 60)

		_, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{file})
		require.NoError(t, err)
		callsAfterFirst := embedder.calls

		report, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{file})

		require.NoError(t, err)
		require.Len(t, report.Files, 1)
		assert.Equal(t, model.FileStatusSkipped, report.Files[0].Status)
		assert.Zero(t, report.Files[0].ChunksWritten)
		assert.Equal(t, callsAfterFirst, embedder.calls, "Expected no embedding work for a duplicate")
	})

	t.Run("Corrupt file fails alone, batch continues", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{}
		ingestor := testIngestor(t, store, embedder)

		files := []*model.FileInput{
			textFile("first.txt", 30),
			{Data: []byte("not a pdf"), Filename: "broken.pdf"},
			topicFile("third.txt", "the annual forecast", 30),
		}

		report, err := ingestor.IngestFiles(context.Background(), files)

		require.NoError(t, err)
		require.Len(t, report.Files, 3)

		ingested, skipped, failedCount := report.Counts()
		assert.Equal(t, 2, ingested)
		assert.Zero(t, skipped)
		assert.Equal(t, 1, failedCount)

		assert.Equal(t, model.FileStatusFailed, report.Files[1].Status)
		assert.Contains(t, report.Files[1].Error, "parse broken.pdf")
		assert.Len(t, store.documents, 2, "Expected both valid files to be stored")
	})

	t.Run("Unsupported extension fails the file", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{}
		ingestor := testIngestor(t, store, embedder)

		report, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{
			{Data: []byte("col1;col2"), Filename: "table.csv"},
		})

		require.NoError(t, err)
		require.Len(t, report.Files, 1)
		assert.Equal(t, model.FileStatusFailed, report.Files[0].Status)
		assert.Contains(t, report.Files[0].Error, "unsupported file format")
	})

	t.Run("Already stored chunks are skipped on resume", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{}
		ingestor := testIngestor(t, store, embedder)
		file := textFile("report.txt", 60)
		hash := helper.FileHash(file.Data)

		// Simulate an interrupted run that wrote chunks but no document row.
		first, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{file})
		require.NoError(t, err)
		written := first.Files[0].ChunksWritten
		delete(store.documents, hash)

		report, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{file})

		require.NoError(t, err)
		result := report.Files[0]
		assert.Equal(t, model.FileStatusIngested, result.Status)
		assert.Zero(t, result.ChunksWritten)
		assert.Equal(t, written, result.ChunksSkipped)
		require.NotNil(t, store.documents[hash])
		assert.Equal(t, written, store.documents[hash].ChunkCount)
	})

	t.Run("Embedding failure is retried then fails the file", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{err: fmt.Errorf("connection refused")}
		ingestor := testIngestor(t, store, embedder)
		file := textFile("report.txt", 10)

		report, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{file})

		require.NoError(t, err)
		result := report.Files[0]
		assert.Equal(t, model.FileStatusFailed, result.Status)
		assert.Contains(t, result.Error, "embedding")
		assert.Equal(t, 3, embedder.calls, "Expected the initial attempt plus two retries")
		assert.Empty(t, store.documents, "Expected no document row for a failed file")
	})

	t.Run("Store failure surfaces as store error", func(t *testing.T) {
		store := newStubStore()
		store.insertChunkErr = fmt.Errorf("connection reset")
		embedder := &stubEmbedder{}
		ingestor := testIngestor(t, store, embedder)

		report, err := ingestor.IngestFiles(context.Background(), []*model.FileInput{textFile("report.txt", 10)})

		require.NoError(t, err)
		assert.Equal(t, model.FileStatusFailed, report.Files[0].Status)
		assert.Contains(t, report.Files[0].Error, "store insert chunk")
	})

	t.Run("Cancelled context aborts the batch", func(t *testing.T) {
		store := newStubStore()
		embedder := &stubEmbedder{}
		ingestor := testIngestor(t, store, embedder)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ingestor.IngestFiles(ctx, []*model.FileInput{textFile("report.txt", 10)})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
