package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHash(t *testing.T) {
	t.Run("Identical bytes produce identical hashes", func(t *testing.T) {
		a := FileHash([]byte("the same content"))
		b := FileHash([]byte("the same content"))

		assert.Equal(t, a, b)
		assert.Len(t, a, 64, "sha256 hex digest should be 64 characters")
	})

	t.Run("Different bytes produce different hashes", func(t *testing.T) {
		a := FileHash([]byte("content one"))
		b := FileHash([]byte("content two"))

		assert.NotEqual(t, a, b)
	})

	t.Run("Empty input has a stable hash", func(t *testing.T) {
		// sha256 of the empty string
		assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", FileHash(nil))
	})
}

func TestFileHashFromPath(t *testing.T) {
	t.Run("Matches in-memory hash of the same content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.txt")
		content := []byte("hash me from disk")
		require.NoError(t, os.WriteFile(path, content, 0644))

		fromPath, err := FileHashFromPath(path)

		require.NoError(t, err)
		assert.Equal(t, FileHash(content), fromPath)
	})

	t.Run("Returns error for missing file", func(t *testing.T) {
		_, err := FileHashFromPath("/non/existent/file")
		assert.Error(t, err)
	})
}
