package helper

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// FileHash computes the sha256 fingerprint of raw file bytes.
// The hash is the stable identity of a document and drives deduplication:
// identical bytes always produce the identical hash.
func FileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileHashFromPath computes the sha256 fingerprint of a file on disk
// without loading it fully into memory.
func FileHashFromPath(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-provided ingestion path
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
