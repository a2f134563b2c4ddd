package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested source document.
// Documents are identified by the sha256 hash of their raw bytes and are
// immutable after ingestion.
type Document struct {
	ID         int64     `json:"id"`
	RID        uuid.UUID `json:"rid"`
	Hash       string    `json:"hash"`
	Name       string    `json:"name"`
	Category   string    `json:"category,omitempty"`
	FileType   string    `json:"file_type"`
	ChunkCount int       `json:"chunk_count"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FileInput is a single file handed to the ingestion pipeline.
type FileInput struct {
	Data     []byte
	Filename string
	Name     string // Display name, defaults to Filename without extension
	Category string // Source label, e.g. a company or collection name
}

// DisplayName returns the configured display name or derives one from the filename.
func (f *FileInput) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	base := filepath.Base(f.Filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		name = base
	}
	return name
}

// NewFileInputFromPath reads a file and creates a FileInput with its content.
// The display name defaults to the filename without extension.
func NewFileInputFromPath(path string, category string) (*FileInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &FileInput{
		Data:     data,
		Filename: filepath.Base(path),
		Category: category,
	}, nil
}
