package model

// FileStatus is the per-file outcome of an ingestion batch.
type FileStatus string

const (
	FileStatusIngested FileStatus = "ingested"
	FileStatusSkipped  FileStatus = "skipped-duplicate"
	FileStatusFailed   FileStatus = "failed"
)

// FileResult records the outcome of ingesting a single file.
type FileResult struct {
	Filename      string     `json:"filename"`
	Status        FileStatus `json:"status"`
	DocumentHash  string     `json:"document_hash,omitempty"`
	ChunksWritten int        `json:"chunks_written"`
	ChunksSkipped int        `json:"chunks_skipped"`
	Error         string     `json:"error,omitempty"`
}

// IngestReport enumerates the outcome of every file in a batch.
// One file's failure never aborts the batch, so the report always contains
// exactly one entry per input file.
type IngestReport struct {
	Files []FileResult `json:"files"`
}

// Counts returns the number of ingested, skipped and failed files.
func (r *IngestReport) Counts() (ingested, skipped, failed int) {
	for _, f := range r.Files {
		switch f.Status {
		case FileStatusIngested:
			ingested++
		case FileStatusSkipped:
			skipped++
		case FileStatusFailed:
			failed++
		}
	}
	return ingested, skipped, failed
}
