package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/siherrmann/docquery"
	"github.com/siherrmann/docquery/core/pipeline"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
)

// Ingests the files passed on the command line with a fully remote pipeline
// (OpenAI embeddings and answer synthesis) and answers questions against them.
//
// Usage: go run . <file.pdf|file.docx|file.txt> [more files...]
func main() {
	// Load OPENAI_API_KEY from .env if present
	_ = godotenv.Load()
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Fatal("OPENAI_API_KEY is required for this example")
	}

	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <file> [more files...]", os.Args[0])
	}

	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "docquery_test",
		Username: "postgres",
		Password: "postgres",
		Schema:   "public",
	}

	config := model.DefaultConfig()
	d, err := docquery.NewDocQuery(dbConfig, config, pipeline.OpenAISmallDimension)
	if err != nil {
		log.Fatalf("Failed to create docquery: %v", err)
	}
	defer d.Close()

	if err := d.UseOpenAIPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Switch the vector index to IVFFlat, which builds faster on large batches
	if err := d.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 50}); err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}

	report, err := d.IngestPaths(context.Background(), "uploads", os.Args[1:]...)
	if err != nil {
		log.Fatalf("Failed to ingest: %v", err)
	}

	for _, file := range report.Files {
		if file.Status == model.FileStatusFailed {
			fmt.Printf("File %s failed: %s\n", file.Filename, file.Error)
			continue
		}
		fmt.Printf("File %s: %s (%d chunks written, %d skipped)\n", file.Filename, file.Status, file.ChunksWritten, file.ChunksSkipped)
	}

	documents, err := d.ListDocuments()
	if err != nil {
		log.Fatalf("Failed to list documents: %v", err)
	}
	fmt.Printf("\n%d documents in the store:\n", len(documents))
	for _, document := range documents {
		fmt.Printf("  %s (%s, %d chunks)\n", document.Name, document.FileType, document.ChunkCount)
	}

	// Query with a custom configuration: wider retrieval, strict relevance floor
	queryConfig := &model.QueryConfig{
		SimilarityTopK: 20,
		RerankerTopN:   5,
		MaxSources:     3,
		MinScore:       0.1,
		Category:       "uploads",
	}

	questions := []string{
		"What is the main topic of the uploaded documents?",
		"Are there any deadlines mentioned?",
	}
	for _, question := range questions {
		result, err := d.Query(context.Background(), question, queryConfig)
		if err != nil {
			log.Fatalf("Failed to query: %v", err)
		}

		fmt.Printf("\nQ: %s\nA: %s\n", question, result.Answer)
		if result.NoResults {
			continue
		}
		for _, source := range result.Sources {
			fmt.Printf("   Source: %s (score %.2f)\n", source.Document, source.Score)
		}
	}
}
