package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/docquery"
	"github.com/siherrmann/docquery/core/pipeline"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
)

const sampleContent = `Acme Corp Employee Handbook.

Every full-time employee is entitled to thirty days of paid vacation per year.
Vacation requests must be submitted at least two weeks in advance through the HR portal.

Remote work is allowed up to three days per week after the probation period.
The probation period lasts six months for all new hires.

Office access cards are issued by the facilities team on the first working day.
Lost cards must be reported immediately to prevent misuse.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "docquery_test",
		Username: "postgres",
		Password: "postgres",
		Schema:   "public",
	}

	d, err := docquery.NewDocQuery(dbConfig, model.DefaultConfig(), pipeline.MiniLMDimension)
	if err != nil {
		log.Fatalf("Failed to create docquery: %v", err)
	}
	defer d.Close()

	// Set up the default pipeline (sentence chunking + local embeddings).
	// Answer synthesis needs OPENAI_API_KEY in the environment.
	if err := d.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Ingest the sample handbook
	report, err := d.Ingest(context.Background(), &model.FileInput{
		Data:     []byte(sampleContent),
		Filename: "handbook.txt",
		Name:     "Employee Handbook",
		Category: "acme",
	})
	if err != nil {
		log.Fatalf("Failed to ingest: %v", err)
	}

	for _, file := range report.Files {
		fmt.Printf("File %s: %s (%d chunks)\n", file.Filename, file.Status, file.ChunksWritten)
	}

	// Ask a question against the ingested documents
	result, err := d.Query(context.Background(), "How many vacation days do employees get?", nil)
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}

	fmt.Printf("\nAnswer: %s\n", result.Answer)
	for _, source := range result.Sources {
		if source.Page != nil {
			fmt.Printf("  Source: %s, page %d (score %.2f)\n", source.Document, *source.Page, source.Score)
		} else {
			fmt.Printf("  Source: %s (score %.2f)\n", source.Document, source.Score)
		}
	}
}
