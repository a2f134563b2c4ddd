package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/joho/godotenv"
	"github.com/siherrmann/docquery"
	"github.com/siherrmann/docquery/core/pipeline"
	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const kjvRepoURL = "https://raw.githubusercontent.com/arleym/kjv-markdown/master"

// List of KJV books to download
var kjvBooks = []string{
	"01 - Genesis - KJV.md",
	"02 - Exodus - KJV.md",
	"03 - Leviticus - KJV.md",
}

// startPostgresContainer starts a PostgreSQL container with a bind-mounted
// data directory, so ingested books survive between runs. Content-hash
// dedupe then skips the already processed books on the next run.
func startPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	dataDir := "./data"
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create data directory: %w", err)
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path for data directory: %w", err)
	}

	// When the database already exists, PostgreSQL doesn't re-initialize,
	// so the ready message only appears once instead of twice
	waitOccurrences := 2
	pgVersionFile := filepath.Join(absDataDir, "PG_VERSION")
	if _, err := os.Stat(pgVersionFile); err == nil {
		waitOccurrences = 1
		fmt.Printf("Using existing persistent database in: %s\n", absDataDir)
	} else {
		fmt.Printf("Creating new persistent database in: %s\n", absDataDir)
	}

	options := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(waitOccurrences),
		),
		testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.Mounts = append(hc.Mounts, mount.Mount{
				Type:   mount.TypeBind,
				Source: absDataDir,
				Target: "/var/lib/postgresql/data",
			})
		}),
	}

	pgContainer, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg17",
		options...,
	)
	if err != nil {
		return nil, "", fmt.Errorf("error starting postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("error getting connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("error parsing connection string: %v", err)
	}

	return pgContainer.Terminate, u.Port(), nil
}

func downloadBook(bookName string, outputDir string) (string, error) {
	// URL-encode the filename to handle spaces
	encodedName := url.PathEscape(bookName)
	downloadURL := fmt.Sprintf("%s/%s", kjvRepoURL, encodedName)
	resp, err := http.Get(downloadURL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", bookName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", bookName, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", bookName, err)
	}

	outputPath := filepath.Join(outputDir, bookName)
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", bookName, err)
	}

	return outputPath, nil
}

func extractBookTitle(filename string) string {
	// Extract book name from format like "01 - Genesis - KJV.md"
	parts := strings.Split(filename, " - ")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSuffix(filename, ".md")
}

func main() {
	// Load OPENAI_API_KEY from .env if present, needed for answer synthesis
	_ = godotenv.Load()

	// Start a PostgreSQL container with persistence
	teardown, dbPort, err := startPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
	}

	d, err := docquery.NewDocQuery(dbConfig, model.DefaultConfig(), pipeline.MiniLMDimension)
	if err != nil {
		log.Fatalf("Failed to create docquery: %v", err)
	}
	defer d.Close()

	fmt.Println("Setting up the default pipeline...")
	if err := d.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Create temporary directory for downloads
	tmpDir, err := os.MkdirTemp("", "kjv-books-*")
	if err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	fmt.Println("Downloading KJV books from GitHub...")

	files := make([]*model.FileInput, 0, len(kjvBooks))
	for i, bookName := range kjvBooks {
		fmt.Printf("Downloading %s (%d/%d)...\n", bookName, i+1, len(kjvBooks))

		bookPath, err := downloadBook(bookName, tmpDir)
		if err != nil {
			log.Printf("Warning: %v, skipping...", err)
			continue
		}

		file, err := model.NewFileInputFromPath(bookPath, "kjv")
		if err != nil {
			log.Printf("Warning: failed to read %s, skipping...", bookName)
			continue
		}
		file.Name = extractBookTitle(bookName)
		files = append(files, file)
	}

	report, err := d.Ingest(context.Background(), files...)
	if err != nil {
		log.Fatalf("Failed to ingest: %v", err)
	}

	ingested, skipped, failed := report.Counts()
	fmt.Printf("\nKJV status: %d ingested, %d already in the database, %d failed\n\n", ingested, skipped, failed)

	documents, err := d.ListDocuments()
	if err != nil {
		log.Fatalf("Failed to list documents: %v", err)
	}
	for _, document := range documents {
		fmt.Printf("  %s (%d chunks)\n", document.Name, document.ChunkCount)
	}

	// Retrieval without synthesis works without an API key
	query := "What did Moses do on the mountain?"
	fmt.Printf("\nSearching: %q\n", query)
	fmt.Println(strings.Repeat("=", 20))

	results, err := d.Retrieve(context.Background(), query, &model.QueryConfig{
		SimilarityTopK: 10,
		RerankerTopN:   3,
		Category:       "kjv",
	})
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}
	for i, result := range results {
		content := result.Chunk.Content
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		fmt.Printf("\n[%d] Score: %.4f | Book: %s\n", i+1, result.Score, result.Chunk.DocumentName)
		fmt.Printf("    %s\n", strings.ReplaceAll(content, "\n", "\n    "))
	}

	// Full answer synthesis needs the OpenAI API
	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println("\nSet OPENAI_API_KEY to also synthesize an answer.")
		return
	}

	result, err := d.Query(context.Background(), query, nil)
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}
	fmt.Printf("\nAnswer: %s\n", result.Answer)
	for _, source := range result.Sources {
		fmt.Printf("  Source: %s (score %.2f)\n", source.Document, source.Score)
	}
}
