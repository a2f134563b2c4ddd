package database

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/docquery/helper"
	loadSql "github.com/siherrmann/docquery/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

// testEmbedding creates a deterministic embedding whose direction depends on seed
func testEmbedding(dim int, seed float32) []float32 {
	embedding := make([]float32, dim)
	for i := range embedding {
		embedding[i] = seed + float32(i)/float32(dim)
	}
	return embedding
}
