package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/docquery/helper"
	"github.com/siherrmann/docquery/model"
	loadSql "github.com/siherrmann/docquery/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(doc *model.Document) error
	SelectDocument(hash string) (*model.Document, error)
	SelectAllDocuments() ([]*model.Document, error)
	DocumentExists(hash string) (bool, error)
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a new document record.
// The document hash must be unique; inserting a hash twice is a store error.
func (h *DocumentsDBHandler) InsertDocument(doc *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3, $4, $5, $6)`,
		doc.Hash,
		doc.Name,
		doc.Category,
		doc.FileType,
		doc.ChunkCount,
		doc.Metadata,
	)

	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Hash,
		&doc.Name,
		&doc.Category,
		&doc.FileType,
		&doc.ChunkCount,
		&doc.Metadata,
		&doc.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by content hash
func (h *DocumentsDBHandler) SelectDocument(hash string) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		hash,
	)

	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Hash,
		&doc.Name,
		&doc.Category,
		&doc.FileType,
		&doc.ChunkCount,
		&doc.Metadata,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves all documents, newest first
func (h *DocumentsDBHandler) SelectAllDocuments() ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_documents()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.RID,
			&doc.Hash,
			&doc.Name,
			&doc.Category,
			&doc.FileType,
			&doc.ChunkCount,
			&doc.Metadata,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DocumentExists checks whether a document with the given content hash
// is already recorded. This backs document-level deduplication.
func (h *DocumentsDBHandler) DocumentExists(hash string) (bool, error) {
	var exists bool
	err := h.db.Instance.QueryRow(
		`SELECT document_exists($1)`,
		hash,
	).Scan(&exists)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return exists, nil
}
