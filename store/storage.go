package store

import (
	"context"
	"database/sql"

	"studydigest/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRegistry records every upload and its extraction outcome.
type DocumentRegistry interface {
	Init(context.Context) error
	SaveDocument(context.Context, types.Document) error
	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
	Close() error
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) GetDocumentByID(ctx context.Context, docID uuid.UUID) (*types.Document, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, original_name, storage_name, storage_path, extension,
		pivot_path, pages, extraction_failed, created_at
		FROM documents WHERE id = $1`, docID)

	doc := &types.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.OriginalName,
		&doc.StorageName,
		&doc.StoragePath,
		&doc.Extension,
		&doc.PivotPath,
		&doc.Pages,
		&doc.ExtractionFailed,
		&doc.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) SaveDocument(ctx context.Context, doc types.Document) error {
	query := `INSERT INTO documents (id, original_name, storage_name, storage_path, extension,
			pivot_path, pages, extraction_failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			pivot_path = EXCLUDED.pivot_path,
			pages = EXCLUDED.pages,
			extraction_failed = EXCLUDED.extraction_failed
			`
	_, err := p.pool.Exec(
		ctx,
		query,
		doc.ID,
		doc.OriginalName,
		doc.StorageName,
		doc.StoragePath,
		doc.Extension,
		doc.PivotPath,
		doc.Pages,
		doc.ExtractionFailed,
		doc.CreatedAt,
	)

	return err
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		original_name TEXT NOT NULL,
		storage_name TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		extension TEXT NOT NULL,
		pivot_path TEXT,
		pages INTEGER DEFAULT 0,
		extraction_failed BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	`
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createTables(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// NopRegistry is used when no database is configured.
type NopRegistry struct{}

func (NopRegistry) Init(context.Context) error { return nil }
func (NopRegistry) SaveDocument(context.Context, types.Document) error { return nil }
func (NopRegistry) GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error) {
	return nil, sql.ErrNoRows
}
func (NopRegistry) Close() error { return nil }
