package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/docsage/docsage/internal/models"
)

type PgVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// PgVectorStore keeps chunk records in a pgvector table. The table is the
// durable storage location: Clear drops it and recreates it empty.
type PgVectorStore struct {
	config PgVectorConfig
	pool   *pgxpool.Pool
}

func NewPgVectorStore(config PgVectorConfig) (*PgVectorStore, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PgVectorStore{config: config, pool: pool}, nil
}

func (s *PgVectorStore) Load(ctx context.Context) error {
	return s.initialize(ctx)
}

func (s *PgVectorStore) initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		)`, s.config.TableName, s.config.VectorDim)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		s.config.TableName, s.config.TableName)
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

func (s *PgVectorStore) Add(ctx context.Context, recs []models.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)`, s.config.TableName)

	for _, rec := range recs {
		_, err := tx.Exec(ctx, stmt,
			rec.ID,
			rec.Content,
			rec.Metadata,
			pgvector.NewVector(rec.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgVectorStore) Remove(ctx context.Context, ids []string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", s.config.TableName)
	if _, err := s.pool.Exec(ctx, stmt, ids); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *PgVectorStore) Search(ctx context.Context, embedding []float32, limit int) ([]models.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, content, metadata
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, s.config.TableName)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var recs []models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *PgVectorStore) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT count(*) FROM %s", s.config.TableName)
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

func (s *PgVectorStore) Clear(ctx context.Context) error {
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s", s.config.TableName)
	if _, err := s.pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	return s.initialize(ctx)
}

func (s *PgVectorStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
