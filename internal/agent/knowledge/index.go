package knowledge

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
)

// Index is a nearest-neighbour store over embedded passages.
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]model.RetrievedPassage, error)
}

// Chunk is one passage ready for insertion.
type Chunk struct {
	Source  string
	Content string
	Vector  []float32
}

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// PGVectorIndex stores passages in a Postgres table with a pgvector column and
// ranks them by cosine similarity.
type PGVectorIndex struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
}

func NewPGVectorIndex(pool *pgxpool.Pool, table string, dimension int) (*PGVectorIndex, error) {
	if pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	return &PGVectorIndex{pool: pool, table: pgx.Identifier{table}.Sanitize(), dimension: dimension}, nil
}

// EnsureSchema creates the extension and table if they do not exist.
func (ix *PGVectorIndex) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, ix.table, ix.dimension),
	}
	for _, s := range stmts {
		if _, err := ix.pool.Exec(ctx, s); err != nil {
			return errx.Transport(Capability, fmt.Errorf("ensure schema: %w", err))
		}
	}
	return nil
}

// Insert writes chunks in one batch.
func (ix *PGVectorIndex) Insert(ctx context.Context, chunks []Chunk) error {
	batch := &pgx.Batch{}
	query := fmt.Sprintf(`INSERT INTO %s (source, content, embedding) VALUES ($1, $2, $3)`, ix.table)
	for _, c := range chunks {
		if len(c.Vector) != ix.dimension {
			return errx.Precondition(Capability, fmt.Sprintf("chunk from %s has dimension %d, index expects %d", c.Source, len(c.Vector), ix.dimension))
		}
		batch.Queue(query, c.Source, c.Content, pgvector.NewVector(c.Vector))
	}
	if err := ix.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errx.Transport(Capability, fmt.Errorf("insert chunks: %w", err))
	}
	return nil
}

// Search returns the k passages nearest to vector, most similar first.
func (ix *PGVectorIndex) Search(ctx context.Context, vector []float32, k int) ([]model.RetrievedPassage, error) {
	query := fmt.Sprintf(
		`SELECT content, source, 1 - (embedding <=> $1) AS score FROM %s ORDER BY embedding <=> $1 LIMIT $2`,
		ix.table)
	rows, err := ix.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, errx.Transport(Capability, fmt.Errorf("query failed: %w", err))
	}
	defer rows.Close()

	var results []model.RetrievedPassage
	for rows.Next() {
		var p model.RetrievedPassage
		if err := rows.Scan(&p.Text, &p.Source, &p.Score); err != nil {
			return nil, errx.Malformed(Capability, err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.Transport(Capability, err)
	}
	return results, nil
}

var _ Index = (*PGVectorIndex)(nil)
