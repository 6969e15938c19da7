package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"cvready/embedding"
)

// PostgresChunkStore implements embedding.ChunkStore. Every save is a
// write-only-if-null UPDATE so concurrent EmbedCvChunks/EmbedJdRuleChunks
// invocations for the same id stay idempotent (§5).
type PostgresChunkStore struct {
	db *pgxpool.Pool
}

func NewPostgresChunkStore(db *pgxpool.Pool) *PostgresChunkStore {
	return &PostgresChunkStore{db: db}
}

func (s *PostgresChunkStore) FindCvChunksWithoutEmbedding(ctx context.Context, cvID uuid.UUID) ([]embedding.ChunkRef, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.content
		FROM cv_chunks c
		JOIN cv_sections sec ON sec.id = c.section_id
		WHERE sec.cv_id = $1 AND c.embedding IS NULL`, cvID)
	if err != nil {
		return nil, fmt.Errorf("repository: find cv chunks without embedding for %s: %w", cvID, err)
	}
	defer rows.Close()
	return scanChunkRefs(rows)
}

func (s *PostgresChunkStore) SaveCvChunkEmbedding(ctx context.Context, chunkID string, vector []float32) error {
	id, err := uuid.Parse(chunkID)
	if err != nil {
		return fmt.Errorf("repository: invalid cv chunk id %q: %w", chunkID, err)
	}
	_, err = s.db.Exec(ctx, `UPDATE cv_chunks SET embedding = $1 WHERE id = $2 AND embedding IS NULL`, pgvector.NewVector(vector), id)
	if err != nil {
		return fmt.Errorf("repository: save cv chunk embedding for %s: %w", chunkID, err)
	}
	return nil
}

func (s *PostgresChunkStore) FindJdRuleChunksWithoutEmbedding(ctx context.Context, jdID uuid.UUID) ([]embedding.ChunkRef, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.content
		FROM jd_rule_chunks c
		JOIN jd_rules r ON r.id = c.rule_id
		WHERE r.jd_id = $1 AND c.embedding IS NULL`, jdID)
	if err != nil {
		return nil, fmt.Errorf("repository: find jd rule chunks without embedding for %s: %w", jdID, err)
	}
	defer rows.Close()
	return scanChunkRefs(rows)
}

func (s *PostgresChunkStore) SaveJdRuleChunkEmbedding(ctx context.Context, chunkID string, vector []float32) error {
	id, err := uuid.Parse(chunkID)
	if err != nil {
		return fmt.Errorf("repository: invalid jd rule chunk id %q: %w", chunkID, err)
	}
	_, err = s.db.Exec(ctx, `UPDATE jd_rule_chunks SET embedding = $1 WHERE id = $2 AND embedding IS NULL`, pgvector.NewVector(vector), id)
	if err != nil {
		return fmt.Errorf("repository: save jd rule chunk embedding for %s: %w", chunkID, err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanChunkRefs(rows rowScanner) ([]embedding.ChunkRef, error) {
	var out []embedding.ChunkRef
	for rows.Next() {
		var ref embedding.ChunkRef
		var id uuid.UUID
		if err := rows.Scan(&id, &ref.Content); err != nil {
			return nil, fmt.Errorf("repository: scan chunk ref: %w", err)
		}
		ref.ID = id.String()
		out = append(out, ref)
	}
	return out, rows.Err()
}
