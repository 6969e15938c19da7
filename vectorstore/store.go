// Package vectorstore executes the cosine-distance top-K queries the
// Semantic Evaluator relies on, keyed on rule-chunk embedding × CV id.
// It is grounded on the teacher's LegalChunkRepository.SearchByCriterion
// (repository/legal_chunk_repository.go), generalized from a single
// hard-coded table/criterion shape into a CV-chunk-agnostic top-K query,
// and upgraded from the teacher's hand-formatted "[0.1,0.2,...]" vector
// strings to github.com/pgvector/pgvector-go's typed Vector column.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"cvready/models"
)

// Store is the Vector Store Adapter's contract (§4.2).
type Store interface {
	// TopK returns up to K candidates for one rule chunk against one CV,
	// sorted by cosine distance ascending with the SQL-level tie-break
	// (sectionId asc, chunkOrder asc, chunkId asc).
	TopK(ctx context.Context, embedding []float32, cvID uuid.UUID, k int) ([]models.Candidate, error)

	// TopKBatch must produce the same result as calling TopK independently
	// for each rule-chunk id.
	TopKBatch(ctx context.Context, embeddings map[string][]float32, cvID uuid.UUID, k int) (map[string][]models.Candidate, error)
}

// PostgresStore implements Store against a `cv_chunks` table carrying a
// pgvector `embedding` column, joined to `cv_sections` for section
// metadata, scoped to a single CV and to chunks on both sides that
// actually have an embedding.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const topKQuery = `
	SELECT c.id, c.section_id, s.type, c.content, c.chunk_order,
		c.embedding <=> $1::vector AS distance
	FROM cv_chunks c
	JOIN cv_sections s ON s.id = c.section_id
	WHERE s.cv_id = $2 AND c.embedding IS NOT NULL
	ORDER BY c.embedding <=> $1::vector ASC, s.id ASC, c.chunk_order ASC, c.id ASC
	LIMIT $3`

func (p *PostgresStore) TopK(ctx context.Context, embedding []float32, cvID uuid.UUID, k int) ([]models.Candidate, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(embedding)

	rows, err := p.db.Query(ctx, topKQuery, vec, cvID, k)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: top-k query failed: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.CvChunkID, &c.SectionID, &c.SectionType, &c.Content, &c.ChunkOrder, &c.CosineDistance); err != nil {
			return nil, fmt.Errorf("vectorstore: scan candidate: %w", err)
		}
		c.Similarity = 1 - c.CosineDistance
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: iterate candidates: %w", err)
	}
	return out, nil
}

// TopKBatch fans the batch out to one query per rule chunk, run
// serially. A single multi-vector SQL statement (UNION ALL over VALUES)
// would avoid the round trips, but would also need per-branch LIMIT
// semantics that Postgres doesn't give for free inside one query;
// independent sequential queries keep the contract ("same result as
// calling TopK for each id") trivially true.
func (p *PostgresStore) TopKBatch(ctx context.Context, embeddings map[string][]float32, cvID uuid.UUID, k int) (map[string][]models.Candidate, error) {
	out := make(map[string][]models.Candidate, len(embeddings))
	for ruleChunkID, embedding := range embeddings {
		candidates, err := p.TopK(ctx, embedding, cvID, k)
		if err != nil {
			return nil, fmt.Errorf("vectorstore: batch member %s: %w", ruleChunkID, err)
		}
		out[ruleChunkID] = candidates
	}
	return out, nil
}

// EnsureSchema creates the pgvector extension, a cv_chunks table with an
// embedding column, and an ivfflat cosine index, each only if absent. Any
// failure, including a missing privilege to create the extension, is
// returned to the caller. Grounded on the idempotent-index pattern in
// other_examples/fbrzx-airplane-chat's postgres vectorstore.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool, dimension int) error {
	if _, err := db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("vectorstore: enable pgvector extension: %w", err)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS cv_chunks (
			id uuid PRIMARY KEY,
			section_id uuid NOT NULL,
			chunk_order int NOT NULL,
			content text NOT NULL,
			embedding vector(%d)
		)`, dimension)
	if _, err := db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("vectorstore: create cv_chunks table: %w", err)
	}

	_, err := db.Exec(ctx, `
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'cv_chunks_embedding_ivfflat') THEN
				CREATE INDEX cv_chunks_embedding_ivfflat ON cv_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
			END IF;
		END $$;`)
	return err
}
