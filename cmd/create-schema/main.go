// Command create-schema creates the tables the evaluation pipeline reads
// and writes: cvs/cv_sections/cv_chunks, jds/jd_rules/jd_rule_chunks,
// rule_sets/cv_quality_rules/cv_quality_rule_chunks, evaluations, and
// documents. Grounded on the teacher's own create-schema, which built a
// single legal_chunks table (source_type/citation/criterion columns, an
// HNSW vector index, and a dozen filter indexes) for the O-1 case-law
// corpus; that table has no role here; the vector-similarity-search and
// pgvector-extension setup it grounds this file on carries over, widened
// from one table to the pipeline's three chunk tables.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"cvready/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	connString := cfg.DatabaseURL
	if override := os.Getenv("DATABASE_URL"); override != "" {
		connString = override
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("pgvector extension enabled")
	}

	dimension := cfg.Embedding.Dimension
	if dimension == 0 {
		dimension = 768
	}

	for _, stmt := range dropStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to drop table: %v", err)
		}
	}
	log.Println("Dropped existing tables (if any)")

	for _, stmt := range createStatements(dimension) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to run schema statement: %v\n%s", err, stmt)
		}
	}
	log.Println("Created tables")

	for _, idx := range indexStatements {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.Printf("Warning: failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("Created index: %s", idx.name)
		}
	}

	fmt.Println("\nDatabase schema created successfully.")
}

// dropStatements is ordered leaf-to-root so foreign keys never block a drop.
var dropStatements = []string{
	"DROP TABLE IF EXISTS cv_quality_rule_chunks CASCADE",
	"DROP TABLE IF EXISTS cv_quality_rules CASCADE",
	"DROP TABLE IF EXISTS rule_sets CASCADE",
	"DROP TABLE IF EXISTS jd_rule_chunks CASCADE",
	"DROP TABLE IF EXISTS jd_rules CASCADE",
	"DROP TABLE IF EXISTS jds CASCADE",
	"DROP TABLE IF EXISTS cv_chunks CASCADE",
	"DROP TABLE IF EXISTS cv_sections CASCADE",
	"DROP TABLE IF EXISTS cvs CASCADE",
	"DROP TABLE IF EXISTS evaluations CASCADE",
	"DROP TABLE IF EXISTS documents CASCADE",
}

func createStatements(dimension int) []string {
	return []string{
		`CREATE TABLE cvs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'UPLOADED'
				CHECK (status IN ('UPLOADED', 'PARSED', 'EVALUATED')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE cv_sections (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			cv_id UUID NOT NULL REFERENCES cvs(id) ON DELETE CASCADE,
			type VARCHAR(20) NOT NULL
				CHECK (type IN ('SUMMARY', 'EXPERIENCE', 'PROJECTS', 'SKILLS', 'EDUCATION', 'ACTIVITIES')),
			section_order INT NOT NULL,
			UNIQUE (cv_id, section_order)
		)`,
		fmt.Sprintf(`CREATE TABLE cv_chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			section_id UUID NOT NULL REFERENCES cv_sections(id) ON DELETE CASCADE,
			chunk_order INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			UNIQUE (section_id, chunk_order)
		)`, dimension),

		`CREATE TABLE jds (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL,
			title VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE jd_rules (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			jd_id UUID NOT NULL REFERENCES jds(id) ON DELETE CASCADE,
			type VARCHAR(20) NOT NULL
				CHECK (type IN ('MUST_HAVE', 'NICE_TO_HAVE', 'BEST_PRACTICE')),
			content TEXT NOT NULL,
			intent VARCHAR(20) NOT NULL DEFAULT ''
				CHECK (intent IN ('', 'REQUIREMENT', 'RESPONSIBILITY', 'QUALIFICATION', 'INFORMATIONAL', 'PREFERENCE')),
			ignored BOOLEAN NOT NULL DEFAULT false
		)`,
		fmt.Sprintf(`CREATE TABLE jd_rule_chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			rule_id UUID NOT NULL REFERENCES jd_rules(id) ON DELETE CASCADE,
			chunk_order INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			UNIQUE (rule_id, chunk_order)
		)`, dimension),

		`CREATE TABLE rule_sets (
			key VARCHAR(100) NOT NULL,
			version INT NOT NULL,
			embedding_provider VARCHAR(50) NOT NULL,
			embedding_model VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (key, version)
		)`,
		`CREATE TABLE cv_quality_rules (
			rule_key VARCHAR(100) NOT NULL,
			rule_set_key VARCHAR(100) NOT NULL,
			rule_set_version INT NOT NULL,
			category VARCHAR(20) NOT NULL
				CHECK (category IN ('MUST_HAVE', 'NICE_TO_HAVE', 'BEST_PRACTICE')),
			severity VARCHAR(20) NOT NULL
				CHECK (severity IN ('critical', 'warning', 'info')),
			strategy VARCHAR(20) NOT NULL
				CHECK (strategy IN ('STRUCTURAL', 'SEMANTIC', 'HYBRID')),
			structural_check_id VARCHAR(100),
			applies_to_sections TEXT[],
			PRIMARY KEY (rule_key, rule_set_key, rule_set_version),
			FOREIGN KEY (rule_set_key, rule_set_version) REFERENCES rule_sets(key, version) ON DELETE CASCADE
		)`,
		fmt.Sprintf(`CREATE TABLE cv_quality_rule_chunks (
			id UUID PRIMARY KEY,
			rule_key VARCHAR(100) NOT NULL,
			rule_set_key VARCHAR(100) NOT NULL,
			rule_set_version INT NOT NULL,
			chunk_order INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			UNIQUE (rule_key, rule_set_key, rule_set_version, chunk_order),
			FOREIGN KEY (rule_key, rule_set_key, rule_set_version)
				REFERENCES cv_quality_rules(rule_key, rule_set_key, rule_set_version) ON DELETE CASCADE
		)`, dimension),

		`CREATE TABLE evaluations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL,
			cv_id UUID NOT NULL REFERENCES cvs(id) ON DELETE CASCADE,
			jd_id UUID REFERENCES jds(id) ON DELETE SET NULL,
			result JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE documents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL,
			kind VARCHAR(10) NOT NULL CHECK (kind IN ('cv', 'jd')),
			entity_id UUID,
			filename VARCHAR(255) NOT NULL,
			mime_type VARCHAR(100) NOT NULL,
			size BIGINT NOT NULL,
			storage_path TEXT NOT NULL,
			metadata JSONB DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

var indexStatements = []struct {
	name string
	sql  string
}{
	{
		name: "CV sections by CV",
		sql:  "CREATE INDEX idx_cv_sections_cv_id ON cv_sections(cv_id)",
	},
	{
		name: "CV chunk vector similarity (ivfflat)",
		sql:  "CREATE INDEX idx_cv_chunks_embedding_ivfflat ON cv_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)",
	},
	{
		name: "JD rule chunks by rule",
		sql:  "CREATE INDEX idx_jd_rule_chunks_rule_id ON jd_rule_chunks(rule_id)",
	},
	{
		name: "CV quality rule chunks by rule",
		sql:  "CREATE INDEX idx_cv_quality_rule_chunks_rule ON cv_quality_rule_chunks(rule_key, rule_set_key, rule_set_version)",
	},
	{
		name: "Evaluations by owner",
		sql:  "CREATE INDEX idx_evaluations_owner_id ON evaluations(owner_id)",
	},
	{
		name: "Documents by owner",
		sql:  "CREATE INDEX idx_documents_owner_id ON documents(owner_id)",
	},
	{
		name: "Documents by linked entity",
		sql:  "CREATE INDEX idx_documents_entity_id ON documents(entity_id) WHERE entity_id IS NOT NULL",
	},
}
