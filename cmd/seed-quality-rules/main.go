// Command seed-quality-rules loads a JSON rule definition file and seeds a
// new version of a RuleSet's cv_quality_rules/cv_quality_rule_chunks rows,
// embedding each SEMANTIC/HYBRID rule's reference chunks through the same
// Embedding Adapter client the server uses at request time. It replaces
// cmd/build-embeddings, which chunked and embedded O-1 case law into
// legal_chunks — that ingestion shape doesn't carry over, since this
// module's rubric is a short, hand-authored catalogue of quality rules
// rather than a corpus of appeal decisions, but the overall
// read-chunk-embed-insert structure and the use of a versioned catalogue
// row are both grounded on it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvready/config"
	"cvready/embedding"
	"cvready/models"
)

// ruleDefinition is one entry of the input JSON file's "rules" array.
type ruleDefinition struct {
	RuleKey           string   `json:"rule_key"`
	Category          string   `json:"category"`
	Severity          string   `json:"severity"`
	Strategy          string   `json:"strategy"`
	StructuralCheckID string   `json:"structural_check_id,omitempty"`
	AppliesToSections []string `json:"applies_to_sections,omitempty"`
	Chunks            []string `json:"chunks,omitempty"`
}

type ruleSetDefinition struct {
	Rules []ruleDefinition `json:"rules"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	rulesFile := os.Getenv("RULES_FILE")
	if rulesFile == "" {
		rulesFile = "./quality_rules.json"
	}

	def, err := loadDefinition(rulesFile)
	if err != nil {
		log.Fatalf("Failed to load rule definitions from %s: %v", rulesFile, err)
	}
	if len(def.Rules) == 0 {
		log.Fatalf("%s contains no rules", rulesFile)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	embeddingClient := embedding.New(cfg.GeminiAPIKey, cfg.Embedding.Dimension)
	if !embeddingClient.Configured() {
		log.Fatal("GEMINI_API_KEY is required to embed semantic rule chunks")
	}

	ctx := context.Background()
	version, err := nextVersion(ctx, pool, cfg.RuleSetKey)
	if err != nil {
		log.Fatalf("Failed to determine next rule set version: %v", err)
	}

	if err := seed(ctx, pool, embeddingClient, cfg.RuleSetKey, version, def); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded rule set %q version %d with %d rules", cfg.RuleSetKey, version, len(def.Rules))
}

func loadDefinition(path string) (ruleSetDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ruleSetDefinition{}, err
	}
	var def ruleSetDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return ruleSetDefinition{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return def, nil
}

func nextVersion(ctx context.Context, pool *pgxpool.Pool, key string) (int, error) {
	var latest int
	err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM rule_sets WHERE key = $1`, key).Scan(&latest)
	if err != nil {
		return 0, err
	}
	return latest + 1, nil
}

// seed inserts one rule_sets row and its cv_quality_rules/
// cv_quality_rule_chunks rows inside a single transaction, so a bad rule
// definition never leaves a partially-seeded version for the CV Quality
// Engine to read mid-write.
func seed(ctx context.Context, pool *pgxpool.Pool, embedder *embedding.Client, key string, version int, def ruleSetDefinition) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO rule_sets (key, version, embedding_provider, embedding_model)
		VALUES ($1, $2, $3, $4)`,
		key, version, "gemini", "gemini-embedding-001")
	if err != nil {
		return fmt.Errorf("insert rule set: %w", err)
	}

	for _, rule := range def.Rules {
		if err := insertRule(ctx, tx, embedder, key, version, rule); err != nil {
			return fmt.Errorf("rule %q: %w", rule.RuleKey, err)
		}
	}

	return tx.Commit(ctx)
}

func insertRule(ctx context.Context, tx pgx.Tx, embedder *embedding.Client, ruleSetKey string, version int, rule ruleDefinition) error {
	var structuralCheckID *string
	if rule.StructuralCheckID != "" {
		structuralCheckID = &rule.StructuralCheckID
	}

	sections := make([]models.SectionType, len(rule.AppliesToSections))
	for i, s := range rule.AppliesToSections {
		sections[i] = models.SectionType(s)
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO cv_quality_rules (
			rule_key, rule_set_key, rule_set_version, category, severity, strategy,
			structural_check_id, applies_to_sections
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rule.RuleKey, ruleSetKey, version, rule.Category, rule.Severity, rule.Strategy,
		structuralCheckID, sections)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}

	if len(rule.Chunks) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(rule.Chunks))
	for i := range rule.Chunks {
		chunkIDs[i] = uuid.New().String()
	}

	results, err := embedder.EmbedBatch(ctx, chunkIDs, rule.Chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	vectors := make(map[string][]float32, len(results))
	for _, r := range results {
		vectors[r.ChunkID] = r.Vector
	}

	for i, content := range rule.Chunks {
		vector, ok := vectors[chunkIDs[i]]
		if !ok {
			return fmt.Errorf("chunk %d: no embedding returned", i)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO cv_quality_rule_chunks (
				id, rule_key, rule_set_key, rule_set_version, chunk_order, content, embedding
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			chunkIDs[i], rule.RuleKey, ruleSetKey, version, i, content, vector)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	return nil
}
