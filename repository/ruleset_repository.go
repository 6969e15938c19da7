package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvready/models"
)

// RuleSetRepository is the outbound contract for the process-wide
// quality rubric, seeded by an external ingestion job
// (cmd/seed-quality-rules) and consumed read-only here. It also satisfies
// quality.RuleSetSource directly, so the CV Quality Engine can be handed
// a PostgresRuleSetRepository without an adapter shim.
type RuleSetRepository interface {
	Latest(ctx context.Context, key string) (models.RuleSet, error)
	QualityRules(ctx context.Context, ruleSetKey string) ([]models.CvQualityRule, int, error)
}

// PostgresRuleSetRepository implements RuleSetRepository against
// `rule_sets` and `cv_quality_rules` tables.
type PostgresRuleSetRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRuleSetRepository(db *pgxpool.Pool) *PostgresRuleSetRepository {
	return &PostgresRuleSetRepository{db: db}
}

func (r *PostgresRuleSetRepository) Latest(ctx context.Context, key string) (models.RuleSet, error) {
	var rs models.RuleSet
	rs.Key = key
	err := r.db.QueryRow(ctx, `
		SELECT version, embedding_provider, embedding_model FROM rule_sets
		WHERE key = $1 ORDER BY version DESC LIMIT 1`, key).
		Scan(&rs.Version, &rs.EmbeddingProvider, &rs.EmbeddingModel)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RuleSet{}, fmt.Errorf("repository: no rule set seeded for key %q", key)
	}
	if err != nil {
		return models.RuleSet{}, fmt.Errorf("repository: load rule set %q: %w", key, err)
	}
	return rs, nil
}

// QualityRules loads every rule in the latest version of ruleSetKey,
// with their chunks, satisfying quality.RuleSetSource.
func (r *PostgresRuleSetRepository) QualityRules(ctx context.Context, ruleSetKey string) ([]models.CvQualityRule, int, error) {
	rs, err := r.Latest(ctx, ruleSetKey)
	if err != nil {
		return nil, 0, err
	}

	ruleRows, err := r.db.Query(ctx, `
		SELECT rule_key, category, severity, strategy, structural_check_id, applies_to_sections
		FROM cv_quality_rules
		WHERE rule_set_key = $1 AND rule_set_version = $2
		ORDER BY rule_key ASC`, ruleSetKey, rs.Version)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: load quality rules for %q: %w", ruleSetKey, err)
	}
	defer ruleRows.Close()

	var rules []models.CvQualityRule
	byKey := make(map[string]*models.CvQualityRule)
	for ruleRows.Next() {
		var rule models.CvQualityRule
		var structuralCheckID *string
		if err := ruleRows.Scan(&rule.RuleKey, &rule.Category, &rule.Severity, &rule.Strategy, &structuralCheckID, &rule.AppliesToSections); err != nil {
			return nil, 0, fmt.Errorf("repository: scan quality rule: %w", err)
		}
		if structuralCheckID != nil {
			rule.StructuralCheckID = *structuralCheckID
		}
		rule.RuleSetKey = ruleSetKey
		rules = append(rules, rule)
	}
	if err := ruleRows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: iterate quality rules: %w", err)
	}
	for i := range rules {
		byKey[rules[i].RuleKey] = &rules[i]
	}

	chunkRows, err := r.db.Query(ctx, `
		SELECT rc.rule_key, rc.id, rc.chunk_order, rc.content, rc.embedding
		FROM cv_quality_rule_chunks rc
		WHERE rc.rule_set_key = $1 AND rc.rule_set_version = $2
		ORDER BY rc.rule_key ASC, rc.chunk_order ASC`, ruleSetKey, rs.Version)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: load quality rule chunks for %q: %w", ruleSetKey, err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var ruleKey string
		var chunk models.RuleChunk
		var embedding []float32
		if err := chunkRows.Scan(&ruleKey, &chunk.ID, &chunk.Order, &chunk.Content, &embedding); err != nil {
			return nil, 0, fmt.Errorf("repository: scan quality rule chunk: %w", err)
		}
		chunk.Embedding = embedding
		chunk.RuleID = ruleKey
		if rule, ok := byKey[ruleKey]; ok {
			rule.Chunks = append(rule.Chunks, chunk)
		}
	}
	if err := chunkRows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: iterate quality rule chunks: %w", err)
	}

	return rules, rs.Version, nil
}
