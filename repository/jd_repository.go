package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvready/models"
)

// JdRepository is the outbound contract the orchestrator's JD
// collaborator implements (§6).
type JdRepository interface {
	// EnsureJdExists verifies jdID is owned by ownerID, returning the JD
	// (without rules populated — callers load those separately via
	// FindRulesByJdID once embedding has run).
	EnsureJdExists(ctx context.Context, ownerID, jdID uuid.UUID) (models.JD, error)
	FindRulesByJdID(ctx context.Context, jdID uuid.UUID) ([]models.JDRule, error)
	UpdateRuleIntent(ctx context.Context, ruleID uuid.UUID, intent models.RuleIntent) error
}

// PostgresJdRepository implements JdRepository against `jds`, `jd_rules`,
// and `jd_rule_chunks` tables.
type PostgresJdRepository struct {
	db *pgxpool.Pool
}

func NewPostgresJdRepository(db *pgxpool.Pool) *PostgresJdRepository {
	return &PostgresJdRepository{db: db}
}

func (r *PostgresJdRepository) EnsureJdExists(ctx context.Context, ownerID, jdID uuid.UUID) (models.JD, error) {
	jd := models.JD{ID: jdID}
	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT owner_id, title, created_at, updated_at FROM jds WHERE id = $1`, jdID).
		Scan(&owner, &jd.Title, &jd.CreatedAt, &jd.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.JD{}, ErrJdNotFound
	}
	if err != nil {
		return models.JD{}, fmt.Errorf("repository: load jd %s: %w", jdID, err)
	}
	if owner != ownerID {
		return models.JD{}, ErrJdNotOwned
	}
	jd.OwnerID = owner
	return jd, nil
}

func (r *PostgresJdRepository) FindRulesByJdID(ctx context.Context, jdID uuid.UUID) ([]models.JDRule, error) {
	ruleRows, err := r.db.Query(ctx, `
		SELECT id, type, content, intent, ignored FROM jd_rules
		WHERE jd_id = $1 ORDER BY id ASC`, jdID)
	if err != nil {
		return nil, fmt.Errorf("repository: load jd rules for %s: %w", jdID, err)
	}
	defer ruleRows.Close()

	var rules []models.JDRule
	byRule := make(map[uuid.UUID]*models.JDRule)
	for ruleRows.Next() {
		var rule models.JDRule
		if err := ruleRows.Scan(&rule.ID, &rule.Type, &rule.Content, &rule.Intent, &rule.Ignored); err != nil {
			return nil, fmt.Errorf("repository: scan jd rule: %w", err)
		}
		rule.JdID = jdID
		rules = append(rules, rule)
	}
	if err := ruleRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate jd rules: %w", err)
	}
	for i := range rules {
		byRule[rules[i].ID] = &rules[i]
	}

	chunkRows, err := r.db.Query(ctx, `
		SELECT c.id, c.rule_id, c.chunk_order, c.content, c.embedding
		FROM jd_rule_chunks c
		JOIN jd_rules r ON r.id = c.rule_id
		WHERE r.jd_id = $1
		ORDER BY c.rule_id ASC, c.chunk_order ASC`, jdID)
	if err != nil {
		return nil, fmt.Errorf("repository: load jd rule chunks for %s: %w", jdID, err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var c models.JDRuleChunk
		var embedding []float32
		if err := chunkRows.Scan(&c.ID, &c.RuleID, &c.Order, &c.Content, &embedding); err != nil {
			return nil, fmt.Errorf("repository: scan jd rule chunk: %w", err)
		}
		c.Embedding = embedding
		if rule, ok := byRule[c.RuleID]; ok {
			rule.Chunks = append(rule.Chunks, c)
		}
	}
	if err := chunkRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate jd rule chunks: %w", err)
	}

	return rules, nil
}

// UpdateRuleIntent persists the intent classification an external rule
// ingestion job assigns to a JD rule (§6's "Rule ingestion: external job"
// collaborator writes back through this one mutation point).
func (r *PostgresJdRepository) UpdateRuleIntent(ctx context.Context, ruleID uuid.UUID, intent models.RuleIntent) error {
	_, err := r.db.Exec(ctx, `UPDATE jd_rules SET intent = $1 WHERE id = $2`, intent, ruleID)
	if err != nil {
		return fmt.Errorf("repository: update rule intent for %s: %w", ruleID, err)
	}
	return nil
}
