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

// EvaluationRepository is the outbound contract backing
// listEvaluations/getEvaluationSummary/deleteEvaluation (§6).
type EvaluationRepository interface {
	Create(ctx context.Context, eval *models.Evaluation) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Evaluation, error)
	GetByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (models.Evaluation, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// PostgresEvaluationRepository implements EvaluationRepository against an
// `evaluations` table carrying the result as JSONB (models.EvaluationResult's
// Value/Scan pair), following the teacher's GenerationSteps JSONB column
// idiom in repository/generation_job_repository.go.
type PostgresEvaluationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresEvaluationRepository(db *pgxpool.Pool) *PostgresEvaluationRepository {
	return &PostgresEvaluationRepository{db: db}
}

func (r *PostgresEvaluationRepository) Create(ctx context.Context, eval *models.Evaluation) error {
	query := `
		INSERT INTO evaluations (id, owner_id, cv_id, jd_id, result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query, eval.ID, eval.OwnerID, eval.CvID, eval.JdID, eval.Result).Scan(&eval.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: create evaluation %s: %w", eval.ID, err)
	}
	return nil
}

func (r *PostgresEvaluationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Evaluation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, cv_id, jd_id, result, created_at
		FROM evaluations
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("repository: list evaluations for %s: %w", ownerID, err)
	}
	defer rows.Close()

	var evals []models.Evaluation
	for rows.Next() {
		var e models.Evaluation
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.CvID, &e.JdID, &e.Result, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: scan evaluation: %w", err)
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

func (r *PostgresEvaluationRepository) GetByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (models.Evaluation, error) {
	var e models.Evaluation
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, cv_id, jd_id, result, created_at
		FROM evaluations
		WHERE id = $1 AND owner_id = $2`, id, ownerID).
		Scan(&e.ID, &e.OwnerID, &e.CvID, &e.JdID, &e.Result, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Evaluation{}, ErrEvaluationNotFound
	}
	if err != nil {
		return models.Evaluation{}, fmt.Errorf("repository: load evaluation %s: %w", id, err)
	}
	return e, nil
}

func (r *PostgresEvaluationRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM evaluations WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("repository: delete evaluation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEvaluationNotFound
	}
	return nil
}
