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

// CvRepository is the outbound contract the orchestrator's CV
// collaborator implements (§6): ensureCvParsed plus a plain reload used
// after embedding runs.
type CvRepository interface {
	// EnsureCvParsed verifies cvID is owned by ownerID and has status
	// PARSED or EVALUATED, returning the full CV with its sections and
	// chunks. Returns ErrCvNotFound/ErrCvNotOwned/ErrCvNotParsed.
	EnsureCvParsed(ctx context.Context, ownerID, cvID uuid.UUID) (models.CV, error)
	FindCvWithSectionsAndChunks(ctx context.Context, cvID uuid.UUID) (models.CV, error)
}

// PostgresCvRepository implements CvRepository against `cvs`, `cv_sections`,
// and `cv_chunks` tables, following the teacher's pgxpool-constructor,
// raw-SQL repository idiom (repository/file_repository.go).
type PostgresCvRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCvRepository(db *pgxpool.Pool) *PostgresCvRepository {
	return &PostgresCvRepository{db: db}
}

func (r *PostgresCvRepository) EnsureCvParsed(ctx context.Context, ownerID, cvID uuid.UUID) (models.CV, error) {
	var owner uuid.UUID
	var status models.CvStatus
	err := r.db.QueryRow(ctx, `SELECT owner_id, status FROM cvs WHERE id = $1`, cvID).Scan(&owner, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CV{}, ErrCvNotFound
	}
	if err != nil {
		return models.CV{}, fmt.Errorf("repository: load cv %s: %w", cvID, err)
	}
	if owner != ownerID {
		return models.CV{}, ErrCvNotOwned
	}
	if status != models.CvStatusParsed && status != models.CvStatusEvaluated {
		return models.CV{}, ErrCvNotParsed
	}
	return r.FindCvWithSectionsAndChunks(ctx, cvID)
}

func (r *PostgresCvRepository) FindCvWithSectionsAndChunks(ctx context.Context, cvID uuid.UUID) (models.CV, error) {
	cv := models.CV{ID: cvID}
	err := r.db.QueryRow(ctx, `SELECT owner_id, status, created_at, updated_at FROM cvs WHERE id = $1`, cvID).
		Scan(&cv.OwnerID, &cv.Status, &cv.CreatedAt, &cv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CV{}, ErrCvNotFound
	}
	if err != nil {
		return models.CV{}, fmt.Errorf("repository: load cv %s: %w", cvID, err)
	}

	sectionRows, err := r.db.Query(ctx, `
		SELECT id, type, section_order FROM cv_sections
		WHERE cv_id = $1 ORDER BY section_order ASC`, cvID)
	if err != nil {
		return models.CV{}, fmt.Errorf("repository: load cv sections for %s: %w", cvID, err)
	}
	defer sectionRows.Close()

	var sections []models.CvSection
	for sectionRows.Next() {
		var s models.CvSection
		if err := sectionRows.Scan(&s.ID, &s.Type, &s.Order); err != nil {
			return models.CV{}, fmt.Errorf("repository: scan cv section: %w", err)
		}
		s.CvID = cvID
		sections = append(sections, s)
	}
	if err := sectionRows.Err(); err != nil {
		return models.CV{}, fmt.Errorf("repository: iterate cv sections: %w", err)
	}
	cv.Sections = sections

	bySection := make(map[uuid.UUID]*models.CvSection, len(cv.Sections))
	for i := range cv.Sections {
		bySection[cv.Sections[i].ID] = &cv.Sections[i]
	}

	chunkRows, err := r.db.Query(ctx, `
		SELECT c.id, c.section_id, c.chunk_order, c.content, c.embedding
		FROM cv_chunks c
		JOIN cv_sections s ON s.id = c.section_id
		WHERE s.cv_id = $1
		ORDER BY s.section_order ASC, c.chunk_order ASC`, cvID)
	if err != nil {
		return models.CV{}, fmt.Errorf("repository: load cv chunks for %s: %w", cvID, err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var c models.CvChunk
		var embedding []float32
		if err := chunkRows.Scan(&c.ID, &c.SectionID, &c.Order, &c.Content, &embedding); err != nil {
			return models.CV{}, fmt.Errorf("repository: scan cv chunk: %w", err)
		}
		c.Embedding = embedding
		if section, ok := bySection[c.SectionID]; ok {
			section.Chunks = append(section.Chunks, c)
		}
	}
	if err := chunkRows.Err(); err != nil {
		return models.CV{}, fmt.Errorf("repository: iterate cv chunks: %w", err)
	}

	return cv, nil
}
