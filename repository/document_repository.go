package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvready/models"
)

// DocumentRepository persists the raw uploads (PDF/DOCX/plain text) that
// back a CV or JD before the external extraction job produces sectioned
// rows. Grounded on the teacher's FileRepository, widened from a single
// petition_id foreign key to the owner/kind/entity shape models.Document
// needs.
type DocumentRepository struct {
	db *pgxpool.Pool
}

func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (
			owner_id, kind, entity_id, filename, mime_type, size, storage_path, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		doc.OwnerID,
		doc.Kind,
		doc.EntityID,
		doc.Filename,
		doc.MimeType,
		doc.Size,
		doc.StoragePath,
		doc.Metadata,
	).Scan(&doc.ID, &doc.CreatedAt)
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `
		SELECT id, owner_id, kind, entity_id, filename, mime_type, size, storage_path, metadata, created_at
		FROM documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.OwnerID, &doc.Kind, &doc.EntityID,
		&doc.Filename, &doc.MimeType, &doc.Size, &doc.StoragePath, &doc.Metadata, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT id, owner_id, kind, entity_id, filename, mime_type, size, storage_path, metadata, created_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		if err := rows.Scan(
			&doc.ID, &doc.OwnerID, &doc.Kind, &doc.EntityID,
			&doc.Filename, &doc.MimeType, &doc.Size, &doc.StoragePath, &doc.Metadata, &doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// LinkToEntity sets entity_id once the ingestion job has created the
// CV/JD row the document parses into.
func (r *DocumentRepository) LinkToEntity(ctx context.Context, id, entityID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE documents SET entity_id = $1 WHERE id = $2`, entityID, id)
	return err
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}
