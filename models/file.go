package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind distinguishes which owning entity a raw upload belongs to.
type DocumentKind string

const (
	DocumentKindCV DocumentKind = "cv"
	DocumentKindJD DocumentKind = "jd"
)

// Document is a raw uploaded file (PDF/DOCX/plain text) for a CV or JD,
// handed off to the external PDF-to-text/sectioning collaborator. The
// core evaluation pipeline never reads Document bytes directly; it only
// consumes the CV/JD rows the ingestion job produces once extraction
// completes.
type Document struct {
	ID          uuid.UUID    `json:"id"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Kind        DocumentKind `json:"kind"`
	EntityID    *uuid.UUID   `json:"entity_id,omitempty"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mime_type"`
	Size        int64        `json:"size"`
	StoragePath string       `json:"storage_path"`
	Metadata    JSONMap      `json:"metadata,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
