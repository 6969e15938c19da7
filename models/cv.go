package models

import (
	"time"

	"github.com/google/uuid"
)

// CvStatus is the lifecycle stage of an uploaded CV.
type CvStatus string

const (
	CvStatusUploaded  CvStatus = "UPLOADED"
	CvStatusParsed    CvStatus = "PARSED"
	CvStatusEvaluated CvStatus = "EVALUATED"
)

// SectionType enumerates the recognized CV section kinds.
type SectionType string

const (
	SectionSummary    SectionType = "SUMMARY"
	SectionExperience SectionType = "EXPERIENCE"
	SectionProjects   SectionType = "PROJECTS"
	SectionSkills     SectionType = "SKILLS"
	SectionEducation  SectionType = "EDUCATION"
	SectionActivities SectionType = "ACTIVITIES"
)

// CV is a candidate résumé: an ordered sequence of sections owned by an
// external user account. Sectioning and chunk splitting happen outside
// this module; the CV collaborator hands us rows already parsed.
type CV struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Status    CvStatus  `json:"status"`
	Sections  []CvSection `json:"sections,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CvSection is one titled block of a CV (experience, skills, ...),
// holding an ordered sequence of chunks.
type CvSection struct {
	ID      uuid.UUID   `json:"id"`
	CvID    uuid.UUID   `json:"cv_id"`
	Type    SectionType `json:"type"`
	Order   int         `json:"order"`
	Chunks  []CvChunk   `json:"chunks,omitempty"`
}

// CvChunk is an atomic text unit (≤500 chars) within a section. Embedding
// is nil until the Embedding Adapter populates it.
type CvChunk struct {
	ID        uuid.UUID `json:"id"`
	SectionID uuid.UUID `json:"section_id"`
	Order     int       `json:"order"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// HasEmbedding reports whether this chunk has a populated vector.
func (c CvChunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
