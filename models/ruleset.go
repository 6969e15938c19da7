package models

// Severity is the configured severity of a structural/semantic quality
// rule, independent of the gap severity produced by a failed match.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// RuleStrategy selects how a CvQualityRule is evaluated.
type RuleStrategy string

const (
	StrategyStructural RuleStrategy = "STRUCTURAL"
	StrategySemantic   RuleStrategy = "SEMANTIC"
	StrategyHybrid     RuleStrategy = "HYBRID"
)

// RuleSet is the process-wide catalogue of quality rules, seeded once by
// an external ingestion job (cmd/seed-quality-rules) and consumed
// read-only at evaluation time.
type RuleSet struct {
	Key               string `json:"key"`
	Version           int    `json:"version"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingModel    string `json:"embedding_model"`
}

// CvQualityRule is one rubric entry within a RuleSet.
type CvQualityRule struct {
	RuleKey           string        `json:"rule_key"`
	RuleSetKey        string        `json:"rule_set_key"`
	Category          RuleType      `json:"category"`
	Severity          Severity      `json:"severity"`
	Strategy          RuleStrategy  `json:"strategy"`
	StructuralCheckID string        `json:"structural_check_id,omitempty"`
	AppliesToSections []SectionType `json:"applies_to_sections,omitempty"`
	Chunks            []RuleChunk   `json:"chunks,omitempty"`
}

// RuleChunk is one reference chunk of a CvQualityRule. The Semantic
// Evaluator does not take this type directly: the quality engine copies
// it into evaluator.RuleChunk, the same shape JD rule chunks are copied into.
type RuleChunk struct {
	ID        string
	RuleID    string
	Order     int
	Content   string
	Embedding []float32
}
