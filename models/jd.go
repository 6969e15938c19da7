package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleType classifies how strongly a rule (quality or JD) is required.
type RuleType string

const (
	RuleMustHave    RuleType = "MUST_HAVE"
	RuleNiceToHave  RuleType = "NICE_TO_HAVE"
	RuleBestPractice RuleType = "BEST_PRACTICE"
)

// RuleIntent classifies the purpose of a JD rule, set asynchronously by an
// external extraction job.
type RuleIntent string

const (
	IntentUnset          RuleIntent = ""
	IntentRequirement    RuleIntent = "REQUIREMENT"
	IntentResponsibility RuleIntent = "RESPONSIBILITY"
	IntentQualification  RuleIntent = "QUALIFICATION"
	IntentInformational  RuleIntent = "INFORMATIONAL"
	IntentPreference     RuleIntent = "PREFERENCE"
)

// JD is a job description: an ordered list of rules extracted at creation
// time by an external collaborator (regex or LLM extraction is out of
// scope here).
type JD struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     *string   `json:"title,omitempty"`
	Rules     []JDRule  `json:"rules,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JDRule is one requirement/responsibility extracted from a JD.
type JDRule struct {
	ID      uuid.UUID  `json:"id"`
	JdID    uuid.UUID  `json:"jd_id"`
	Type    RuleType   `json:"type"`
	Content string     `json:"content"`
	Intent  RuleIntent `json:"intent"`
	Ignored bool       `json:"ignored"`
	Chunks  []JDRuleChunk `json:"chunks,omitempty"`
}

// Matchable reports whether this rule should ever enter the JD Matching
// Engine: ignored rules and informational-intent rules never match.
func (r JDRule) Matchable() bool {
	return !r.Ignored && r.Intent != IntentInformational
}

// JDRuleChunk is an atomic concept phrase (e.g. a single skill) within a
// rule, embedded lazily.
type JDRuleChunk struct {
	ID        uuid.UUID `json:"id"`
	RuleID    uuid.UUID `json:"rule_id"`
	Order     int       `json:"order"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

func (c JDRuleChunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
