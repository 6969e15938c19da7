package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Band is the discretization of a similarity value.
type Band string

const (
	BandHigh       Band = "HIGH"
	BandAmbiguous  Band = "AMBIGUOUS"
	BandLow        Band = "LOW"
	BandNoEvidence Band = "NO_EVIDENCE"
)

// RuleResult is the rule-level aggregate produced by the Similarity
// Contract's aggregator.
type RuleResult string

const (
	ResultFull       RuleResult = "FULL"
	ResultPartial    RuleResult = "PARTIAL"
	ResultNone       RuleResult = "NONE"
	ResultNoEvidence RuleResult = "NO_EVIDENCE"
)

// Candidate is one CV chunk scored against a rule chunk by the vector
// store, annotated with section weight and band by the Semantic
// Evaluator. It is the atomic evidence unit threaded through every
// downstream engine.
type Candidate struct {
	CvChunkID      uuid.UUID   `json:"cvChunkId"`
	SectionID      uuid.UUID   `json:"sectionId"`
	SectionType    SectionType `json:"sectionType"`
	Content        string      `json:"content"`
	ChunkOrder     int         `json:"chunkOrder"`
	CosineDistance float64     `json:"cosineDistance"`
	Similarity     float64     `json:"similarity"`
	SectionWeight  float64     `json:"sectionWeight"`
	Band           Band        `json:"band"`
}

// ChunkEvidence is the per-rule-chunk output of the Semantic Evaluator.
type ChunkEvidence struct {
	RuleChunkID   string      `json:"ruleChunkId"`
	Candidates    []Candidate `json:"candidates"`
	BestCandidate *Candidate  `json:"bestCandidate,omitempty"`
	BestBand      Band        `json:"bestBand"`
	// Set by the JD Matching Engine after judge adjudication; nil until then.
	Judge *JudgeOutcome `json:"judge,omitempty"`
}

// RuleEvidence is the per-rule output of the Semantic Evaluator, shared
// verbatim by both the CV Quality Engine and the JD Matching Engine.
type RuleEvidence struct {
	RuleID         string          `json:"ruleId"`
	RuleKey        string          `json:"ruleKey"`
	RuleContent    string          `json:"ruleContent"`
	RuleType       RuleType        `json:"ruleType"`
	ChunkEvidence  []ChunkEvidence `json:"chunkEvidence"`
	Result         RuleResult      `json:"result"`
	BestMatch      *Candidate      `json:"bestMatch,omitempty"`
	CandidateCount int             `json:"candidateCount"`
	Upgraded       bool            `json:"upgraded"`
}

// EvaluatorSummary tallies rule results for a single evaluateX call.
type EvaluatorSummary struct {
	Total      int `json:"total"`
	Full       int `json:"full"`
	Partial    int `json:"partial"`
	None       int `json:"none"`
	NoEvidence int `json:"noEvidence"`
}

// EvaluatorOutput is the return shape of both evaluateCvQualityRules and
// evaluateJdRules.
type EvaluatorOutput struct {
	Results []RuleEvidence   `json:"results"`
	Summary EvaluatorSummary `json:"summary"`
}

// JudgeOutcome is the LLM Judge Adapter's per-input record. Network
// failure and parse failure are both explicit fields, never exceptions.
type JudgeOutcome struct {
	Used        bool           `json:"used"`
	Skipped     bool           `json:"skipped"`
	Unavailable bool           `json:"unavailable"`
	Result      *JudgeVerdict  `json:"result,omitempty"`
	LatencyMs   int64          `json:"latencyMs"`
}

// JudgeStatus is the judge's own three-way verdict, distinct from Band.
type JudgeStatus string

const (
	JudgeFull    JudgeStatus = "FULL"
	JudgePartial JudgeStatus = "PARTIAL"
	JudgeNone    JudgeStatus = "NONE"
)

type JudgeConfidence string

const (
	ConfidenceLow    JudgeConfidence = "low"
	ConfidenceMedium JudgeConfidence = "medium"
	ConfidenceHigh   JudgeConfidence = "high"
)

type JudgeVerdict struct {
	Status     JudgeStatus     `json:"status"`
	Reason     string          `json:"reason"`
	Confidence JudgeConfidence `json:"confidence"`
}

// Decision is the CV Quality Engine's categorical readiness verdict.
type Decision string

const (
	DecisionReady             Decision = "READY"
	DecisionNeedsImprovement  Decision = "NEEDS_IMPROVEMENT"
	DecisionNotReady          Decision = "NOT_READY"
)

// Finding is one structural-or-semantic quality rule result.
type Finding struct {
	RuleID   string     `json:"ruleId"`
	Category RuleType   `json:"category"`
	Passed   bool       `json:"passed"`
	Severity Severity   `json:"severity"`
	Reason   string     `json:"reason"`
	Evidence []string   `json:"evidence,omitempty"`
}

// CategoryScores holds the per-category and total quality scores.
type CategoryScores struct {
	MustHave     float64 `json:"mustHave"`
	NiceToHave   float64 `json:"niceToHave"`
	BestPractice float64 `json:"bestPractice"`
	Total        float64 `json:"total"`
}

// CvQualityResult is the CV Quality Engine's output.
type CvQualityResult struct {
	Decision       Decision        `json:"decision"`
	Findings       []Finding       `json:"findings"`
	Scores         CategoryScores  `json:"scores"`
	RuleSetVersion int             `json:"ruleSetVersion"`
}

// MatchStatus is the JD Matching Engine's per-rule conservative
// aggregate, prior to scoring multipliers.
type MatchStatus string

const (
	MatchFull       MatchStatus = "FULL"
	MatchPartial    MatchStatus = "PARTIAL"
	MatchNone       MatchStatus = "NONE"
	MatchNoEvidence MatchStatus = "NO_EVIDENCE"
)

// MentionDetails records the multi-mention boost tally.
type MentionDetails struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// MatchTraceEntry is the per-rule record the JD Matching Engine emits,
// in input rule order; it is the sole input to the Gap Detector and
// Suggestion Generator.
type MatchTraceEntry struct {
	RuleID                string          `json:"ruleId"`
	RuleType              RuleType        `json:"ruleType"`
	RuleContent           string          `json:"ruleContent"`
	MatchStatus           MatchStatus     `json:"matchStatus"`
	BestMatch             *Candidate      `json:"bestMatch,omitempty"`
	ChunkEvidence         []ChunkEvidence `json:"chunkEvidence"`
	SectionUpgradeApplied bool            `json:"sectionUpgradeApplied"`
	UpgradeFromSection    SectionType     `json:"upgradeFromSection,omitempty"`
	JudgeDowngradeApplied bool            `json:"judgeDowngradeApplied"`
	MultiMentionCount     int             `json:"multiMentionCount"`
	MultiMentionBoost     bool            `json:"multiMentionBoost"`
	MentionDetails        MentionDetails  `json:"mentionDetails"`
	Score                 float64         `json:"score"`
	WeightedScore         float64         `json:"weightedScore"`
}

// MatchLevel is the overall JD-match verdict.
type MatchLevel string

const (
	LevelStrongMatch  MatchLevel = "STRONG_MATCH"
	LevelGoodMatch    MatchLevel = "GOOD_MATCH"
	LevelPartialMatch MatchLevel = "PARTIAL_MATCH"
	LevelLowMatch     MatchLevel = "LOW_MATCH"
)

// MatchScores holds the JD Matching Engine's aggregate coverage figures.
type MatchScores struct {
	MustCoverage       float64 `json:"mustCoverage"`
	NiceCoverage       float64 `json:"niceCoverage"`
	BestCoverage       float64 `json:"bestCoverage"`
	Total              float64 `json:"total"`
	WeightedScoreRate  float64 `json:"weightedScoreRate"`
	MustHaveScoreRate  float64 `json:"mustHaveScoreRate"`
}

// GapSeverity is the severity of an emitted gap, from the Similarity
// Contract's severity map — distinct from CvQualityRule.Severity.
type GapSeverity string

const (
	GapNone               GapSeverity = "NONE"
	GapCriticalSkillGap   GapSeverity = "CRITICAL_SKILL_GAP"
	GapMinorGap           GapSeverity = "MINOR_GAP"
	GapPartialAdvisory    GapSeverity = "PARTIAL_MATCH_ADVISORY"
	GapAdvisory           GapSeverity = "ADVISORY"
)

// Gap is one emitted shortfall against a JD rule.
type Gap struct {
	GapID       string      `json:"gapId"`
	RuleID      string      `json:"ruleId"`
	RuleKey     string      `json:"ruleKey"`
	RuleChunkID string      `json:"ruleChunkId,omitempty"`
	RuleContent string      `json:"ruleContent"`
	CvChunkID   string      `json:"cvChunkId,omitempty"`
	Snippet     string      `json:"snippet,omitempty"`
	Section     SectionType `json:"section,omitempty"`
	Similarity  float64     `json:"similarity"`
	Band        Band        `json:"band"`
	Severity    GapSeverity `json:"severity"`
	Reason      string      `json:"reason"`
}

// GapSummary tallies gaps by severity.
type GapSummary struct {
	CriticalSkillGap int `json:"criticalSkillGap"`
	MinorGap         int `json:"minorGap"`
	PartialAdvisory  int `json:"partialMatchAdvisory"`
	Advisory         int `json:"advisory"`
}

// SuggestionType discriminates a Suggestion's origin.
type SuggestionType string

const (
	SuggestionMissing      SuggestionType = "MISSING"
	SuggestionPartial      SuggestionType = "PARTIAL"
	SuggestionExpandBullet SuggestionType = "EXPAND_BULLET"
)

// ActionType is the concrete remediation action attached to a Suggestion.
type ActionType string

const (
	ActionAddMetric    ActionType = "ADD_METRIC"
	ActionAddLink      ActionType = "ADD_LINK"
	ActionAddBullet    ActionType = "ADD_BULLET"
	ActionExpandBullet ActionType = "EXPAND_BULLET"
)

// Suggestion is one actionable remediation item.
type Suggestion struct {
	SuggestionID string         `json:"suggestionId"`
	Type         SuggestionType `json:"type"`
	Action       ActionType     `json:"action"`
	RuleChunkID  string         `json:"ruleChunkId,omitempty"`
	ConceptLabel string         `json:"conceptLabel"`
	Message      string         `json:"message"`
}

// Recommendation is the orchestrator's top-level decision-support verdict.
type Recommendation string

const (
	RecommendationNotReady         Recommendation = "NOT_READY"
	RecommendationNeedsImprovement Recommendation = "NEEDS_IMPROVEMENT"
	RecommendationReadyToApply     Recommendation = "READY_TO_APPLY"
)

// DecisionSupport is the orchestrator's assembled verdict summary.
type DecisionSupport struct {
	ReadinessScore     int            `json:"readinessScore"`
	Recommendation     Recommendation `json:"recommendation"`
	CriticalCount      int            `json:"criticalCount"`
	MajorCount         int            `json:"majorCount"`
	ImprovementCount   int            `json:"improvementCount"`
}

// TimingsMs carries wall-clock timings for the trace.
type TimingsMs struct {
	Total int64 `json:"total"`
}

// Trace is the auditable envelope around every result.
type Trace struct {
	RequestID      string     `json:"requestId"`
	CvID           uuid.UUID  `json:"cvId"`
	JdID           *uuid.UUID `json:"jdId,omitempty"`
	RuleSetVersion int        `json:"ruleSetVersion"`
	TimingsMs      TimingsMs  `json:"timingsMs"`
}

// JdMatchResult is the JD Matching Engine's full output.
type JdMatchResult struct {
	Level       MatchLevel        `json:"level"`
	MatchTrace  []MatchTraceEntry `json:"matchTrace"`
	Gaps        []Gap             `json:"gaps"`
	GapSummary  GapSummary        `json:"gapSummary"`
	Suggestions []Suggestion      `json:"suggestions"`
	Scores      MatchScores       `json:"scores"`
}

// EvaluationResult is the wire format returned by runEvaluation and
// persisted verbatim (as JSONB) inside an Evaluation row.
type EvaluationResult struct {
	EvaluationID    uuid.UUID        `json:"evaluationId"`
	CvQuality       CvQualityResult  `json:"cvQuality"`
	JdMatch         *JdMatchResult   `json:"jdMatch"`
	Gaps            []Gap            `json:"gaps"`
	Suggestions     []Suggestion     `json:"suggestions"`
	MockQuestions   []string         `json:"mockQuestions,omitempty"`
	DecisionSupport DecisionSupport  `json:"decisionSupport"`
	Trace           Trace            `json:"trace"`
}

// Value implements driver.Valuer for JSONB, following the teacher's
// GenerationSteps pattern.
func (r EvaluationResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB.
func (r *EvaluationResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// Evaluation is the persisted, immutable-after-write verdict record.
type Evaluation struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	CvID      uuid.UUID        `json:"cv_id"`
	JdID      *uuid.UUID       `json:"jd_id,omitempty"`
	Result    EvaluationResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}
