// Package matching implements the JD Matching Engine (§4.7): drives the
// shared Semantic Evaluator for JD rules, applies judge mapping, the
// section-aware upgrade, the judge-driven downgrade, the multi-mention
// boost, per-rule scoring, and the overall match level. The two ordering
// choices flagged as open questions in §9(a) are implemented exactly as
// specified: the section upgrade is checked before the judge downgrade,
// and the multi-mention boost runs after both.
package matching

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cvready/evaluator"
	"cvready/gap"
	"cvready/judge"
	"cvready/models"
	"cvready/suggestion"
)

// RuleTypeMultipliers maps a JD rule type to its scoring multiplier.
type RuleTypeMultipliers struct {
	MustHave     float64
	NiceToHave   float64
	BestPractice float64
}

func (m RuleTypeMultipliers) For(t models.RuleType) float64 {
	switch t {
	case models.RuleMustHave:
		return m.MustHave
	case models.RuleNiceToHave:
		return m.NiceToHave
	default:
		return m.BestPractice
	}
}

// ScoreWeights maps a JD rule type to its coverage weight in the total
// score.
type ScoreWeights struct {
	MustHave     float64
	NiceToHave   float64
	BestPractice float64
}

// Config parametrizes one JD Matching Engine run.
type Config struct {
	Evaluator                  evaluator.Config
	MultiMentionThreshold      int
	MultiMentionHighSimilarity float64
	Multipliers               RuleTypeMultipliers
	Weights                   ScoreWeights
}

func DefaultConfig() Config {
	return Config{
		MultiMentionThreshold:      3,
		MultiMentionHighSimilarity: 0.60,
		Multipliers:                RuleTypeMultipliers{MustHave: 3.0, NiceToHave: 2.0, BestPractice: 1.0},
		Weights:                    ScoreWeights{MustHave: 0.5, NiceToHave: 0.3, BestPractice: 0.2},
	}
}

// Engine is the JD Matching Engine.
type Engine struct {
	Evaluator *evaluator.Evaluator
	Judge     *judge.Adapter
}

func New(ev *evaluator.Evaluator, j *judge.Adapter) *Engine {
	return &Engine{Evaluator: ev, Judge: j}
}

// JDRule is the input shape: a matchable JD rule with its chunks already
// carrying embeddings.
type JDRule struct {
	ID      string
	Type    models.RuleType
	Content string
	Chunks  []evaluator.RuleChunk
	// ChunkContent maps a rule chunk id to its own text (distinct from the
	// rule's combined Content), used when prompting the judge.
	ChunkContent map[string]string
}

// Evaluate runs the full JD matching pipeline over cvID against the
// given matchable rules, in the rules' own order (§5's "final matchTrace
// is emitted in the input rule order").
func (e *Engine) Evaluate(ctx context.Context, cvID uuid.UUID, rules []JDRule, cfg Config) (models.JdMatchResult, error) {
	evalRules := make([]evaluator.Rule, len(rules))
	for i, r := range rules {
		evalRules[i] = evaluator.Rule{ID: r.ID, Key: r.ID, Content: r.Content, Type: r.Type, Chunks: r.Chunks}
	}

	out, err := e.Evaluator.Evaluate(ctx, cvID, evalRules, cfg.Evaluator)
	if err != nil {
		return models.JdMatchResult{}, fmt.Errorf("matching: semantic evaluation failed: %w", err)
	}

	trace := make([]models.MatchTraceEntry, len(out.Results))
	for i, evidence := range out.Results {
		trace[i] = e.matchOne(ctx, rules[i], evidence, cfg)
	}

	scores := aggregateScores(trace, cfg)
	level := matchLevel(scores, len(trace))

	gaps, gapSummary := gap.Detect(trace)
	suggestions := suggestion.Generate(gaps, trace)

	return models.JdMatchResult{
		Level:       level,
		MatchTrace:  trace,
		Scores:      scores,
		Gaps:        gaps,
		GapSummary:  gapSummary,
		Suggestions: suggestions,
	}, nil
}

func (e *Engine) matchOne(ctx context.Context, rule JDRule, evidence models.RuleEvidence, cfg Config) models.MatchTraceEntry {
	e.applyJudge(ctx, rule, &evidence, cfg)

	matchStatus := conservativeAggregate(evidence)

	entry := models.MatchTraceEntry{
		RuleID:        rule.ID,
		RuleType:      rule.Type,
		RuleContent:   rule.Content,
		BestMatch:     evidence.BestMatch,
		ChunkEvidence: evidence.ChunkEvidence,
	}

	// Step 4: section-aware upgrade.
	upgraded := false
	if matchStatus == models.MatchPartial && evidence.BestMatch != nil {
		section := evidence.BestMatch.SectionType
		if section == models.SectionExperience || section == models.SectionProjects {
			judgeReturnedNone := false
			if ce := findChunkEvidenceFor(evidence, *evidence.BestMatch); ce != nil && ce.Judge != nil {
				if ce.Judge.Used && ce.Judge.Result != nil && ce.Judge.Result.Status == models.JudgeNone {
					judgeReturnedNone = true
				}
			}
			if !judgeReturnedNone {
				matchStatus = models.MatchFull
				entry.SectionUpgradeApplied = true
				entry.UpgradeFromSection = section
				upgraded = true
			}
		}
	}

	// Step 5: judge-driven downgrade, only when the upgrade above did not
	// fire. "AMBIGUOUS chunk" here means originally ambiguous (the set
	// applyJudge submitted to the judge in step 2), not the post-remap
	// band: a NONE verdict already rewrites that chunk's band to LOW, so
	// checking the current band would never match. ce.Judge being set at
	// all is exactly the originally-ambiguous marker.
	if !upgraded && matchStatus == models.MatchPartial {
		for _, ce := range evidence.ChunkEvidence {
			if ce.Judge == nil {
				continue
			}
			if ce.Judge.Used && ce.Judge.Result != nil && ce.Judge.Result.Status == models.JudgeNone {
				matchStatus = models.MatchNone
				entry.JudgeDowngradeApplied = true
				break
			}
		}
	}

	// Step 6: multi-mention boost, applied after judge logic.
	details, boostFires := multiMentionBoost(evidence, cfg)
	entry.MentionDetails = details
	entry.MultiMentionCount = details.High + details.Medium
	if boostFires {
		matchStatus = models.MatchFull
		entry.MultiMentionBoost = true
	}

	entry.MatchStatus = matchStatus

	// Step 7: scoring.
	entry.Score = scoreFor(matchStatus)
	entry.WeightedScore = entry.Score * cfg.Multipliers.For(rule.Type)

	return entry
}

// applyJudge invokes the judge on every AMBIGUOUS chunk and rewrites its
// band per §4.7 step 2's FULL⇒HIGH, PARTIAL⇒AMBIGUOUS, NONE⇒LOW mapping.
// If the judge is unavailable or skipped the original band is preserved.
func (e *Engine) applyJudge(ctx context.Context, rule JDRule, evidence *models.RuleEvidence, cfg Config) {
	if e.Judge == nil {
		return
	}

	var batch []judge.BatchInput
	var chunkIdxs []int

	for ci, ce := range evidence.ChunkEvidence {
		if ce.BestBand != models.BandAmbiguous || ce.BestCandidate == nil {
			continue
		}
		key := fmt.Sprintf("%s:%s:%s", rule.ID, ce.RuleChunkID, ce.BestCandidate.CvChunkID)
		batch = append(batch, judge.BatchInput{
			Key: key,
			Input: judge.Input{
				RuleChunkContent: rule.ChunkContent[ce.RuleChunkID],
				CvChunkContent:   ce.BestCandidate.Content,
				SectionType:      ce.BestCandidate.SectionType,
			},
		})
		chunkIdxs = append(chunkIdxs, ci)
	}
	if len(batch) == 0 {
		return
	}

	outcomes := e.Judge.JudgeBatch(ctx, batch)
	for i, outcome := range outcomes {
		chunkIdx := chunkIdxs[i]
		outcome := outcome
		evidence.ChunkEvidence[chunkIdx].Judge = &outcome

		if !outcome.Used || outcome.Unavailable || outcome.Skipped || outcome.Result == nil {
			continue // band preserved
		}
		newBand := judgeStatusToBand(outcome.Result.Status)
		evidence.ChunkEvidence[chunkIdx].BestBand = newBand
		if bc := evidence.ChunkEvidence[chunkIdx].BestCandidate; bc != nil {
			bc.Band = newBand
		}
	}
}

func judgeStatusToBand(s models.JudgeStatus) models.Band {
	switch s {
	case models.JudgeFull:
		return models.BandHigh
	case models.JudgePartial:
		return models.BandAmbiguous
	default:
		return models.BandLow
	}
}

// conservativeAggregate implements §4.7 step 3: any HIGH ⇒ FULL; else any
// AMBIGUOUS ⇒ PARTIAL; else NONE — collapsing LOW and NO_EVIDENCE alike,
// since the JD Matching Engine has no NO_EVIDENCE match status of its own.
func conservativeAggregate(evidence models.RuleEvidence) models.MatchStatus {
	sawAmbiguous := false
	for _, ce := range evidence.ChunkEvidence {
		switch ce.BestBand {
		case models.BandHigh:
			return models.MatchFull
		case models.BandAmbiguous:
			sawAmbiguous = true
		}
	}
	if sawAmbiguous {
		return models.MatchPartial
	}
	return models.MatchNone
}

func findChunkEvidenceFor(evidence models.RuleEvidence, best models.Candidate) *models.ChunkEvidence {
	for i := range evidence.ChunkEvidence {
		ce := &evidence.ChunkEvidence[i]
		if ce.BestCandidate != nil && ce.BestCandidate.CvChunkID == best.CvChunkID {
			return ce
		}
	}
	return nil
}

// multiMentionBoost counts unique CV chunks across the rule at HIGH and
// MEDIUM similarity tiers and applies the first matching rule of (a)
// ≥3 HIGH, (b) ≥1 HIGH + ≥1 MEDIUM, (c) ≥4 MEDIUM.
func multiMentionBoost(evidence models.RuleEvidence, cfg Config) (models.MentionDetails, bool) {
	seen := make(map[string]bool)
	var high, medium, low int
	for _, ce := range evidence.ChunkEvidence {
		for _, c := range ce.Candidates {
			key := c.CvChunkID.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			switch {
			case c.Similarity >= cfg.MultiMentionHighSimilarity:
				high++
			case c.Similarity >= cfg.Evaluator.Thresholds.Low:
				medium++
			default:
				low++
			}
		}
	}
	details := models.MentionDetails{High: high, Medium: medium, Low: low}

	threshold := cfg.MultiMentionThreshold
	if threshold <= 0 {
		threshold = 3
	}
	fires := high >= threshold || (high >= 1 && medium >= 1) || medium >= 4
	return details, fires
}

func scoreFor(status models.MatchStatus) float64 {
	switch status {
	case models.MatchFull:
		return 1.0
	case models.MatchPartial:
		return 0.5
	default:
		return 0.0
	}
}
