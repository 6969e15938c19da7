// Package orchestrator implements the Evaluation Orchestrator (§4.10):
// it sequences ownership checks, the CV Quality Engine's fast structural
// gate, idempotent embedding, a full quality re-run, the JD Matching
// Engine, the Gap Detector, the Suggestion Generator, and decision
// support assembly into one runEvaluation call, then persists the
// result.
//
// Grounded on service/draft_service.go's GenerateDraft/ProcessDraft
// split (a fast synchronous gate in front of a longer pipeline), in the
// teacher's functional-options service-struct idiom.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"cvready/embedding"
	"cvready/evaluator"
	"cvready/matching"
	"cvready/metrics"
	"cvready/models"
	"cvready/quality"
	"cvready/repository"
)

// InterviewQuestionGenerator is the optional external collaborator that
// turns gaps and JD rules into mock interview questions. Failure is
// never fatal to the evaluation: mockQuestions is simply omitted.
type InterviewQuestionGenerator interface {
	GenerateQuestions(ctx context.Context, gaps []models.Gap, jdRules []models.JDRule) ([]string, error)
}

// Orchestrator is the Evaluation Orchestrator.
type Orchestrator struct {
	cvRepo      repository.CvRepository
	jdRepo      repository.JdRepository
	evalRepo    repository.EvaluationRepository
	embeddings  *embedding.Adapter
	quality     *quality.Engine
	matching    *matching.Engine
	matchCfg    matching.Config
	interviewer InterviewQuestionGenerator
}

// Option configures an Orchestrator, following the teacher's
// PetitionServiceOption pattern.
type Option func(*Orchestrator)

func WithInterviewQuestionGenerator(g InterviewQuestionGenerator) Option {
	return func(o *Orchestrator) { o.interviewer = g }
}

func New(
	cvRepo repository.CvRepository,
	jdRepo repository.JdRepository,
	evalRepo repository.EvaluationRepository,
	embeddings *embedding.Adapter,
	qualityEngine *quality.Engine,
	matchEngine *matching.Engine,
	matchCfg matching.Config,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		cvRepo:     cvRepo,
		jdRepo:     jdRepo,
		evalRepo:   evalRepo,
		embeddings: embeddings,
		quality:    qualityEngine,
		matching:   matchEngine,
		matchCfg:   matchCfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// These constants implement §4.10 step 8's readiness-score formula
// and recommendation mapping.
const (
	criticalPenalty    = 25
	majorPenalty       = 10
	improvementPenalty = 2
	majorNeedsImprove  = 2
)

// RunEvaluation implements runEvaluation(ownerId, cvId, jdId?) per §6/§4.10.
func (o *Orchestrator) RunEvaluation(ctx context.Context, ownerID, cvID uuid.UUID, jdID *uuid.UUID) (models.EvaluationResult, error) {
	start := time.Now()
	requestID := uuid.New().String()

	// Step 1: ownership + status check. Input/ownership errors return
	// immediately with no persistence (§7).
	cv, err := o.cvRepo.EnsureCvParsed(ctx, ownerID, cvID)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	// Step 2: fast structural gate, no semantic evaluation yet.
	fastQuality, err := o.quality.Evaluate(ctx, cv, false)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("orchestrator: fast quality gate: %w", err)
	}
	if fastQuality.Decision == models.DecisionNotReady {
		result := o.assembleQualityOnly(fastQuality, requestID, cvID, jdID, start)
		recordEvaluationMetrics(result, start)
		return result, nil
	}

	// Step 3: idempotent embedding of any CV chunks still missing a vector.
	if o.embeddings != nil {
		if _, err := o.embeddings.EmbedCvChunks(ctx, cvID); err != nil {
			log.Printf("orchestrator: embed cv chunks for %s: %v", cvID, err)
		}
	}

	// Step 4: full quality re-run with semantic rules.
	cv, err = o.cvRepo.FindCvWithSectionsAndChunks(ctx, cvID)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("orchestrator: reload cv after embedding: %w", err)
	}
	fullQuality, err := o.quality.Evaluate(ctx, cv, true)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("orchestrator: full quality evaluation: %w", err)
	}
	if fullQuality.Decision == models.DecisionNotReady {
		result := o.assembleQualityOnly(fullQuality, requestID, cvID, jdID, start)
		recordEvaluationMetrics(result, start)
		return result, nil
	}

	// Step 5: no JD given, quality-only result.
	if jdID == nil {
		result := o.assembleQualityOnly(fullQuality, requestID, cvID, jdID, start)
		persisted, err := o.persist(ctx, ownerID, cvID, jdID, result)
		if err != nil {
			return models.EvaluationResult{}, err
		}
		recordEvaluationMetrics(persisted, start)
		return persisted, nil
	}

	// Step 6: JD ownership + embedding.
	jd, err := o.jdRepo.EnsureJdExists(ctx, ownerID, *jdID)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	if o.embeddings != nil {
		if _, err := o.embeddings.EmbedJdRuleChunks(ctx, *jdID); err != nil {
			log.Printf("orchestrator: embed jd rule chunks for %s: %v", *jdID, err)
		}
	}
	rules, err := o.jdRepo.FindRulesByJdID(ctx, *jdID)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("orchestrator: reload jd rules after embedding: %w", err)
	}
	jd.Rules = rules

	// Step 7: JD Matching Engine over matchable rules only.
	matchRules := toMatchRules(rules)
	jdMatch, err := o.matching.Evaluate(ctx, cvID, matchRules, o.matchCfg)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("orchestrator: jd matching: %w", err)
	}

	ruleSetVersion := fullQuality.RuleSetVersion
	trace := models.Trace{
		RequestID:      requestID,
		CvID:           cvID,
		JdID:           jdID,
		RuleSetVersion: ruleSetVersion,
		TimingsMs:      models.TimingsMs{Total: time.Since(start).Milliseconds()},
	}

	decisionSupport := assembleDecisionSupport(fullQuality, jdMatch.Gaps)

	var mockQuestions []string
	if o.interviewer != nil && len(jdMatch.MatchTrace) > 0 {
		qs, err := o.interviewer.GenerateQuestions(ctx, jdMatch.Gaps, jd.Rules)
		if err != nil {
			log.Printf("orchestrator: mock question generation failed, omitting: %v", err)
		} else {
			mockQuestions = qs
		}
	}

	result := models.EvaluationResult{
		CvQuality:       fullQuality,
		JdMatch:         &jdMatch,
		Gaps:            jdMatch.Gaps,
		Suggestions:     jdMatch.Suggestions,
		MockQuestions:   mockQuestions,
		DecisionSupport: decisionSupport,
		Trace:           trace,
	}

	persisted, err := o.persist(ctx, ownerID, cvID, jdID, result)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	recordEvaluationMetrics(persisted, start)
	return persisted, nil
}

// recordEvaluationMetrics observes total wall-clock duration and tallies
// the final recommendation, the one counter/histogram pair the
// orchestrator itself is responsible for (embedding and judge outcomes
// are recorded by their own adapters).
func recordEvaluationMetrics(result models.EvaluationResult, start time.Time) {
	metrics.EvaluationDuration.Observe(float64(time.Since(start).Milliseconds()))
	metrics.EvaluationRecommendations.WithLabelValues(string(result.DecisionSupport.Recommendation)).Inc()
}

func (o *Orchestrator) assembleQualityOnly(quality models.CvQualityResult, requestID string, cvID uuid.UUID, jdID *uuid.UUID, start time.Time) models.EvaluationResult {
	trace := models.Trace{
		RequestID:      requestID,
		CvID:           cvID,
		JdID:           jdID,
		RuleSetVersion: quality.RuleSetVersion,
		TimingsMs:      models.TimingsMs{Total: time.Since(start).Milliseconds()},
	}
	return models.EvaluationResult{
		CvQuality:       quality,
		DecisionSupport: assembleDecisionSupport(quality, nil),
		Trace:           trace,
	}
}

// persist saves the Evaluation row and stamps the result's evaluationId
// from the assigned row id, per §4.10 step 9. A vector-store or other
// fatal error upstream never reaches here (§7: "no Evaluation row
// persisted").
func (o *Orchestrator) persist(ctx context.Context, ownerID, cvID uuid.UUID, jdID *uuid.UUID, result models.EvaluationResult) (models.EvaluationResult, error) {
	eval := &models.Evaluation{
		ID:      uuid.New(),
		OwnerID: ownerID,
		CvID:    cvID,
		JdID:    jdID,
		Result:  result,
	}
	if o.evalRepo != nil {
		if err := o.evalRepo.Create(ctx, eval); err != nil {
			return models.EvaluationResult{}, fmt.Errorf("orchestrator: persist evaluation: %w", err)
		}
	}
	result.EvaluationID = eval.ID
	return result, nil
}

// assembleDecisionSupport implements §4.10 step 8. #critical/#major/
// #improvement are derived from gaps only — quality.Decision already
// carries the structural/quality signal and is folded in separately
// below, so mixing quality findings into the same tally would double
// count a single failure as both a quality decision and a gap count.
func assembleDecisionSupport(quality models.CvQualityResult, gaps []models.Gap) models.DecisionSupport {
	var critical, major, improvement int
	for _, g := range gaps {
		switch g.Severity {
		case models.GapCriticalSkillGap:
			critical++
		case models.GapMinorGap:
			major++
		case models.GapPartialAdvisory, models.GapAdvisory:
			improvement++
		}
	}

	score := 100 - criticalPenalty*critical - majorPenalty*major - improvementPenalty*improvement
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var recommendation models.Recommendation
	switch {
	case quality.Decision == models.DecisionNotReady || critical > 0:
		recommendation = models.RecommendationNotReady
	case quality.Decision == models.DecisionNeedsImprovement || major > majorNeedsImprove:
		recommendation = models.RecommendationNeedsImprovement
	default:
		recommendation = models.RecommendationReadyToApply
	}

	return models.DecisionSupport{
		ReadinessScore:   score,
		Recommendation:   recommendation,
		CriticalCount:    critical,
		MajorCount:       major,
		ImprovementCount: improvement,
	}
}

func toMatchRules(rules []models.JDRule) []matching.JDRule {
	var out []matching.JDRule
	for _, r := range rules {
		if !r.Matchable() {
			continue
		}
		out = append(out, matching.JDRule{
			ID:           r.ID.String(),
			Type:         r.Type,
			Content:      r.Content,
			Chunks:       toRuleChunks(r.Chunks),
			ChunkContent: toChunkContent(r.Chunks),
		})
	}
	return out
}

func toRuleChunks(chunks []models.JDRuleChunk) []evaluator.RuleChunk {
	out := make([]evaluator.RuleChunk, len(chunks))
	for i, c := range chunks {
		out[i] = evaluator.RuleChunk{ID: c.ID.String(), Order: c.Order, Embedding: c.Embedding}
	}
	return out
}

func toChunkContent(chunks []models.JDRuleChunk) map[string]string {
	out := make(map[string]string, len(chunks))
	for _, c := range chunks {
		out[c.ID.String()] = c.Content
	}
	return out
}

// ListEvaluations implements listEvaluations(ownerId).
func (o *Orchestrator) ListEvaluations(ctx context.Context, ownerID uuid.UUID) ([]models.Evaluation, error) {
	return o.evalRepo.ListByOwner(ctx, ownerID)
}

// GetEvaluationSummary implements getEvaluationSummary(ownerId, evaluationId).
func (o *Orchestrator) GetEvaluationSummary(ctx context.Context, ownerID, evaluationID uuid.UUID) (models.Evaluation, error) {
	return o.evalRepo.GetByOwnerAndID(ctx, ownerID, evaluationID)
}

// DeleteEvaluation implements deleteEvaluation(ownerId, evaluationId).
func (o *Orchestrator) DeleteEvaluation(ctx context.Context, ownerID, evaluationID uuid.UUID) error {
	return o.evalRepo.Delete(ctx, ownerID, evaluationID)
}
