// Package quality implements the CV Quality Engine (§4.6): structural
// pattern-predicate rules plus, optionally, semantic quality rules
// delegated to the shared Semantic Evaluator, folded into a readiness
// decision and category scores.
package quality

import (
	"context"
	"fmt"

	"cvready/evaluator"
	"cvready/models"
)

// RuleSetSource supplies the semantic quality rules for one named rule
// set, already carrying their embeddings (populated by the Embedding
// Adapter before this engine is invoked with includeSemantic=true).
type RuleSetSource interface {
	QualityRules(ctx context.Context, ruleSetKey string) ([]models.CvQualityRule, int /*version*/, error)
}

// Engine is the CV Quality Engine.
type Engine struct {
	Structural []StructuralRule
	Evaluator  *evaluator.Evaluator
	RuleSets   RuleSetSource
	Config     evaluator.Config
	RuleSetKey string
}

func New(ev *evaluator.Evaluator, ruleSets RuleSetSource, ruleSetKey string, cfg evaluator.Config) *Engine {
	return &Engine{Structural: DefaultStructuralRules(), Evaluator: ev, RuleSets: ruleSets, Config: cfg, RuleSetKey: ruleSetKey}
}

// Evaluate runs every structural rule and, if includeSemantic, delegates
// named semantic quality rules to the Semantic Evaluator, then applies
// the readiness decision rule and computes category scores.
func (e *Engine) Evaluate(ctx context.Context, cv models.CV, includeSemantic bool) (models.CvQualityResult, error) {
	findings := make([]models.Finding, 0, len(e.Structural))
	for _, rule := range e.Structural {
		findings = append(findings, rule.Evaluate(cv))
	}

	ruleSetVersion := 0
	if includeSemantic && e.RuleSets != nil {
		rules, version, err := e.RuleSets.QualityRules(ctx, e.RuleSetKey)
		if err != nil {
			return models.CvQualityResult{}, fmt.Errorf("quality: load rule set %s: %w", e.RuleSetKey, err)
		}
		ruleSetVersion = version

		evalRules := toEvaluatorRules(rules)
		out, err := e.Evaluator.Evaluate(ctx, cv.ID, evalRules, e.Config)
		if err != nil {
			return models.CvQualityResult{}, fmt.Errorf("quality: semantic evaluation failed: %w", err)
		}
		for i, result := range out.Results {
			findings = append(findings, toFinding(rules[i], result))
		}
	}

	decision := decide(findings)
	scores := scoreFindings(findings)

	return models.CvQualityResult{Decision: decision, Findings: findings, Scores: scores, RuleSetVersion: ruleSetVersion}, nil
}

func toEvaluatorRules(rules []models.CvQualityRule) []evaluator.Rule {
	out := make([]evaluator.Rule, len(rules))
	for i, r := range rules {
		chunks := make([]evaluator.RuleChunk, len(r.Chunks))
		for j, c := range r.Chunks {
			chunks[j] = evaluator.RuleChunk{ID: c.ID, Order: c.Order, Embedding: c.Embedding}
		}
		out[i] = evaluator.Rule{
			ID:                r.RuleKey,
			Key:               r.RuleKey,
			Content:           r.RuleKey,
			Type:              r.Category,
			AppliesToSections: r.AppliesToSections,
			Chunks:            chunks,
		}
	}
	return out
}

func toFinding(rule models.CvQualityRule, result models.RuleEvidence) models.Finding {
	passed := result.Result == models.ResultFull || result.Result == models.ResultPartial

	var reason string
	var evidence []string
	if result.BestMatch != nil {
		reason = fmt.Sprintf("best semantic match similarity=%.2f band=%s", result.BestMatch.Similarity, result.BestMatch.Band)
		evidence = []string{result.BestMatch.Content}
	} else {
		reason = "no semantic evidence found in any section"
		if closest := closestSection(rule); closest != "" {
			evidence = []string{string(closest)}
		}
	}

	return models.Finding{
		RuleID:   rule.RuleKey,
		Category: rule.Category,
		Passed:   passed,
		Severity: rule.Severity,
		Reason:   reason,
		Evidence: evidence,
	}
}

func closestSection(rule models.CvQualityRule) models.SectionType {
	if len(rule.AppliesToSections) > 0 {
		return rule.AppliesToSections[0]
	}
	return ""
}

// decide implements §4.6 step 4: any failed MUST_HAVE ⇒ NOT_READY; else
// more than 2 failed NICE_TO_HAVE or more than 3 failed BEST_PRACTICE ⇒
// NEEDS_IMPROVEMENT; else READY.
func decide(findings []models.Finding) models.Decision {
	var mustFail, niceFail, bestFail int
	for _, f := range findings {
		if f.Passed {
			continue
		}
		switch f.Category {
		case models.RuleMustHave:
			mustFail++
		case models.RuleNiceToHave:
			niceFail++
		case models.RuleBestPractice:
			bestFail++
		}
	}
	if mustFail > 0 {
		return models.DecisionNotReady
	}
	if niceFail > 2 || bestFail > 3 {
		return models.DecisionNeedsImprovement
	}
	return models.DecisionReady
}

// scoreFindings implements §4.6 step 5: 100 × passed/total per category
// (100 when total=0), weighted 0.5/0.3/0.2 for total, rounded to 2 dp.
func scoreFindings(findings []models.Finding) models.CategoryScores {
	var mustPass, mustTotal, nicePass, niceTotal, bestPass, bestTotal int
	for _, f := range findings {
		switch f.Category {
		case models.RuleMustHave:
			mustTotal++
			if f.Passed {
				mustPass++
			}
		case models.RuleNiceToHave:
			niceTotal++
			if f.Passed {
				nicePass++
			}
		case models.RuleBestPractice:
			bestTotal++
			if f.Passed {
				bestPass++
			}
		}
	}

	must := categoryScore(mustPass, mustTotal)
	nice := categoryScore(nicePass, niceTotal)
	best := categoryScore(bestPass, bestTotal)
	total := round2(0.5*must + 0.3*nice + 0.2*best)

	return models.CategoryScores{MustHave: round2(must), NiceToHave: round2(nice), BestPractice: round2(best), Total: total}
}

func categoryScore(pass, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * float64(pass) / float64(total)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
