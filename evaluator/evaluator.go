// Package evaluator implements the Semantic Evaluator (§4.5), the single
// shared core both the CV Quality Engine and the JD Matching Engine call
// into. It is exposed as one interface with two entry points so neither
// engine can duplicate band or tie-break logic — per §9's design note,
// any divergence between the two would be a correctness bug, not a style
// choice.
//
// There is no teacher equivalent for this exact shape (meritdraft-backend
// has no shared scoring core shared across two call sites); it is built
// fresh in the teacher's service-struct idiom, composing the
// vectorstore.Store and similarity packages the way
// service/draft_service.go composes its repositories.
package evaluator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cvready/models"
	"cvready/similarity"
	"cvready/vectorstore"
)

// RuleChunk is the generic, engine-agnostic shape the evaluator needs
// from either a CvQualityRule chunk or a JDRuleChunk.
type RuleChunk struct {
	ID        string
	Order     int
	Embedding []float32
}

// Rule is the generic, engine-agnostic shape of either a CvQualityRule or
// a JDRule, as far as the Semantic Evaluator is concerned.
type Rule struct {
	ID                string
	Key               string
	Content           string
	Type              models.RuleType
	AppliesToSections []models.SectionType
	Chunks            []RuleChunk
}

// Config parametrizes one evaluator run.
type Config struct {
	TopK       int
	Thresholds similarity.Thresholds
	Upgrade    similarity.UpgradeConfig
}

// Evaluator composes the Vector Store Adapter with the pure Similarity
// Contract to produce per-rule evidence.
type Evaluator struct {
	Store vectorstore.Store
}

func New(store vectorstore.Store) *Evaluator {
	return &Evaluator{Store: store}
}

// Evaluate runs every rule's chunks through the vector store and
// similarity contract, returning per-rule evidence plus a tally. It is
// the single implementation behind both evaluateCvQualityRules and
// evaluateJdRules.
func (e *Evaluator) Evaluate(ctx context.Context, cvID uuid.UUID, rules []Rule, cfg Config) (models.EvaluatorOutput, error) {
	// Batch every chunk across every rule into one TopKBatch call;
	// §4.2/§5 require the batch form to be equivalent to independent topK
	// calls, so fanning out per-rule here would be correct but strictly
	// more store calls for no behavioral difference.
	embeddings := make(map[string][]float32)
	for _, rule := range rules {
		for _, chunk := range rule.Chunks {
			embeddings[chunk.ID] = chunk.Embedding
		}
	}

	fetchK := cfg.TopK * 2
	if fetchK <= 0 {
		fetchK = 2
	}

	candidatesByChunk, err := e.Store.TopKBatch(ctx, embeddings, cvID, fetchK)
	if err != nil {
		return models.EvaluatorOutput{}, fmt.Errorf("evaluator: vector store batch query failed: %w", err)
	}

	results := make([]models.RuleEvidence, 0, len(rules))
	summary := models.EvaluatorSummary{}

	for _, rule := range rules {
		evidence := e.evaluateRule(rule, candidatesByChunk, cfg)
		results = append(results, evidence)
		summary.Total++
		switch evidence.Result {
		case models.ResultFull:
			summary.Full++
		case models.ResultPartial:
			summary.Partial++
		case models.ResultNone:
			summary.None++
		default:
			summary.NoEvidence++
		}
	}

	return models.EvaluatorOutput{Results: results, Summary: summary}, nil
}

func (e *Evaluator) evaluateRule(rule Rule, candidatesByChunk map[string][]models.Candidate, cfg Config) models.RuleEvidence {
	chunkEvidence := make([]models.ChunkEvidence, 0, len(rule.Chunks))
	bestBands := make([]models.Band, 0, len(rule.Chunks))

	var overallBest *models.Candidate
	atOrAboveLow := 0

	for _, chunk := range rule.Chunks {
		raw := candidatesByChunk[chunk.ID]

		survivors := make([]models.Candidate, 0, len(raw))
		for _, c := range raw {
			c.Similarity = similarity.DistanceToSimilarity(c.CosineDistance)
			if c.Similarity < cfg.Thresholds.Floor {
				continue
			}
			c.SectionWeight = similarity.SectionWeight(c.SectionType, rule.AppliesToSections)
			c.Band = similarity.ClassifyBand(c.Similarity, cfg.Thresholds)
			survivors = append(survivors, c)
			if c.Similarity >= cfg.Thresholds.Low {
				atOrAboveLow++
			}
		}

		similarity.SortCandidates(survivors)
		if cfg.TopK > 0 && len(survivors) > cfg.TopK {
			survivors = survivors[:cfg.TopK]
		}

		ce := models.ChunkEvidence{RuleChunkID: chunk.ID, Candidates: survivors, BestBand: models.BandNoEvidence}
		if len(survivors) > 0 {
			best := survivors[0]
			ce.BestCandidate = &best
			ce.BestBand = best.Band
			if overallBest == nil || isPreferredCandidate(best, *overallBest) {
				b := best
				overallBest = &b
			}
		}
		chunkEvidence = append(chunkEvidence, ce)
		bestBands = append(bestBands, ce.BestBand)
	}

	result := similarity.AggregateRuleResult(bestBands)
	upgraded := false
	if result == models.ResultPartial && overallBest != nil {
		if similarity.CanUpgradePartialToFull(*overallBest, cfg.Thresholds, cfg.Upgrade, atOrAboveLow) {
			result = models.ResultFull
			upgraded = true
		}
	}

	return models.RuleEvidence{
		RuleID:         rule.ID,
		RuleKey:        rule.Key,
		RuleContent:    rule.Content,
		RuleType:       rule.Type,
		ChunkEvidence:  chunkEvidence,
		Result:         result,
		BestMatch:      overallBest,
		CandidateCount: atOrAboveLow,
		Upgraded:       upgraded,
	}
}

// isPreferredCandidate reports whether a sorts before b under the same
// total order as similarity.SortCandidates, so "overall best across
// chunks" agrees exactly with "best within one chunk's candidate list".
func isPreferredCandidate(a, b models.Candidate) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.SectionWeight != b.SectionWeight {
		return a.SectionWeight > b.SectionWeight
	}
	pa, pb := similarity.SectionPriority(a.SectionType), similarity.SectionPriority(b.SectionType)
	if pa != pb {
		return pa < pb
	}
	if a.ChunkOrder != b.ChunkOrder {
		return a.ChunkOrder < b.ChunkOrder
	}
	return a.CvChunkID.String() < b.CvChunkID.String()
}
