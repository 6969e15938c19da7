// Package gap implements the Gap Detector (§4.8): it walks a JD match
// trace and, per rule-chunk evidence, emits one Gap wherever the
// Similarity Contract's band × rule-type severity map returns anything
// other than NONE, with a deterministic, percentage-rounded reason
// string.
//
// Like the evaluator and matching packages, this has no direct teacher
// equivalent — meritdraft-backend never produces a structured shortfall
// report — so it is grounded on composing already-grounded pieces: the
// matching package's MatchTraceEntry shape and the similarity package's
// SeverityMap, in the same small-package, pure-function style as
// similarity/contract.go.
package gap

import (
	"fmt"

	"cvready/models"
	"cvready/similarity"
)

const maxSnippetLen = 100

// Detect walks the match trace in order and, for every rule that did
// not reach an overall FULL match, walks its rule-chunk evidence and
// emits a gap wherever the severity map returns non-NONE. It returns
// the gaps plus a severity-count summary.
func Detect(trace []models.MatchTraceEntry) ([]models.Gap, models.GapSummary) {
	var gaps []models.Gap
	summary := models.GapSummary{}
	n := 0

	for _, entry := range trace {
		if entry.MatchStatus == models.MatchFull {
			continue
		}

		for _, ce := range entry.ChunkEvidence {
			severity := similarity.SeverityMap(ce.BestBand, entry.RuleType)
			if severity == models.GapNone {
				continue
			}

			n++
			g := models.Gap{
				GapID:       fmt.Sprintf("GAP-%04d", n),
				RuleID:      entry.RuleID,
				RuleKey:     entry.RuleID,
				RuleChunkID: ce.RuleChunkID,
				RuleContent: entry.RuleContent,
				Band:        ce.BestBand,
				Severity:    severity,
				Reason:      reasonFor(entry.RuleContent, ce, ce.BestBand),
			}
			if ce.BestCandidate != nil {
				g.CvChunkID = ce.BestCandidate.CvChunkID.String()
				g.Snippet = truncate(ce.BestCandidate.Content, maxSnippetLen)
				g.Section = ce.BestCandidate.SectionType
				g.Similarity = ce.BestCandidate.Similarity
			}

			gaps = append(gaps, g)
			tally(&summary, severity)
		}
	}

	return gaps, summary
}

func tally(s *models.GapSummary, severity models.GapSeverity) {
	switch severity {
	case models.GapCriticalSkillGap:
		s.CriticalSkillGap++
	case models.GapMinorGap:
		s.MinorGap++
	case models.GapPartialAdvisory:
		s.PartialAdvisory++
	case models.GapAdvisory:
		s.Advisory++
	}
}

func reasonFor(ruleContent string, ce models.ChunkEvidence, band models.Band) string {
	if ce.BestCandidate == nil {
		return fmt.Sprintf("no matching content found anywhere in the CV for %q", ruleContent)
	}

	pct := int(ce.BestCandidate.Similarity*100 + 0.5)
	switch band {
	case models.BandAmbiguous:
		return fmt.Sprintf("best match in %s section at %d%% similarity is ambiguous and was not confirmed", ce.BestCandidate.SectionType, pct)
	default:
		return fmt.Sprintf("best match in %s section at %d%% similarity falls below the required threshold", ce.BestCandidate.SectionType, pct)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
