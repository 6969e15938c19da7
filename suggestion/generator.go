// Package suggestion implements the Suggestion Generator (§4.9): it
// turns gaps into MISSING/PARTIAL suggestions and AMBIGUOUS-band partial
// rule evidence into EXPAND_BULLET suggestions, deduplicated by
// rule-chunk id with gap-first priority, each carrying a deterministic
// message chosen via the similarity package's simpleHash contract.
//
// Like gap and matching, this has no teacher equivalent; it composes
// models.Gap / models.MatchTraceEntry (already grounded) the way the
// rest of the evaluation pipeline does, in the small-package,
// pure-function style of similarity/contract.go.
package suggestion

import (
	"fmt"
	"sort"
	"strings"

	"cvready/models"
	"cvready/similarity"
)

// Generate produces the deduplicated, deterministically-ordered
// suggestion list for one JD match run.
func Generate(gaps []models.Gap, trace []models.MatchTraceEntry) []models.Suggestion {
	var out []models.Suggestion
	seen := make(map[string]bool) // rule-chunk id -> already covered

	for _, g := range gaps {
		if g.Severity == models.GapNone {
			continue
		}
		sType := models.SuggestionMissing
		if g.Band != models.BandNoEvidence && g.Band != models.BandLow {
			sType = models.SuggestionPartial
		}
		out = append(out, build(sType, g.RuleChunkID, g.RuleContent, g.CvChunkID != ""))
		if g.RuleChunkID != "" {
			seen[g.RuleChunkID] = true
		}
	}

	for _, entry := range trace {
		if entry.MatchStatus != models.MatchPartial {
			continue
		}
		for _, ce := range entry.ChunkEvidence {
			if ce.BestBand != models.BandAmbiguous || ce.BestCandidate == nil {
				continue
			}
			if seen[ce.RuleChunkID] {
				continue // gap-first priority
			}
			seen[ce.RuleChunkID] = true
			out = append(out, build(models.SuggestionExpandBullet, ce.RuleChunkID, entry.RuleContent, true))
		}
	}

	for i, s := range out {
		s.SuggestionID = fmt.Sprintf("SUG-%04d", i+1)
		out[i] = s
	}

	return out
}

func build(sType models.SuggestionType, ruleChunkID, ruleContent string, hasTargetChunk bool) models.Suggestion {
	action := actionFor(ruleContent, hasTargetChunk)
	label := conceptLabel(ruleContent)
	return models.Suggestion{
		Type:         sType,
		Action:       action,
		RuleChunkID:  ruleChunkID,
		ConceptLabel: label,
		Message:      messageFor(action, sType, label),
	}
}

// actionFor implements §4.9's action-type selection: a metric or link
// keyword in the rule content wins outright; otherwise the presence of
// an existing target chunk decides between adding a new bullet and
// expanding one that already exists.
func actionFor(ruleContent string, hasTargetChunk bool) models.ActionType {
	lower := strings.ToLower(ruleContent)
	switch {
	case strings.Contains(lower, "metric") || strings.Contains(lower, "number") || strings.Contains(lower, "quantif"):
		return models.ActionAddMetric
	case strings.Contains(lower, "link") || strings.Contains(lower, "url") || strings.Contains(lower, "github") || strings.Contains(lower, "linkedin"):
		return models.ActionAddLink
	case hasTargetChunk:
		return models.ActionExpandBullet
	default:
		return models.ActionAddBullet
	}
}

const conceptLabelVerbatimLimit = 50

// stopwords is the fixed filter set for concept-label extraction. It
// deliberately excludes generic career terms (cv, resume, experience,
// skill, ...) since those can still carry useful signal in a short rule
// fragment, unlike ordinary function words.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "in": true,
	"to": true, "for": true, "with": true, "on": true, "is": true, "are": true,
	"as": true, "by": true, "at": true, "from": true, "that": true, "this": true,
	"it": true, "or": true, "be": true, "has": true, "have": true, "will": true,
	"you": true, "your": true, "should": true, "must": true, "can": true,
}

// conceptLabel implements §4.9's extraction rule: short rule content is
// used verbatim; longer content is tokenized, stopword-filtered, and
// reduced to its top-3 most frequent tokens (ties broken alphabetically).
func conceptLabel(ruleContent string) string {
	trimmed := strings.TrimSpace(ruleContent)
	if len(trimmed) <= conceptLabelVerbatimLimit {
		return trimmed
	}

	normalized := similarity.NormalizeWhitespace(strings.ToLower(trimmed))
	freq := make(map[string]int)
	for _, field := range strings.Fields(normalized) {
		token := stripNonAlphanumeric(field)
		if token == "" || stopwords[token] {
			continue
		}
		freq[token]++
	}

	type tokenCount struct {
		token string
		count int
	}
	tokens := make([]tokenCount, 0, len(freq))
	for t, c := range freq {
		tokens = append(tokens, tokenCount{t, c})
	}
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].count != tokens[j].count {
			return tokens[i].count > tokens[j].count
		}
		return tokens[i].token < tokens[j].token
	})

	limit := 3
	if len(tokens) < limit {
		limit = len(tokens)
	}
	top := make([]string, limit)
	for i := 0; i < limit; i++ {
		top[i] = tokens[i].token
	}
	return strings.Join(top, ", ")
}

func stripNonAlphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var missingTemplates = []string{
	"Add a bullet point covering {label} — no matching content was found in the CV.",
	"Your CV doesn't mention {label} anywhere; add a concrete example to close this gap.",
	"Consider adding an entry that demonstrates {label}, since none was found.",
}

var partialTemplates = []string{
	"Strengthen the coverage of {label} — the closest match was inconclusive.",
	"Make {label} more explicit; the current phrasing was only a partial match.",
	"Clarify how you demonstrated {label}, since the evidence found was ambiguous.",
}

var metricTemplates = []string{
	"Quantify {label} with a specific number or percentage.",
	"Add a measurable outcome to your {label} bullet (e.g. a percentage, count, or duration).",
	"Back up {label} with a concrete metric to make the impact clear.",
}

// messageFor implements §4.9's template selection: an ADD_METRIC action
// always draws from the METRIC array regardless of suggestion type;
// otherwise MISSING suggestions draw from MISSING and everything else
// (PARTIAL, EXPAND_BULLET) draws from PARTIAL. The array index is
// simpleHash(conceptLabel) mod len(templates), never random.
func messageFor(action models.ActionType, sType models.SuggestionType, label string) string {
	var templates []string
	switch {
	case action == models.ActionAddMetric:
		templates = metricTemplates
	case sType == models.SuggestionMissing:
		templates = missingTemplates
	default:
		templates = partialTemplates
	}

	idx := int(similarity.SimpleHash(label) % uint32(len(templates)))
	return strings.ReplaceAll(templates[idx], "{label}", label)
}
