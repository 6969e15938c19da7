// Package similarity holds the pure, side-effect-free primitives shared
// by every other core component: the distance/similarity transform, band
// classification, rule-result aggregation, the candidate tie-break order,
// the partial-to-full upgrade predicate, and the gap severity map.
//
// Nothing here touches a database, an HTTP client, or the clock. Both the
// CV Quality Engine and the JD Matching Engine call into this package
// rather than re-implementing any of it; divergence between the two
// engines on band or tie-break logic is a correctness bug, not a style
// choice.
package similarity

import (
	"sort"
	"strings"

	"cvready/models"
)

// Thresholds gathers the three similarity cut points used by band
// classification. Invariant: 0 ≤ Floor < Low < High ≤ 1.
type Thresholds struct {
	Floor float64
	Low   float64
	High  float64
}

// DistanceToSimilarity converts a cosine distance in [0, 2] (as emitted
// by the vector store) into a similarity in [-1, 1].
func DistanceToSimilarity(d float64) float64 {
	return 1 - d
}

// ClassifyBand discretizes a similarity value against Thresholds.
func ClassifyBand(s float64, t Thresholds) models.Band {
	switch {
	case s < t.Floor:
		return models.BandNoEvidence
	case s >= t.High:
		return models.BandHigh
	case s >= t.Low:
		return models.BandAmbiguous
	default:
		return models.BandLow
	}
}

// AggregateRuleResult folds a multiset of best-bands into the rule-level
// result: empty ⇒ NO_EVIDENCE; any HIGH ⇒ FULL; else any AMBIGUOUS ⇒
// PARTIAL; else any LOW ⇒ NONE; else NO_EVIDENCE.
func AggregateRuleResult(bands []models.Band) models.RuleResult {
	if len(bands) == 0 {
		return models.ResultNoEvidence
	}
	sawAmbiguous, sawLow := false, false
	for _, b := range bands {
		switch b {
		case models.BandHigh:
			return models.ResultFull
		case models.BandAmbiguous:
			sawAmbiguous = true
		case models.BandLow:
			sawLow = true
		}
	}
	switch {
	case sawAmbiguous:
		return models.ResultPartial
	case sawLow:
		return models.ResultNone
	default:
		return models.ResultNoEvidence
	}
}

// SectionWeight is the soft weight applied to a section when ranking
// candidates, plus the +0.10 boost when the section appears in a rule's
// appliesToSections list.
var baseSectionWeight = map[models.SectionType]float64{
	models.SectionExperience: 1.15,
	models.SectionProjects:   1.15,
	models.SectionSkills:     1.05,
	models.SectionActivities: 1.00,
	models.SectionSummary:    0.90,
	models.SectionEducation:  0.90,
}

const appliesToBoost = 0.10

func SectionWeight(section models.SectionType, appliesTo []models.SectionType) float64 {
	w := baseSectionWeight[section]
	for _, s := range appliesTo {
		if s == section {
			return w + appliesToBoost
		}
	}
	return w
}

// sectionPriority breaks ties when weights are equal; lower wins.
var sectionPriority = map[models.SectionType]int{
	models.SectionExperience: 1,
	models.SectionProjects:   2,
	models.SectionSkills:     3,
	models.SectionActivities: 4,
	models.SectionEducation:  5,
	models.SectionSummary:    6,
}

func SectionPriority(section models.SectionType) int {
	if p, ok := sectionPriority[section]; ok {
		return p
	}
	// Unknown sections sort last, after SUMMARY.
	return len(sectionPriority) + 1
}

// SortCandidates imposes the sole tie-break order used everywhere:
// similarity desc, then section weight desc, then section priority asc,
// then chunk order asc, then chunk id asc (lexicographic). It is a total
// order — for any permutation of the input the output is identical — and
// the sort is performed with sort.SliceStable purely for defensiveness;
// the comparator itself never reports two distinct candidates as equal
// unless their ids are equal too.
func SortCandidates(candidates []models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.SectionWeight != b.SectionWeight {
			return a.SectionWeight > b.SectionWeight
		}
		pa, pb := SectionPriority(a.SectionType), SectionPriority(b.SectionType)
		if pa != pb {
			return pa < pb
		}
		if a.ChunkOrder != b.ChunkOrder {
			return a.ChunkOrder < b.ChunkOrder
		}
		return a.CvChunkID.String() < b.CvChunkID.String()
	})
}

// UpgradeConfig parametrizes the partial→full upgrade predicate.
type UpgradeConfig struct {
	Margin           float64
	AllowedSections  []models.SectionType
}

// CanUpgradePartialToFull implements §4.1's upgrade predicate: eligible
// iff the best candidate's section is in the allowed set, the best
// similarity is within Margin of High, and at least two candidates
// (across the whole rule) have similarity ≥ Low.
func CanUpgradePartialToFull(best models.Candidate, thresholds Thresholds, cfg UpgradeConfig, candidatesAtOrAboveLow int) bool {
	allowed := false
	for _, s := range cfg.AllowedSections {
		if s == best.SectionType {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	if best.Similarity < thresholds.High-cfg.Margin {
		return false
	}
	return candidatesAtOrAboveLow >= 2
}

// SeverityMap implements §4.1's band × ruleType → gap severity table.
func SeverityMap(band models.Band, ruleType models.RuleType) models.GapSeverity {
	switch band {
	case models.BandHigh:
		return models.GapNone
	case models.BandNoEvidence, models.BandLow:
		if ruleType == models.RuleMustHave {
			return models.GapCriticalSkillGap
		}
		return models.GapMinorGap
	case models.BandAmbiguous:
		if ruleType == models.RuleMustHave {
			return models.GapPartialAdvisory
		}
		return models.GapAdvisory
	default:
		return models.GapNone
	}
}

// SimpleHash is the deterministic rolling hash used by the Suggestion
// Generator to pick a message template. It operates over UTF-16 code
// units (not runes, not bytes) to match the exact behavioral contract:
// h = ((h<<5) - h + c) & 0xFFFFFFFF for each code unit c, result = |h|.
// Any substitute hash changes suggestion wording and is a compatibility
// break — do not "simplify" this to a rune-based loop.
func SimpleHash(s string) uint32 {
	var h int64
	for _, unit := range utf16Units(s) {
		h = ((h << 5) - h + int64(unit)) & 0xFFFFFFFF
	}
	signed := int64(int32(uint32(h)))
	if signed < 0 {
		signed = -signed
	}
	return uint32(signed)
}

// utf16Units encodes s the way JavaScript's String iteration would,
// since the original rolling hash was defined over UTF-16 code units.
func utf16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r <= 0xFFFF {
			units = append(units, uint16(r))
			continue
		}
		r -= 0x10000
		units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
	}
	return units
}

// NormalizeWhitespace collapses runs of whitespace, used by the concept
// label extractor before tokenizing.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
