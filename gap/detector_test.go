package gap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cvready/models"
)

func TestDetect_SkipsFullMatches(t *testing.T) {
	trace := []models.MatchTraceEntry{
		{RuleID: "r1", RuleType: models.RuleMustHave, MatchStatus: models.MatchFull, ChunkEvidence: []models.ChunkEvidence{
			{BestBand: models.BandLow},
		}},
	}
	gaps, summary := Detect(trace)
	assert.Empty(t, gaps)
	assert.Equal(t, models.GapSummary{}, summary)
}

func TestDetect_NoEvidenceMustHaveIsCritical(t *testing.T) {
	trace := []models.MatchTraceEntry{
		{
			RuleID: "r1", RuleType: models.RuleMustHave, RuleContent: "Kubernetes", MatchStatus: models.MatchNone,
			ChunkEvidence: []models.ChunkEvidence{{BestBand: models.BandNoEvidence}},
		},
	}
	gaps, summary := Detect(trace)
	assert.Len(t, gaps, 1)
	assert.Equal(t, "GAP-0001", gaps[0].GapID)
	assert.Equal(t, models.GapCriticalSkillGap, gaps[0].Severity)
	assert.Equal(t, 1, summary.CriticalSkillGap)
	assert.Contains(t, gaps[0].Reason, "Kubernetes")
}

func TestDetect_AmbiguousNiceToHaveIsAdvisory(t *testing.T) {
	trace := []models.MatchTraceEntry{
		{
			RuleID:      "r2",
			RuleType:    models.RuleNiceToHave,
			MatchStatus: models.MatchPartial,
			ChunkEvidence: []models.ChunkEvidence{
				{
					BestBand: models.BandAmbiguous,
					BestCandidate: &models.Candidate{
						SectionType: models.SectionSkills,
						Similarity:  0.55,
						Band:        models.BandAmbiguous,
					},
				},
			},
		},
	}
	gaps, summary := Detect(trace)
	assert.Len(t, gaps, 1)
	assert.Equal(t, models.GapAdvisory, gaps[0].Severity)
	assert.Equal(t, 1, summary.Advisory)
	assert.Contains(t, gaps[0].Reason, "55%")
}

func TestDetect_GapIDsAreSequentialAcrossSkippedFullEntries(t *testing.T) {
	trace := []models.MatchTraceEntry{
		{RuleID: "r1", RuleType: models.RuleMustHave, MatchStatus: models.MatchFull, ChunkEvidence: []models.ChunkEvidence{{BestBand: models.BandHigh}}},
		{RuleID: "r2", RuleType: models.RuleMustHave, MatchStatus: models.MatchNone, ChunkEvidence: []models.ChunkEvidence{{BestBand: models.BandLow}}},
		{RuleID: "r3", RuleType: models.RuleMustHave, MatchStatus: models.MatchNone, ChunkEvidence: []models.ChunkEvidence{{BestBand: models.BandLow}}},
	}
	gaps, _ := Detect(trace)
	assert.Len(t, gaps, 2)
	assert.Equal(t, "GAP-0001", gaps[0].GapID)
	assert.Equal(t, "GAP-0002", gaps[1].GapID)
}

func TestDetect_SnippetTruncatedTo100Chars(t *testing.T) {
	long := strings.Repeat("x", 150)
	trace := []models.MatchTraceEntry{
		{
			RuleID: "r1", RuleType: models.RuleMustHave, MatchStatus: models.MatchNone,
			ChunkEvidence: []models.ChunkEvidence{{
				BestBand:      models.BandLow,
				BestCandidate: &models.Candidate{Content: long, SectionType: models.SectionSkills},
			}},
		},
	}
	gaps, _ := Detect(trace)
	assert.Len(t, gaps[0].Snippet, 100)
}
