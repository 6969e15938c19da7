package suggestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cvready/models"
	"cvready/similarity"
)

func TestGenerate_GapWithoutEvidenceIsMissing(t *testing.T) {
	gaps := []models.Gap{
		{RuleChunkID: "rc1", RuleContent: "Kubernetes orchestration experience", Band: models.BandNoEvidence, Severity: models.GapCriticalSkillGap},
	}
	out := Generate(gaps, nil)
	assert.Len(t, out, 1)
	assert.Equal(t, models.SuggestionMissing, out[0].Type)
	assert.Equal(t, "SUG-0001", out[0].SuggestionID)
	assert.Equal(t, models.ActionAddBullet, out[0].Action)
}

func TestGenerate_GapWithEvidenceIsPartial(t *testing.T) {
	gaps := []models.Gap{
		{RuleChunkID: "rc1", RuleContent: "Led cross-functional teams", Band: models.BandAmbiguous, Severity: models.GapAdvisory, CvChunkID: "cv-1"},
	}
	out := Generate(gaps, nil)
	assert.Len(t, out, 1)
	assert.Equal(t, models.SuggestionPartial, out[0].Type)
	assert.Equal(t, models.ActionExpandBullet, out[0].Action)
}

func TestGenerate_MetricKeywordAlwaysWinsAction(t *testing.T) {
	gaps := []models.Gap{
		{RuleChunkID: "rc1", RuleContent: "Demonstrate measurable impact with quantifiable metrics", Band: models.BandNoEvidence, Severity: models.GapCriticalSkillGap},
	}
	out := Generate(gaps, nil)
	assert.Equal(t, models.ActionAddMetric, out[0].Action)
}

func TestGenerate_DedupesByRuleChunkIdGapFirst(t *testing.T) {
	gaps := []models.Gap{
		{RuleChunkID: "rc1", RuleContent: "Go backend development", Band: models.BandLow, Severity: models.GapCriticalSkillGap},
	}
	trace := []models.MatchTraceEntry{
		{
			RuleID: "r1", RuleType: models.RuleMustHave, MatchStatus: models.MatchPartial,
			ChunkEvidence: []models.ChunkEvidence{
				{RuleChunkID: "rc1", BestBand: models.BandAmbiguous, BestCandidate: &models.Candidate{Content: "some Go code"}},
				{RuleChunkID: "rc2", BestBand: models.BandAmbiguous, BestCandidate: &models.Candidate{Content: "some other evidence"}},
			},
		},
	}
	out := Generate(gaps, trace)
	// rc1 covered once by the gap (not duplicated by the EXPAND_BULLET pass); rc2 only by EXPAND_BULLET.
	assert.Len(t, out, 2)
	ruleChunkIDs := map[string]int{}
	for _, s := range out {
		ruleChunkIDs[s.RuleChunkID]++
	}
	assert.Equal(t, 1, ruleChunkIDs["rc1"])
	assert.Equal(t, 1, ruleChunkIDs["rc2"])
}

func TestConceptLabel_ShortContentVerbatim(t *testing.T) {
	assert.Equal(t, "Go experience", conceptLabel("Go experience"))
}

func TestConceptLabel_LongContentTopThreeTokens(t *testing.T) {
	long := "The candidate must demonstrate strong proficiency in distributed systems design, distributed systems debugging, and distributed systems scaling at a production level"
	label := conceptLabel(long)
	assert.Equal(t, "distributed, systems, candidate", label)
}

func TestMessageFor_IsDeterministicAndMatchesHashContract(t *testing.T) {
	label := "distributed, systems, scaling"
	first := messageFor(models.ActionAddBullet, models.SuggestionMissing, label)
	second := messageFor(models.ActionAddBullet, models.SuggestionMissing, label)
	assert.Equal(t, first, second)

	idx := int(similarity.SimpleHash(label) % uint32(len(missingTemplates)))
	expected := strings.ReplaceAll(missingTemplates[idx], "{label}", label)
	assert.Equal(t, expected, first)
}
