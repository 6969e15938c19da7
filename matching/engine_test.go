package matching

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvready/evaluator"
	"cvready/judge"
	"cvready/models"
	"cvready/similarity"
)

type fakeVectorStore struct {
	byChunk map[string][]models.Candidate
}

func (f *fakeVectorStore) TopK(_ context.Context, _ []float32, _ uuid.UUID, _ int) ([]models.Candidate, error) {
	return nil, nil
}

func (f *fakeVectorStore) TopKBatch(_ context.Context, embeddings map[string][]float32, _ uuid.UUID, _ int) (map[string][]models.Candidate, error) {
	out := make(map[string][]models.Candidate, len(embeddings))
	for id := range embeddings {
		out[id] = f.byChunk[id]
	}
	return out, nil
}

func cand(idSuffix string, similarity float64, section models.SectionType, content string) models.Candidate {
	return models.Candidate{
		CvChunkID:      uuid.MustParse("00000000-0000-0000-0000-00000000000" + idSuffix),
		CosineDistance: 1 - similarity,
		Similarity:     similarity,
		SectionType:    section,
		Content:        content,
	}
}

// fakeJudger classifies FULL when the excerpt contains "expert", NONE
// otherwise, and never errors.
type fakeJudger struct{}

func (fakeJudger) Judge(_ context.Context, in judge.Input) models.JudgeOutcome {
	status := models.JudgeNone
	if contains(in.CvChunkContent, "expert") {
		status = models.JudgeFull
	}
	return models.JudgeOutcome{Used: true, Result: &models.JudgeVerdict{Status: status, Confidence: models.ConfidenceHigh}}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Evaluator = evaluator.Config{
		TopK:       5,
		Thresholds: similarity.Thresholds{Floor: 0.15, Low: 0.40, High: 0.75},
		Upgrade: similarity.UpgradeConfig{
			Margin:          0.05,
			AllowedSections: []models.SectionType{models.SectionExperience, models.SectionProjects},
		},
	}
	return cfg
}

func TestEvaluate_DirectHighBandIsFull(t *testing.T) {
	store := &fakeVectorStore{byChunk: map[string][]models.Candidate{
		"rc1": {cand("1", 0.85, models.SectionSkills, "Go, Python, Kubernetes")},
	}}
	ev := evaluator.New(store)
	adapter := judge.NewAdapter(fakeJudger{}, true)
	eng := New(ev, adapter)

	rule := JDRule{ID: "r1", Type: models.RuleMustHave, Content: "Go experience", Chunks: []evaluator.RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	result, err := eng.Evaluate(context.Background(), uuid.New(), []JDRule{rule}, testConfig())
	require.NoError(t, err)
	require.Len(t, result.MatchTrace, 1)
	assert.Equal(t, models.MatchFull, result.MatchTrace[0].MatchStatus)
}

func TestEvaluate_NoSectionUpgradeWhenJudgeReturnsNone(t *testing.T) {
	store := &fakeVectorStore{byChunk: map[string][]models.Candidate{
		"rc1": {cand("1", 0.55, models.SectionProjects, "Led a small migration project")},
	}}
	ev := evaluator.New(store)
	adapter := judge.NewAdapter(fakeJudger{}, true) // no "expert" in content -> judge returns NONE
	eng := New(ev, adapter)

	rule := JDRule{ID: "r1", Type: models.RuleMustHave, Content: "Led technical migrations", Chunks: []evaluator.RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	result, err := eng.Evaluate(context.Background(), uuid.New(), []JDRule{rule}, testConfig())
	require.NoError(t, err)

	entry := result.MatchTrace[0]
	// Judge explicitly returned NONE for the best candidate, so the
	// section upgrade must NOT fire even though the section qualifies.
	assert.False(t, entry.SectionUpgradeApplied)
	assert.Equal(t, models.MatchNone, entry.MatchStatus)
}

func TestEvaluate_SectionUpgradeFiresWhenJudgeDisabled(t *testing.T) {
	store := &fakeVectorStore{byChunk: map[string][]models.Candidate{
		"rc1": {cand("1", 0.55, models.SectionExperience, "Led a small migration project")},
	}}
	ev := evaluator.New(store)
	eng := New(ev, judge.NewAdapter(fakeJudger{}, false)) // judge disabled: band preserved as AMBIGUOUS

	rule := JDRule{ID: "r1", Type: models.RuleMustHave, Content: "Led technical migrations", Chunks: []evaluator.RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	cfg := testConfig()
	result, err := eng.Evaluate(context.Background(), uuid.New(), []JDRule{rule}, cfg)
	require.NoError(t, err)

	entry := result.MatchTrace[0]
	assert.True(t, entry.SectionUpgradeApplied)
	assert.Equal(t, models.MatchFull, entry.MatchStatus)
	assert.Equal(t, models.SectionExperience, entry.UpgradeFromSection)
}

func TestEvaluate_MultiMentionBoostPromotesPartialToFull(t *testing.T) {
	store := &fakeVectorStore{byChunk: map[string][]models.Candidate{
		"rc1": {
			cand("1", 0.65, models.SectionSkills, "expert in distributed systems"),
			cand("2", 0.63, models.SectionProjects, "expert contributor to service mesh"),
			cand("3", 0.61, models.SectionExperience, "expert on the platform team"),
		},
	}}
	ev := evaluator.New(store)
	eng := New(ev, judge.NewAdapter(fakeJudger{}, false))

	rule := JDRule{ID: "r1", Type: models.RuleNiceToHave, Content: "distributed systems expertise", Chunks: []evaluator.RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	cfg := testConfig()
	cfg.Evaluator.Thresholds.High = 0.90 // keep these below HIGH so only the boost can promote them
	result, err := eng.Evaluate(context.Background(), uuid.New(), []JDRule{rule}, cfg)
	require.NoError(t, err)

	entry := result.MatchTrace[0]
	assert.True(t, entry.MultiMentionBoost)
	assert.Equal(t, models.MatchFull, entry.MatchStatus)
	assert.Equal(t, 3, entry.MentionDetails.High)
}

// partialOrNoneJudger returns PARTIAL for content containing
// "partial-match" and NONE otherwise, so a rule's chunks can straddle
// "one chunk explicitly rejected, another still ambiguous".
type partialOrNoneJudger struct{}

func (partialOrNoneJudger) Judge(_ context.Context, in judge.Input) models.JudgeOutcome {
	status := models.JudgeNone
	if contains(in.CvChunkContent, "partial-match") {
		status = models.JudgePartial
	}
	return models.JudgeOutcome{Used: true, Result: &models.JudgeVerdict{Status: status, Confidence: models.ConfidenceMedium}}
}

func TestEvaluate_JudgeDowngradeFiresWhenOtherChunkStaysAmbiguous(t *testing.T) {
	store := &fakeVectorStore{byChunk: map[string][]models.Candidate{
		"rc1": {cand("1", 0.55, models.SectionSkills, "no relevant background here")},
		"rc2": {cand("2", 0.55, models.SectionSkills, "some partial-match experience")},
	}}
	ev := evaluator.New(store)
	eng := New(ev, judge.NewAdapter(partialOrNoneJudger{}, true))

	rule := JDRule{
		ID:      "r1",
		Type:    models.RuleMustHave,
		Content: "Deep infra background",
		Chunks: []evaluator.RuleChunk{
			{ID: "rc1", Embedding: []float32{1}},
			{ID: "rc2", Embedding: []float32{1}},
		},
	}
	result, err := eng.Evaluate(context.Background(), uuid.New(), []JDRule{rule}, testConfig())
	require.NoError(t, err)

	entry := result.MatchTrace[0]
	// rc1's NONE verdict rewrites its band to LOW (no longer AMBIGUOUS),
	// but rc2's PARTIAL verdict keeps its band AMBIGUOUS, so the
	// conservative aggregator alone would still report PARTIAL. The
	// judge-driven downgrade must still fire off rc1's explicit NONE.
	assert.True(t, entry.JudgeDowngradeApplied)
	assert.Equal(t, models.MatchNone, entry.MatchStatus)
}

func TestMatchLevel_Thresholds(t *testing.T) {
	assert.Equal(t, models.LevelStrongMatch, matchLevel(models.MatchScores{MustHaveScoreRate: 0.90, WeightedScoreRate: 0.85}, 3))
	assert.Equal(t, models.LevelGoodMatch, matchLevel(models.MatchScores{MustHaveScoreRate: 0.75, WeightedScoreRate: 0.65}, 3))
	assert.Equal(t, models.LevelPartialMatch, matchLevel(models.MatchScores{MustHaveScoreRate: 0.6, WeightedScoreRate: 0.4}, 3))
	assert.Equal(t, models.LevelLowMatch, matchLevel(models.MatchScores{MustHaveScoreRate: 0.2, WeightedScoreRate: 0.1}, 3))
	assert.Equal(t, models.LevelLowMatch, matchLevel(models.MatchScores{MustHaveScoreRate: 1.0, WeightedScoreRate: 1.0}, 0))
}
