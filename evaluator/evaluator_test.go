package evaluator

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvready/models"
	"cvready/similarity"
)

type fakeStore struct {
	byChunk map[string][]models.Candidate
}

func (f *fakeStore) TopK(_ context.Context, _ []float32, _ uuid.UUID, k int) ([]models.Candidate, error) {
	return nil, nil
}

func (f *fakeStore) TopKBatch(_ context.Context, embeddings map[string][]float32, _ uuid.UUID, _ int) (map[string][]models.Candidate, error) {
	out := make(map[string][]models.Candidate, len(embeddings))
	for id := range embeddings {
		out[id] = f.byChunk[id]
	}
	return out, nil
}

func cand(id string, dist float64, section models.SectionType, order int) models.Candidate {
	return models.Candidate{
		CvChunkID:      uuid.MustParse(id),
		CosineDistance: dist,
		SectionType:    section,
		ChunkOrder:     order,
	}
}

func defaultConfig() Config {
	return Config{
		TopK:       5,
		Thresholds: similarity.Thresholds{Floor: 0.15, Low: 0.40, High: 0.75},
		Upgrade: similarity.UpgradeConfig{
			Margin:          0.05,
			AllowedSections: []models.SectionType{models.SectionExperience, models.SectionProjects},
		},
	}
}

func TestEvaluate_HighBandDirectMatch(t *testing.T) {
	// S3 scenario: single candidate at similarity 0.82 in SKILLS.
	store := &fakeStore{byChunk: map[string][]models.Candidate{
		"rc1": {cand("00000000-0000-0000-0000-000000000001", 0.18, models.SectionSkills, 0)},
	}}
	e := New(store)

	rule := Rule{ID: "r1", Key: "typescript", Type: models.RuleMustHave, Chunks: []RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	out, err := e.Evaluate(context.Background(), uuid.New(), []Rule{rule}, defaultConfig())
	require.NoError(t, err)
	require.Len(t, out.Results, 1)

	r := out.Results[0]
	assert.Equal(t, models.ResultFull, r.Result)
	assert.Equal(t, models.BandHigh, r.BestMatch.Band)
	assert.InDelta(t, 0.82, r.BestMatch.Similarity, 1e-9)
}

func TestEvaluate_SectionUpgrade(t *testing.T) {
	// S4 scenario: best 0.72 in PROJECTS (AMBIGUOUS), second 0.51 in EXPERIENCE.
	store := &fakeStore{byChunk: map[string][]models.Candidate{
		"rc1": {
			cand("00000000-0000-0000-0000-000000000001", 0.28, models.SectionProjects, 0),
			cand("00000000-0000-0000-0000-000000000002", 0.49, models.SectionExperience, 0),
		},
	}}
	e := New(store)
	rule := Rule{ID: "r1", Key: "leadership", Type: models.RuleMustHave, Chunks: []RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	out, err := e.Evaluate(context.Background(), uuid.New(), []Rule{rule}, defaultConfig())
	require.NoError(t, err)

	r := out.Results[0]
	assert.Equal(t, models.ResultFull, r.Result)
	assert.True(t, r.Upgraded)
}

func TestEvaluate_NoEvidenceWhenNoCandidates(t *testing.T) {
	store := &fakeStore{byChunk: map[string][]models.Candidate{}}
	e := New(store)
	rule := Rule{ID: "r1", Key: "kubernetes", Type: models.RuleNiceToHave, Chunks: []RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	out, err := e.Evaluate(context.Background(), uuid.New(), []Rule{rule}, defaultConfig())
	require.NoError(t, err)

	r := out.Results[0]
	assert.Equal(t, models.ResultNoEvidence, r.Result)
	assert.Nil(t, r.BestMatch)
}

func TestEvaluate_CandidatesBelowFloorAreDiscarded(t *testing.T) {
	store := &fakeStore{byChunk: map[string][]models.Candidate{
		"rc1": {cand("00000000-0000-0000-0000-000000000001", 1.95, models.SectionSkills, 0)}, // similarity -0.95
	}}
	e := New(store)
	rule := Rule{ID: "r1", Key: "rust", Type: models.RuleNiceToHave, Chunks: []RuleChunk{{ID: "rc1", Embedding: []float32{1}}}}
	out, err := e.Evaluate(context.Background(), uuid.New(), []Rule{rule}, defaultConfig())
	require.NoError(t, err)
	assert.Equal(t, models.ResultNoEvidence, out.Results[0].Result)
}
