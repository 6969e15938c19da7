package similarity

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvready/models"
)

func defaultThresholds() Thresholds {
	return Thresholds{Floor: 0.15, Low: 0.40, High: 0.75}
}

func bandRank(b models.Band) int {
	switch b {
	case models.BandNoEvidence:
		return 0
	case models.BandLow:
		return 1
	case models.BandAmbiguous:
		return 2
	case models.BandHigh:
		return 3
	}
	return -1
}

func TestClassifyBand_Boundaries(t *testing.T) {
	th := defaultThresholds()

	assert.Equal(t, models.BandNoEvidence, ClassifyBand(0.10, th))
	assert.Equal(t, models.BandLow, ClassifyBand(0.15, th))
	assert.Equal(t, models.BandLow, ClassifyBand(0.39, th))
	assert.Equal(t, models.BandAmbiguous, ClassifyBand(0.40, th))
	assert.Equal(t, models.BandAmbiguous, ClassifyBand(0.74, th))
	assert.Equal(t, models.BandHigh, ClassifyBand(0.75, th))
	assert.Equal(t, models.BandHigh, ClassifyBand(1.0, th))
}

func TestClassifyBand_Monotonicity(t *testing.T) {
	th := defaultThresholds()
	samples := []float64{-0.2, 0, 0.1, 0.15, 0.3, 0.39, 0.4, 0.6, 0.74, 0.75, 0.9, 1.0}

	for i := 1; i < len(samples); i++ {
		prevBand := ClassifyBand(samples[i-1], th)
		curBand := ClassifyBand(samples[i], th)
		require.GreaterOrEqual(t, bandRank(curBand), bandRank(prevBand),
			"band must be monotone non-decreasing in similarity: %v -> %v regressed", samples[i-1], samples[i])
	}
}

func TestAggregateRuleResult(t *testing.T) {
	cases := []struct {
		name string
		in   []models.Band
		want models.RuleResult
	}{
		{"empty", nil, models.ResultNoEvidence},
		{"any high wins", []models.Band{models.BandLow, models.BandAmbiguous, models.BandHigh}, models.ResultFull},
		{"ambiguous beats low", []models.Band{models.BandLow, models.BandAmbiguous}, models.ResultPartial},
		{"low alone", []models.Band{models.BandLow, models.BandNoEvidence}, models.ResultNone},
		{"all no evidence", []models.Band{models.BandNoEvidence, models.BandNoEvidence}, models.ResultNoEvidence},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, AggregateRuleResult(c.in))
		})
	}
}

func TestAggregateRuleResult_IsSupremum(t *testing.T) {
	rank := func(r models.RuleResult) int {
		switch r {
		case models.ResultNoEvidence:
			return 0
		case models.ResultNone:
			return 1
		case models.ResultPartial:
			return 2
		case models.ResultFull:
			return 3
		}
		return -1
	}
	toResult := map[models.Band]models.RuleResult{
		models.BandHigh:       models.ResultFull,
		models.BandAmbiguous:  models.ResultPartial,
		models.BandLow:        models.ResultNone,
		models.BandNoEvidence: models.ResultNoEvidence,
	}
	all := []models.Band{models.BandHigh, models.BandAmbiguous, models.BandLow, models.BandNoEvidence}

	rnd := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := 1 + rnd.Intn(8)
		bands := make([]models.Band, n)
		maxRank := -1
		for i := range bands {
			b := all[rnd.Intn(len(all))]
			bands[i] = b
			if r := rank(toResult[b]); r > maxRank {
				maxRank = r
			}
		}
		got := AggregateRuleResult(bands)
		assert.Equal(t, maxRank, rank(got), "aggregate must equal supremum for %v", bands)
	}
}

func newCandidate(id string, sim, weight float64, section models.SectionType, order int) models.Candidate {
	return models.Candidate{
		CvChunkID:     uuid.MustParse(id),
		SectionType:   section,
		Similarity:    sim,
		SectionWeight: weight,
		ChunkOrder:    order,
	}
}

func TestSortCandidates_TotalOrderIsPermutationInvariant(t *testing.T) {
	ids := []string{
		"00000000-0000-0000-0000-000000000001",
		"00000000-0000-0000-0000-000000000002",
		"00000000-0000-0000-0000-000000000003",
		"00000000-0000-0000-0000-000000000004",
	}
	base := []models.Candidate{
		newCandidate(ids[0], 0.80, 1.15, models.SectionExperience, 2),
		newCandidate(ids[1], 0.80, 1.15, models.SectionExperience, 1),
		newCandidate(ids[2], 0.80, 1.05, models.SectionSkills, 0),
		newCandidate(ids[3], 0.50, 1.15, models.SectionProjects, 0),
	}

	rnd := rand.New(rand.NewSource(42))
	var reference []models.Candidate
	for trial := 0; trial < 10; trial++ {
		perm := make([]models.Candidate, len(base))
		copy(perm, base)
		rnd.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		SortCandidates(perm)

		if reference == nil {
			reference = perm
			continue
		}
		require.Equal(t, len(reference), len(perm))
		for i := range reference {
			assert.Equal(t, reference[i].CvChunkID, perm[i].CvChunkID, "trial %d position %d", trial, i)
		}
	}

	// Ties on similarity resolve by section weight (EXPERIENCE 1.15 > SKILLS 1.05),
	// then by chunk order within the same section.
	require.Len(t, reference, 4)
	assert.Equal(t, ids[1], reference[0].CvChunkID.String()) // order 1 before order 2
	assert.Equal(t, ids[0], reference[1].CvChunkID.String())
	assert.Equal(t, ids[2], reference[2].CvChunkID.String()) // SKILLS after EXPERIENCE despite equal similarity
	assert.Equal(t, ids[3], reference[3].CvChunkID.String()) // lowest similarity last
}

func TestCanUpgradePartialToFull(t *testing.T) {
	th := defaultThresholds()
	cfg := UpgradeConfig{Margin: 0.05, AllowedSections: []models.SectionType{models.SectionExperience, models.SectionProjects}}

	best := models.Candidate{SectionType: models.SectionProjects, Similarity: 0.72}
	assert.True(t, CanUpgradePartialToFull(best, th, cfg, 2))
	assert.False(t, CanUpgradePartialToFull(best, th, cfg, 1), "needs >= 2 candidates at or above low")

	wrongSection := models.Candidate{SectionType: models.SectionSkills, Similarity: 0.80}
	assert.False(t, CanUpgradePartialToFull(wrongSection, th, cfg, 3))

	tooFarBelowHigh := models.Candidate{SectionType: models.SectionExperience, Similarity: 0.69}
	assert.False(t, CanUpgradePartialToFull(tooFarBelowHigh, th, cfg, 2))
}

func TestSeverityMap(t *testing.T) {
	assert.Equal(t, models.GapNone, SeverityMap(models.BandHigh, models.RuleMustHave))
	assert.Equal(t, models.GapNone, SeverityMap(models.BandHigh, models.RuleNiceToHave))

	assert.Equal(t, models.GapCriticalSkillGap, SeverityMap(models.BandLow, models.RuleMustHave))
	assert.Equal(t, models.GapCriticalSkillGap, SeverityMap(models.BandNoEvidence, models.RuleMustHave))
	assert.Equal(t, models.GapMinorGap, SeverityMap(models.BandLow, models.RuleNiceToHave))

	assert.Equal(t, models.GapPartialAdvisory, SeverityMap(models.BandAmbiguous, models.RuleMustHave))
	assert.Equal(t, models.GapAdvisory, SeverityMap(models.BandAmbiguous, models.RuleBestPractice))
}

func TestSimpleHash_IsDeterministicContract(t *testing.T) {
	// These are fixed regression values for the exact rolling-hash contract;
	// changing SimpleHash changes suggestion wording and is a compatibility break.
	assert.Equal(t, SimpleHash("go"), SimpleHash("go"))
	assert.Equal(t, uint32(3304), SimpleHash("go")) // 'g'=103, then 103*31 + 'o'(111)
	assert.NotEqual(t, SimpleHash("go"), SimpleHash("golang"))

	h1 := SimpleHash("typescript, react, testing")
	h2 := SimpleHash("typescript, react, testing")
	assert.Equal(t, h1, h2)
}

func TestSectionWeight_AppliesToBoost(t *testing.T) {
	assert.InDelta(t, 1.15, SectionWeight(models.SectionExperience, nil), 1e-9)
	assert.InDelta(t, 1.25, SectionWeight(models.SectionExperience, []models.SectionType{models.SectionExperience}), 1e-9)
	assert.InDelta(t, 0.90, SectionWeight(models.SectionSummary, []models.SectionType{models.SectionSkills}), 1e-9)
}
