package quality

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"cvready/models"
)

func chunk(content string) models.CvChunk {
	return models.CvChunk{ID: uuid.New(), Content: content}
}

func TestDecide_NotReadyOnMustHaveFailure(t *testing.T) {
	findings := []models.Finding{
		{Category: models.RuleMustHave, Passed: false},
		{Category: models.RuleNiceToHave, Passed: true},
	}
	assert.Equal(t, models.DecisionNotReady, decide(findings))
}

func TestDecide_NeedsImprovementOnNiceToHaveFailures(t *testing.T) {
	findings := []models.Finding{
		{Category: models.RuleMustHave, Passed: true},
		{Category: models.RuleNiceToHave, Passed: false},
		{Category: models.RuleNiceToHave, Passed: false},
		{Category: models.RuleNiceToHave, Passed: false},
	}
	assert.Equal(t, models.DecisionNeedsImprovement, decide(findings))
}

func TestDecide_ReadyWhenWithinTolerances(t *testing.T) {
	findings := []models.Finding{
		{Category: models.RuleMustHave, Passed: true},
		{Category: models.RuleNiceToHave, Passed: false},
		{Category: models.RuleNiceToHave, Passed: false},
		{Category: models.RuleBestPractice, Passed: false},
		{Category: models.RuleBestPractice, Passed: false},
		{Category: models.RuleBestPractice, Passed: false},
	}
	assert.Equal(t, models.DecisionReady, decide(findings))
}

func TestScoreFindings_EmptyCategoryScoresFull(t *testing.T) {
	scores := scoreFindings(nil)
	assert.Equal(t, 100.0, scores.MustHave)
	assert.Equal(t, 100.0, scores.NiceToHave)
	assert.Equal(t, 100.0, scores.BestPractice)
	assert.Equal(t, 100.0, scores.Total)
}

func TestScoreFindings_WeightedTotal(t *testing.T) {
	findings := []models.Finding{
		{Category: models.RuleMustHave, Passed: true},
		{Category: models.RuleMustHave, Passed: false},
		{Category: models.RuleNiceToHave, Passed: true},
		{Category: models.RuleBestPractice, Passed: true},
	}
	scores := scoreFindings(findings)
	assert.Equal(t, 50.0, scores.MustHave)
	assert.Equal(t, 100.0, scores.NiceToHave)
	assert.Equal(t, 100.0, scores.BestPractice)
	// 0.5*50 + 0.3*100 + 0.2*100 = 25 + 30 + 20 = 75
	assert.Equal(t, 75.0, scores.Total)
}

func TestStructuralRules_EmailAndEducation(t *testing.T) {
	cv := models.CV{
		Sections: []models.CvSection{
			{Type: models.SectionEducation, Chunks: []models.CvChunk{chunk("B.Sc. Computer Science, 2021")}},
			{Type: models.SectionExperience, Chunks: []models.CvChunk{chunk("Reach me at jane@example.com or see github.com/janedoe")}},
		},
	}

	findings := map[string]models.Finding{}
	for _, rule := range DefaultStructuralRules() {
		findings[rule.RuleID] = rule.Evaluate(cv)
	}

	assert.True(t, findings["education-section-present"].Passed)
	assert.True(t, findings["contact-email-present"].Passed)
	assert.True(t, findings["github-present"].Passed)
	assert.True(t, findings["degree-keyword-present"].Passed)
	assert.True(t, findings["dates-present"].Passed)
	assert.False(t, findings["linkedin-present"].Passed)
}
