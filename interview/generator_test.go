package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvready/models"
)

func TestGenerator_Configured(t *testing.T) {
	assert.False(t, New("").Configured())
	assert.True(t, New("key").Configured())

	var nilGen *Generator
	assert.False(t, nilGen.Configured())
}

func TestGenerateQuestions_NotConfigured(t *testing.T) {
	g := New("")
	_, err := g.GenerateQuestions(nil, []models.Gap{{RuleKey: "x"}}, nil)
	assert.Error(t, err)
}

func TestGenerateQuestions_NoGapsSkipsCall(t *testing.T) {
	g := New("key")
	questions, err := g.GenerateQuestions(nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, questions)
}

func TestParseQuestions_StripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"questions\": [\"Q1\", \"Q2\"]}\n```"
	got := parseQuestions(raw)
	assert.Equal(t, []string{"Q1", "Q2"}, got)
}

func TestParseQuestions_CapsAtMax(t *testing.T) {
	raw := `{"questions": ["1","2","3","4","5","6","7"]}`
	got := parseQuestions(raw)
	assert.Len(t, got, maxQuestions)
}

func TestParseQuestions_InvalidJSONReturnsNil(t *testing.T) {
	assert.Nil(t, parseQuestions("not json"))
}

func TestFormatGaps_IncludesSeverityAndRuleKey(t *testing.T) {
	out := formatGaps([]models.Gap{
		{Severity: models.GapCriticalSkillGap, RuleKey: "owns_production_incident", RuleContent: "Led incident response"},
	})
	assert.Contains(t, out, "owns_production_incident")
	assert.Contains(t, out, string(models.GapCriticalSkillGap))
	assert.Contains(t, out, "Led incident response")
}

func TestFormatRules_IncludesTypeAndContent(t *testing.T) {
	out := formatRules([]models.JDRule{
		{Type: models.RuleMustHave, Content: "5+ years Go experience"},
	})
	assert.Contains(t, out, "MUST_HAVE")
	assert.Contains(t, out, "5+ years Go experience")
}
