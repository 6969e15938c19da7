package judge

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvready/models"
)

type fakeJudger struct {
	calls int32
}

func (f *fakeJudger) Judge(_ context.Context, in Input) models.JudgeOutcome {
	atomic.AddInt32(&f.calls, 1)
	status := models.JudgeNone
	if in.RuleChunkContent == in.CvChunkContent {
		status = models.JudgeFull
	}
	return models.JudgeOutcome{Used: true, Result: &models.JudgeVerdict{Status: status, Confidence: models.ConfidenceHigh}}
}

func TestAdapter_Disabled_NeverCallsClient(t *testing.T) {
	client := &fakeJudger{}
	a := NewAdapter(client, false)

	outcome := a.Judge(context.Background(), "k1", Input{})
	assert.False(t, outcome.Used)
	assert.True(t, outcome.Skipped)
	assert.Nil(t, outcome.Result)
	assert.Equal(t, int32(0), atomic.LoadInt32(&client.calls))
}

func TestAdapter_JudgeBatch_PreservesOrder(t *testing.T) {
	client := &fakeJudger{}
	a := NewAdapter(client, true)

	inputs := []BatchInput{
		{Key: "a", Input: Input{RuleChunkContent: "go", CvChunkContent: "go"}},
		{Key: "b", Input: Input{RuleChunkContent: "go", CvChunkContent: "rust"}},
		{Key: "c", Input: Input{RuleChunkContent: "go", CvChunkContent: "go"}},
	}
	out := a.JudgeBatch(context.Background(), inputs)
	require.Len(t, out, 3)
	assert.Equal(t, models.JudgeFull, out[0].Result.Status)
	assert.Equal(t, models.JudgeNone, out[1].Result.Status)
	assert.Equal(t, models.JudgeFull, out[2].Result.Status)
}

type countingCache struct {
	store map[string]models.JudgeOutcome
	gets  int
	sets  int
}

func newCountingCache() *countingCache { return &countingCache{store: map[string]models.JudgeOutcome{}} }

func (c *countingCache) Get(_ context.Context, key string) (models.JudgeOutcome, bool) {
	c.gets++
	v, ok := c.store[key]
	return v, ok
}

func (c *countingCache) Set(_ context.Context, key string, outcome models.JudgeOutcome) {
	c.sets++
	c.store[key] = outcome
}

func TestAdapter_CacheAvoidsSecondCall(t *testing.T) {
	client := &fakeJudger{}
	cache := newCountingCache()
	a := NewAdapter(client, true)
	a.Cache = cache

	in := Input{RuleChunkContent: "go", CvChunkContent: "go"}
	first := a.Judge(context.Background(), "k", in)
	second := a.Judge(context.Background(), "k", in)

	assert.Equal(t, first.Result.Status, second.Result.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls), "second call must be served from cache")
	assert.Equal(t, 1, cache.sets)
}

func TestParseVerdict_StripsMarkdownFence(t *testing.T) {
	v := parseVerdict("```json\n{\"status\": \"full\", \"reason\": \"matches\", \"confidence\": \"high\"}\n```")
	assert.Equal(t, models.JudgeFull, v.Status)
	assert.Equal(t, models.ConfidenceHigh, v.Confidence)
}

func TestParseVerdict_InvalidJSONYieldsCannedNone(t *testing.T) {
	v := parseVerdict("not json at all")
	assert.Equal(t, models.JudgeNone, v.Status)
	assert.Equal(t, models.ConfidenceLow, v.Confidence)
}

func TestParseVerdict_TruncatesLongReason(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	raw := `{"status":"partial","reason":"` + string(long) + `","confidence":"medium"}`
	v := parseVerdict(raw)
	assert.LessOrEqual(t, len(v.Reason), maxReasonLen)
}
