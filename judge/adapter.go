package judge

import (
	"context"

	"golang.org/x/sync/semaphore"

	"cvready/metrics"
	"cvready/models"
)

// Judger is the subset of Client's behavior the adapter depends on, so
// tests can substitute a fake that never reaches the network.
type Judger interface {
	Judge(ctx context.Context, in Input) models.JudgeOutcome
}

// Cache memoizes judge verdicts by a caller-supplied key (typically
// ruleChunkId+cvChunkId). A nil Cache behaves as an always-miss cache;
// the judge prompt/response pair is a pure function of its key, so
// memoizing it only trades latency/cost for nothing observably different.
type Cache interface {
	Get(ctx context.Context, key string) (models.JudgeOutcome, bool)
	Set(ctx context.Context, key string, outcome models.JudgeOutcome)
}

const defaultConcurrency = 10

// Adapter is the LLM Judge Adapter: it applies the "globally disabled"
// short-circuit from §4.4, optional caching, and bounded-concurrency
// batch adjudication on top of a Judger.
type Adapter struct {
	Enabled     bool
	Client      Judger
	Cache       Cache
	Concurrency int
}

func NewAdapter(client Judger, enabled bool) *Adapter {
	return &Adapter{Enabled: enabled, Client: client, Concurrency: defaultConcurrency}
}

// BatchInput pairs a caller-defined cache/result key with the judge Input.
type BatchInput struct {
	Key   string
	Input Input
}

// Judge adjudicates a single pair. If the adapter is disabled, every call
// returns used=false, skipped=true, result=nil without touching the
// client or the cache.
func (a *Adapter) Judge(ctx context.Context, key string, in Input) models.JudgeOutcome {
	if !a.Enabled {
		outcome := models.JudgeOutcome{Skipped: true}
		recordOutcome(outcome)
		return outcome
	}
	if a.Cache != nil {
		if cached, ok := a.Cache.Get(ctx, key); ok {
			recordOutcome(cached)
			return cached
		}
	}
	outcome := a.Client.Judge(ctx, in)
	if a.Cache != nil && outcome.Result != nil {
		a.Cache.Set(ctx, key, outcome)
	}
	recordOutcome(outcome)
	return outcome
}

func recordOutcome(outcome models.JudgeOutcome) {
	metrics.JudgeLatency.Observe(float64(outcome.LatencyMs))
	switch {
	case outcome.Skipped:
		metrics.JudgeOutcomes.WithLabelValues("skipped").Inc()
	case outcome.Unavailable:
		metrics.JudgeOutcomes.WithLabelValues("unavailable").Inc()
	case outcome.Used:
		metrics.JudgeOutcomes.WithLabelValues("used").Inc()
	}
}

// JudgeBatch adjudicates many pairs with a bounded concurrency (default
// 10, per §5), preserving the caller's input order in the output slice.
func (a *Adapter) JudgeBatch(ctx context.Context, inputs []BatchInput) []models.JudgeOutcome {
	out := make([]models.JudgeOutcome, len(inputs))
	if !a.Enabled {
		for i := range out {
			out[i] = models.JudgeOutcome{Skipped: true}
		}
		return out
	}

	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	done := make(chan struct{}, len(inputs))
	for i, in := range inputs {
		i, in := i, in
		if err := sem.Acquire(ctx, 1); err != nil {
			out[i] = models.JudgeOutcome{Used: true, Unavailable: true}
			done <- struct{}{}
			continue
		}
		go func() {
			defer sem.Release(1)
			out[i] = a.Judge(ctx, in.Key, in.Input)
			done <- struct{}{}
		}()
	}
	for range inputs {
		<-done
	}
	return out
}
