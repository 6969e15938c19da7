// Package metrics wires github.com/prometheus/client_golang counters and
// histograms into the embedding adapter, the judge adapter, and the
// orchestrator, exposed at GET /metrics. Grounded on Kocoro-lab-Shannon,
// the only pack repo that imports client_golang directly — the teacher
// itself has no metrics surface at all.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmbeddingChunksEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cvready_embedding_chunks_embedded_total",
		Help: "Chunks successfully embedded by the embedding adapter.",
	})
	EmbeddingChunksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cvready_embedding_chunks_skipped_total",
		Help: "Chunks skipped by the embedding adapter after a batch failure.",
	})

	JudgeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cvready_judge_latency_ms",
		Help:    "LLM judge call latency in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	})
	JudgeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvready_judge_outcomes_total",
		Help: "Judge outcomes by kind: used, skipped, unavailable.",
	}, []string{"kind"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cvready_evaluation_duration_ms",
		Help:    "Total wall-clock time of one runEvaluation call.",
		Buckets: prometheus.ExponentialBuckets(100, 2, 12),
	})
	EvaluationRecommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvready_evaluation_recommendations_total",
		Help: "Evaluations by final recommendation.",
	}, []string{"recommendation"})
)
