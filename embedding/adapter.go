package embedding

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"cvready/metrics"
)

// ChunkRef is the minimal shape the adapter needs from a chunk row: its
// id and the text to embed. It is deliberately narrower than
// models.CvChunk/models.JDRuleChunk so this package never needs to import
// the repository layer.
type ChunkRef struct {
	ID      string
	Content string
}

// ChunkStore is the repository-side contract §4.3 assumes: find chunks
// still missing an embedding, and persist one once computed. Persistence
// must be a write-only-if-null update so concurrent invocations of
// EmbedCvChunks/EmbedJdRuleChunks stay idempotent (§5).
type ChunkStore interface {
	FindCvChunksWithoutEmbedding(ctx context.Context, cvID uuid.UUID) ([]ChunkRef, error)
	SaveCvChunkEmbedding(ctx context.Context, chunkID string, vector []float32) error
	FindJdRuleChunksWithoutEmbedding(ctx context.Context, jdID uuid.UUID) ([]ChunkRef, error)
	SaveJdRuleChunkEmbedding(ctx context.Context, chunkID string, vector []float32) error
}

// Counts is the telemetry-only return shape of an embed-if-missing run.
type Counts struct {
	Embedded int
	Skipped  int
}

const defaultBatchSize = 100

// Embedder is the subset of Client's behavior the adapter depends on;
// tests substitute a fake that never touches the network.
type Embedder interface {
	Configured() bool
	EmbedBatch(ctx context.Context, chunkIDs []string, texts []string) ([]Result, error)
}

// Adapter composes an Embedder against a ChunkStore to implement the
// idempotent embed-if-missing operations of §4.3.
type Adapter struct {
	Client    Embedder
	Store     ChunkStore
	BatchSize int
}

func NewAdapter(client Embedder, store ChunkStore, batchSize int) *Adapter {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Adapter{Client: client, Store: store, BatchSize: batchSize}
}

// EmbedCvChunks embeds every chunk of cvID that has no embedding yet. A
// second call with nothing left to embed makes no provider calls and
// returns Counts{0, 0} — the idempotency property asserted by §8.4.
func (a *Adapter) EmbedCvChunks(ctx context.Context, cvID uuid.UUID) (Counts, error) {
	if !a.Client.Configured() {
		return Counts{}, nil
	}
	refs, err := a.Store.FindCvChunksWithoutEmbedding(ctx, cvID)
	if err != nil {
		return Counts{}, fmt.Errorf("embedding: find cv chunks without embedding: %w", err)
	}
	return a.embedAll(ctx, refs, a.Store.SaveCvChunkEmbedding)
}

// EmbedJdRuleChunks embeds every rule chunk of jdID that has no embedding
// yet, with the same idempotency and batching contract as EmbedCvChunks.
func (a *Adapter) EmbedJdRuleChunks(ctx context.Context, jdID uuid.UUID) (Counts, error) {
	if !a.Client.Configured() {
		return Counts{}, nil
	}
	refs, err := a.Store.FindJdRuleChunksWithoutEmbedding(ctx, jdID)
	if err != nil {
		return Counts{}, fmt.Errorf("embedding: find jd rule chunks without embedding: %w", err)
	}
	return a.embedAll(ctx, refs, a.Store.SaveJdRuleChunkEmbedding)
}

func (a *Adapter) embedAll(ctx context.Context, refs []ChunkRef, save func(ctx context.Context, chunkID string, vector []float32) error) (Counts, error) {
	if len(refs) == 0 {
		return Counts{}, nil
	}

	var total Counts
	for start := 0; start < len(refs); start += a.BatchSize {
		end := start + a.BatchSize
		if end > len(refs) {
			end = len(refs)
		}
		batch := refs[start:end]

		ids := make([]string, len(batch))
		texts := make([]string, len(batch))
		for i, r := range batch {
			ids[i] = r.ID
			texts[i] = r.Content
		}

		results, err := a.Client.EmbedBatch(ctx, ids, texts)
		if err != nil {
			// A contract violation (dimension mismatch) or transport failure
			// is fatal only to this batch; it is logged here, counted as
			// skipped, and the loop continues with the next one (§4.10 step 3 / §7).
			log.Printf("embedding: batch [%d:%d] failed, skipping: %v", start, end, err)
			total.Skipped += len(batch)
			metrics.EmbeddingChunksSkipped.Add(float64(len(batch)))
			continue
		}

		for _, r := range results {
			if err := save(ctx, r.ChunkID, r.Vector); err != nil {
				log.Printf("embedding: failed to persist embedding for chunk %s: %v", r.ChunkID, err)
				total.Skipped++
				metrics.EmbeddingChunksSkipped.Inc()
				continue
			}
			total.Embedded++
			metrics.EmbeddingChunksEmbedded.Inc()
		}
	}
	return total, nil
}
