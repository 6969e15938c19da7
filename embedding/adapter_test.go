package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	configured bool
	calls      int
	dimension  int
}

func (f *fakeEmbedder) Configured() bool { return f.configured }

func (f *fakeEmbedder) EmbedBatch(_ context.Context, chunkIDs []string, texts []string) ([]Result, error) {
	f.calls++
	out := make([]Result, len(texts))
	for i, id := range chunkIDs {
		vec := make([]float32, f.dimension)
		vec[0] = 1
		out[i] = Result{ChunkID: id, Vector: vec}
	}
	return out, nil
}

type fakeStore struct {
	cvChunks map[uuid.UUID][]ChunkRef
	saved    map[string][]float32
}

func newFakeStore() *fakeStore {
	return &fakeStore{cvChunks: make(map[uuid.UUID][]ChunkRef), saved: make(map[string][]float32)}
}

func (s *fakeStore) FindCvChunksWithoutEmbedding(_ context.Context, cvID uuid.UUID) ([]ChunkRef, error) {
	return s.cvChunks[cvID], nil
}

func (s *fakeStore) SaveCvChunkEmbedding(_ context.Context, chunkID string, vector []float32) error {
	s.saved[chunkID] = vector
	return nil
}

func (s *fakeStore) FindJdRuleChunksWithoutEmbedding(_ context.Context, _ uuid.UUID) ([]ChunkRef, error) {
	return nil, nil
}

func (s *fakeStore) SaveJdRuleChunkEmbedding(_ context.Context, chunkID string, vector []float32) error {
	s.saved[chunkID] = vector
	return nil
}

func TestEmbedCvChunks_Idempotent(t *testing.T) {
	cvID := uuid.New()
	store := newFakeStore()
	store.cvChunks[cvID] = []ChunkRef{{ID: "c1", Content: "built a thing"}, {ID: "c2", Content: "led a team"}}
	embedder := &fakeEmbedder{configured: true, dimension: 4}
	adapter := NewAdapter(embedder, store, 0)

	counts, err := adapter.EmbedCvChunks(context.Background(), cvID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Embedded)
	assert.Equal(t, 0, counts.Skipped)
	assert.Equal(t, 1, embedder.calls)

	// Second run: store has nothing left missing an embedding (simulated by
	// clearing the backlog, as a real repository's WHERE embedding IS NULL
	// would after the first run's writes).
	store.cvChunks[cvID] = nil
	counts, err = adapter.EmbedCvChunks(context.Background(), cvID)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
	assert.Equal(t, 1, embedder.calls, "second run must not call the provider again")
}

func TestEmbedCvChunks_Unconfigured(t *testing.T) {
	cvID := uuid.New()
	store := newFakeStore()
	store.cvChunks[cvID] = []ChunkRef{{ID: "c1", Content: "x"}}
	embedder := &fakeEmbedder{configured: false}
	adapter := NewAdapter(embedder, store, 0)

	counts, err := adapter.EmbedCvChunks(context.Background(), cvID)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
	assert.Equal(t, 0, embedder.calls)
}

func TestEmbedCvChunks_BatchFailureSkipsBatchOnly(t *testing.T) {
	cvID := uuid.New()
	store := newFakeStore()
	refs := make([]ChunkRef, 0, 150)
	for i := 0; i < 150; i++ {
		refs = append(refs, ChunkRef{ID: uuid.New().String(), Content: "x"})
	}
	store.cvChunks[cvID] = refs

	calls := 0
	failing := failAfterFirstBatch{calls: &calls}
	adapter := NewAdapter(failing, store, 100)

	counts, err := adapter.EmbedCvChunks(context.Background(), cvID)
	require.NoError(t, err)
	assert.Equal(t, 100, counts.Embedded, "first batch succeeds")
	assert.Equal(t, 50, counts.Skipped, "second batch fails and is skipped, not retried into the first")
}

type failAfterFirstBatch struct{ calls *int }

func (f failAfterFirstBatch) Configured() bool { return true }

func (f failAfterFirstBatch) EmbedBatch(_ context.Context, chunkIDs []string, _ []string) ([]Result, error) {
	*f.calls++
	if *f.calls > 1 {
		return nil, errors.New("provider unavailable")
	}
	out := make([]Result, len(chunkIDs))
	for i, id := range chunkIDs {
		out[i] = Result{ChunkID: id, Vector: []float32{1}}
	}
	return out, nil
}
