// Package embedding implements the Embedding Adapter (§4.3): idempotent
// embed-if-missing for CV chunks and JD rule chunks, batched against the
// Gemini embedding API. Grounded on service/draft_service.go's
// generateQueryEmbedding (manual HTTP call, retry/backoff, L2
// normalization) and cmd/build-embeddings/main.go's batch request/response
// shapes, generalized from a single 768-dim O-1-criterion query embedding
// into a configurable-dimension batch embedder for arbitrary chunk text.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

const (
	embedEndpoint   = "https://generativelanguage.googleapis.com/v1beta/models/%s:batchEmbedContents"
	defaultModel    = "gemini-embedding-001"
	maxRetries      = 3
	initialBackoff  = time.Second
)

// Client is the Gemini batch-embedding HTTP client behind Adapter. A
// zero-value Client (no APIKey) reports Configured() == false, and
// Adapter's EmbedCvChunks and EmbedJdRuleChunks then become no-ops
// returning zero counts, per §4.3's offline/test mode.
type Client struct {
	APIKey    string
	Model     string
	Dimension int
	HTTP      *http.Client
}

func New(apiKey string, dimension int) *Client {
	return &Client{
		APIKey:    apiKey,
		Model:     defaultModel,
		Dimension: dimension,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether this adapter has a provider key; see §4.3's
// "if the provider is unconfigured" no-op clause.
func (c *Client) Configured() bool {
	return c != nil && c.APIKey != ""
}

// Result is the per-chunk embedded vector, keyed by the caller's opaque
// chunk id so callers never need to track request ordering themselves.
type Result struct {
	ChunkID string
	Vector  []float32
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedContentRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"taskType"`
	OutputDimensionality int          `json:"outputDimensionality"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EmbedBatch embeds up to len(texts) strings in a single provider call,
// validating every returned vector against the declared dimension. On a
// dimension mismatch the whole batch fails and no vectors are returned,
// per §4.3's "on mismatch the batch fails and none of its vectors are
// written" contract.
func (c *Client) EmbedBatch(ctx context.Context, chunkIDs []string, texts []string) ([]Result, error) {
	if !c.Configured() {
		return nil, nil
	}
	if len(chunkIDs) != len(texts) {
		return nil, fmt.Errorf("embedding: chunkIDs and texts length mismatch: %d vs %d", len(chunkIDs), len(texts))
	}
	if len(texts) == 0 {
		return nil, nil
	}

	reqs := make([]embedContentRequest, len(texts))
	for i, text := range texts {
		reqs[i] = embedContentRequest{
			Model:                "models/" + c.Model,
			Content:              contentInput{Parts: []partInput{{Text: text}}},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: c.Dimension,
		}
	}
	body, err := json.Marshal(batchEmbedRequest{Requests: reqs})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal batch request: %w", err)
	}

	var resp *batchEmbedResponse
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		resp, err = c.doRequest(ctx, body)
		if err == nil {
			break
		}
		if isNonRetryable(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("embedding: batch request failed after %d attempts: %w", maxRetries, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("embedding: provider error: %s", resp.Error.Message)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([]Result, len(texts))
	for i, e := range resp.Embeddings {
		if len(e.Values) != c.Dimension {
			return nil, fmt.Errorf("embedding: dimension mismatch for chunk %s: expected %d, got %d", chunkIDs[i], c.Dimension, len(e.Values))
		}
		out[i] = Result{ChunkID: chunkIDs[i], Vector: normalize(e.Values)}
	}
	return out, nil
}

type nonRetryableError struct{ err error }

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

func isNonRetryable(err error) bool {
	_, ok := err.(*nonRetryableError)
	return ok
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*batchEmbedResponse, error) {
	url := fmt.Sprintf(embedEndpoint, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &nonRetryableError{err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded batchEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	// Auth/validation errors are not transient; don't burn retry budget on them.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		msg := fmt.Sprintf("embedding provider returned %d", resp.StatusCode)
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return nil, &nonRetryableError{fmt.Errorf(msg)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding provider returned %d", resp.StatusCode)
	}
	return &decoded, nil
}

// normalize L2-normalizes a vector in place and returns it, matching the
// teacher's generateQueryEmbedding post-processing.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
