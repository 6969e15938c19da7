// Package judge implements the LLM Judge Adapter (§4.4): deterministic,
// temperature-0 adjudication of AMBIGUOUS-band chunk pairs, with
// exponential backoff on rate limits and strict-JSON parsing. Grounded on
// service/draft_service.go's callGenerationAPI (direct Gemini HTTP call,
// not the genai SDK's higher-level helpers, to keep full control over the
// response-shape error handling the teacher already does there) and on
// other_examples/fairyhunter13-ai-cv-evaluator's markdown-fence-stripping
// JSON parse fallback for the judge's strict-output contract.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cvready/models"
)

const (
	generateEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	defaultModel     = "gemini-2.0-flash"
	maxRetries       = 3
	initialBackoff   = time.Second
	maxReasonLen     = 200
)

const promptTemplate = `You are a strict grader comparing a job-description requirement against a résumé excerpt. You never give quality advice or suggestions, only a classification.

Requirement: %q
Résumé excerpt (section: %s): %q

Classify the match as exactly one of: FULL, PARTIAL, NONE.
- FULL: the excerpt clearly and directly satisfies the requirement.
- PARTIAL: the excerpt is related but doesn't fully satisfy the requirement.
- NONE: the excerpt does not support the requirement.

Respond with strict JSON only, no markdown fences, matching this shape:
{"status": "FULL|PARTIAL|NONE", "reason": "<= 200 chars", "confidence": "low|medium|high"}`

// Input is one chunk pair to adjudicate.
type Input struct {
	RuleChunkContent string
	CvChunkContent   string
	SectionType      models.SectionType
}

// Client is a thin HTTP client over Gemini's generateContent endpoint,
// fixed at temperature 0 per §4.4's determinism requirement.
type Client struct {
	APIKey string
	Model  string
	HTTP   *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{APIKey: apiKey, Model: defaultModel, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// call performs one generateContent request, returning the raw text of
// the first candidate. Rate-limit (429) responses and transport
// failures are reported as retryable; everything else is either a hard
// failure or success.
func (c *Client) call(ctx context.Context, prompt string) (string, bool /*retryable*/, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0},
	})
	if err != nil {
		return "", false, fmt.Errorf("judge: marshal request: %w", err)
	}

	url := fmt.Sprintf(generateEndpoint, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", false, fmt.Errorf("judge: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("judge: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("judge: rate limited")
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", false, fmt.Errorf("judge: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", false, fmt.Errorf("judge: provider error: %s", decoded.Error.Message)
	}
	if decoded.PromptFeedback.BlockReason != "" {
		return "", false, fmt.Errorf("judge: prompt blocked: %s", decoded.PromptFeedback.BlockReason)
	}
	if len(decoded.Candidates) == 0 {
		return "", false, fmt.Errorf("judge: no candidates returned")
	}
	cand := decoded.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != "STOP" {
		return "", false, fmt.Errorf("judge: candidate finished with reason %s", cand.FinishReason)
	}
	if len(cand.Content.Parts) == 0 {
		return "", false, fmt.Errorf("judge: empty candidate content")
	}
	return cand.Content.Parts[0].Text, false, nil
}

type verdictJSON struct {
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	Confidence string `json:"confidence"`
}

// parseVerdict strips markdown fences (models sometimes wrap strict JSON
// in ```json blocks despite instructions) and validates the decoded
// fields. Parse failure yields status=NONE, confidence=low with a canned
// reason, never an error — per §4.4/§7, judge parse failure is a
// first-class degraded result, not an exception.
func parseVerdict(raw string) models.JudgeVerdict {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var v verdictJSON
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return canned()
	}

	status := models.JudgeStatus(strings.ToUpper(strings.TrimSpace(v.Status)))
	if status != models.JudgeFull && status != models.JudgePartial && status != models.JudgeNone {
		return canned()
	}
	confidence := models.JudgeConfidence(strings.ToLower(strings.TrimSpace(v.Confidence)))
	if confidence != models.ConfidenceLow && confidence != models.ConfidenceMedium && confidence != models.ConfidenceHigh {
		confidence = models.ConfidenceMedium
	}
	reason := v.Reason
	if len(reason) > maxReasonLen {
		reason = reason[:maxReasonLen]
	}
	return models.JudgeVerdict{Status: status, Reason: reason, Confidence: confidence}
}

func canned() models.JudgeVerdict {
	return models.JudgeVerdict{Status: models.JudgeNone, Reason: "judge response was not valid JSON", Confidence: models.ConfidenceLow}
}

// Judge performs one adjudication, retrying rate limits and transport
// failures up to three attempts in total, waiting 1s and then 2s between
// them, before resolving to unavailable=true.
func (c *Client) Judge(ctx context.Context, in Input) models.JudgeOutcome {
	prompt := fmt.Sprintf(promptTemplate, in.RuleChunkContent, in.SectionType, in.CvChunkContent)

	start := time.Now()
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return models.JudgeOutcome{Used: true, Unavailable: true, LatencyMs: time.Since(start).Milliseconds()}
			}
			backoff *= 2
		}

		text, retryable, err := c.call(ctx, prompt)
		if err == nil {
			return models.JudgeOutcome{
				Used:      true,
				Result:    verdictPtr(parseVerdict(text)),
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	_ = lastErr
	return models.JudgeOutcome{Used: true, Unavailable: true, LatencyMs: time.Since(start).Milliseconds()}
}

func verdictPtr(v models.JudgeVerdict) *models.JudgeVerdict { return &v }
