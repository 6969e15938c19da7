// Package interview implements the optional mock-interview-question
// collaborator the Evaluation Orchestrator calls in §4.10 step 9. It is
// a narrow orchestrator.InterviewQuestionGenerator implementation,
// grounded on judge/client.go's raw Gemini generateContent call (same
// endpoint family), but single-shot with no retries, since a failure
// here is always non-fatal and simply omits mockQuestions.
package interview

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
	maxQuestions     = 5
)

const promptTemplate = `You are preparing a candidate for a job interview. Given the candidate's resume gaps against a job description and the job description's requirements, write up to %d concise mock interview questions that probe the weakest areas.

Gaps:
%s

Job requirements:
%s

Respond with strict JSON only, no markdown fences: {"questions": ["...", "..."]}`

// Generator calls Gemini's generateContent endpoint to turn JD gaps and
// rules into mock interview questions.
type Generator struct {
	APIKey string
	Model  string
	HTTP   *http.Client
}

func New(apiKey string) *Generator {
	return &Generator{APIKey: apiKey, Model: defaultModel, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (g *Generator) Configured() bool {
	return g != nil && g.APIKey != ""
}

// GenerateQuestions implements orchestrator.InterviewQuestionGenerator.
func (g *Generator) GenerateQuestions(ctx context.Context, gaps []models.Gap, jdRules []models.JDRule) ([]string, error) {
	if !g.Configured() {
		return nil, fmt.Errorf("interview: generator not configured")
	}
	if len(gaps) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(promptTemplate, maxQuestions, formatGaps(gaps), formatRules(jdRules))

	text, err := g.call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("interview: generate questions: %w", err)
	}
	return parseQuestions(text), nil
}

func formatGaps(gaps []models.Gap) string {
	var b strings.Builder
	for _, gp := range gaps {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", gp.Severity, gp.RuleKey, gp.RuleContent)
	}
	return b.String()
}

func formatRules(rules []models.JDRule) string {
	var b strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&b, "- [%s] %s\n", r.Type, r.Content)
	}
	return b.String()
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
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *Generator) call(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0.4},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf(generateEndpoint, g.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	httpClient := g.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("provider error: %s", decoded.Error.Message)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidate content")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

type questionsJSON struct {
	Questions []string `json:"questions"`
}

func parseQuestions(raw string) []string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var q questionsJSON
	if err := json.Unmarshal([]byte(text), &q); err != nil {
		return nil
	}
	if len(q.Questions) > maxQuestions {
		q.Questions = q.Questions[:maxQuestions]
	}
	return q.Questions
}
