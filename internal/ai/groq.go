package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/procurelens/supplier-insights-backend/internal/model"
)

// Groq call parameters. Temperature stays low to favour consistent
// classifications across identical requests.
const (
	groqTemperature = 0.3
	groqMaxTokens   = 2000
	groqTimeout     = 60 * time.Second
)

// External-path confidence adjustment: externally generated analyses get a
// fixed bonus over the fallback's 0.65, capped below certainty. Applied once,
// after normalization has already clamped and rounded.
const (
	confidenceBonus = 0.2
	confidenceCap   = 0.95
)

// DefaultGroqBaseURL is the OpenAI-compatible Groq API root.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// groqClient is the concrete Analyst backed by the Groq API. Groq exposes an
// OpenAI-compatible /chat/completions endpoint, so the request/response
// shapes are standard OpenAI chat format.
type groqClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGroqClient returns an Analyst that calls the Groq API.
//   - apiKey:  your GROQ_API_KEY
//   - model:   e.g. "llama-3.3-70b-versatile"
//   - baseURL: empty means DefaultGroqBaseURL
func NewGroqClient(apiKey, model, baseURL string) Analyst {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	return &groqClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: groqTimeout,
		},
	}
}

// ─── OPENAI-COMPATIBLE API SHAPES ────────────────────────────────────────────

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat instructs the model to return a single valid JSON object.
type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// GenerateInsights runs the full external path: prompt → call → parse →
// normalize → confidence bonus. Any error aborts the whole call; the
// orchestrator decides what happens next.
func (c *groqClient) GenerateInsights(ctx context.Context, req *model.InsightRequest) (model.InsightResult, error) {
	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return model.InsightResult{}, err
	}

	reqBody := openAIRequest{
		Model:       c.model,
		Temperature: groqTemperature,
		MaxTokens:   groqMaxTokens,
		// json_object mode guarantees valid JSON on the happy path; the
		// parser still strips fences and repairs defensively.
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	raw, err := c.call(ctx, reqBody)
	if err != nil {
		return model.InsightResult{}, err
	}

	obj, err := parseObject(raw)
	if err != nil {
		return model.InsightResult{}, err
	}

	result, err := normalize(obj, req)
	if err != nil {
		return model.InsightResult{}, err
	}

	result.ConfidenceScore = adjustConfidence(result.ConfidenceScore)
	return result, nil
}

// call sends one request to the Groq chat completions endpoint and returns
// the text content of the first choice. Never retried: a single failure
// hands the request to the fallback path immediately.
func (c *groqClient) call(ctx context.Context, reqBody openAIRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB cap
	if err != nil {
		return "", fmt.Errorf("ai: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(respBytes)}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("ai: unmarshal response: %w", err)
	}

	if parsed.Error != nil {
		return "", &UpstreamError{
			Status: resp.StatusCode,
			Body:   fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message),
		}
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai: no choices in response")
	}

	return parsed.Choices[0].Message.Content, nil
}
