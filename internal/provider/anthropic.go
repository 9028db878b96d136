package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicAPIURL = "https://api.anthropic.com/v1"
const anthropicDefaultModel = "claude-3-5-sonnet-20241022"

// Per-million-token USD pricing.
var anthropicPricing = map[string]modelPricing{
	"claude-3-5-sonnet-20241022": {input: 3.0, output: 15.0},
	"claude-3-opus-20240229":     {input: 15.0, output: 75.0},
	"claude-3-sonnet-20240229":   {input: 3.0, output: 15.0},
	"claude-3-haiku-20240307":    {input: 0.25, output: 1.25},
}

// Anthropic reviews prompts through the messages API. Replies arrive as a
// list of content blocks with the text in the first block.
type Anthropic struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client

	maxAttempts int
	retryDelay  time.Duration
}

// NewAnthropic validates the key format and builds a client.
func NewAnthropic(settings Settings) (*Anthropic, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", ErrAPIKey)
	}
	if !strings.HasPrefix(settings.APIKey, "sk-ant-") {
		return nil, fmt.Errorf("%w: Anthropic keys start with sk-ant-", ErrAPIKey)
	}

	model := settings.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	return &Anthropic{
		apiKey:      settings.APIKey,
		model:       model,
		baseURL:     anthropicAPIURL,
		client:      &http.Client{Timeout: 120 * time.Second},
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}, nil
}

func (a *Anthropic) Name() string  { return "anthropic" }
func (a *Anthropic) Model() string { return a.model }

// SetTestTransport points the client at a test server.
func (a *Anthropic) SetTestTransport(url string) {
	a.baseURL = url
	a.retryDelay = 0
}

// SetRetryPolicy overrides the attempt ceiling and base delay.
func (a *Anthropic) SetRetryPolicy(maxAttempts int, delay time.Duration) {
	a.maxAttempts = maxAttempts
	a.retryDelay = delay
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateReview sends the review request and returns the parsed, schema-
// checked JSON reply, retrying transient failures per the provider policy.
func (a *Anthropic) GenerateReview(ctx context.Context, promptText, systemPrompt string, temperature float64, maxTokens int) (map[string]any, error) {
	userMessage := BuildReviewRequest(promptText)

	return runWithRetries(ctx, a.maxAttempts, a.retryDelay, func(ctx context.Context) (map[string]any, error) {
		raw, err := a.complete(ctx, systemPrompt, userMessage, temperature, maxTokens)
		if err != nil {
			return nil, err
		}
		return parseReviewReply(raw)
	})
}

func (a *Anthropic) complete(ctx context.Context, systemPrompt, userMessage string, temperature float64, maxTokens int) (string, error) {
	reqBody := anthropicRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      systemPrompt,
		Temperature: temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: userMessage}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicError
		detail := string(respBody)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			detail = errResp.Error.Message
		}
		return "", classifyStatus(resp.StatusCode, detail)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal response envelope: %v", ErrParse, err)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("%w: empty response content", ErrParse)
	}

	return apiResp.Content[0].Text, nil
}

// CountTokens is a cheap local approximation.
func (a *Anthropic) CountTokens(text string) int {
	return countTokens(text)
}

// EstimateCost looks the active model up in the pricing table; unknown models
// fall back to the default model's pricing.
func (a *Anthropic) EstimateCost(inputTokens, outputTokens int) float64 {
	return estimateCost(anthropicPricing, a.model, anthropicDefaultModel, inputTokens, outputTokens)
}
