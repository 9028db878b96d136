package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const openaiAPIURL = "https://api.openai.com/v1"
const openaiDefaultModel = "gpt-4-turbo"

// Per-million-token USD pricing.
var openaiPricing = map[string]modelPricing{
	"gpt-4-turbo":   {input: 10.0, output: 30.0},
	"gpt-4":         {input: 30.0, output: 60.0},
	"gpt-3.5-turbo": {input: 0.50, output: 1.50},
}

// OpenAI reviews prompts through the chat completions API. Replies arrive in
// a "choices" list.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client

	maxAttempts int
	retryDelay  time.Duration
}

// NewOpenAI validates the key format and builds a client. A missing or
// malformed key is a configuration error, never retried.
func NewOpenAI(settings Settings) (*OpenAI, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrAPIKey)
	}
	if !strings.HasPrefix(settings.APIKey, "sk-") {
		return nil, fmt.Errorf("%w: OpenAI keys start with sk-", ErrAPIKey)
	}

	model := settings.Model
	if model == "" {
		model = openaiDefaultModel
	}

	return &OpenAI{
		apiKey:      settings.APIKey,
		model:       model,
		baseURL:     openaiAPIURL,
		client:      &http.Client{Timeout: 120 * time.Second},
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}, nil
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.model }

// SetTestTransport points the client at a test server.
func (o *OpenAI) SetTestTransport(url string) {
	o.baseURL = url
	o.retryDelay = 0
}

// SetRetryPolicy overrides the attempt ceiling and base delay.
func (o *OpenAI) SetRetryPolicy(maxAttempts int, delay time.Duration) {
	o.maxAttempts = maxAttempts
	o.retryDelay = delay
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []openaiMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openaiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateReview sends the review request and returns the parsed, schema-
// checked JSON reply, retrying transient failures per the provider policy.
func (o *OpenAI) GenerateReview(ctx context.Context, promptText, systemPrompt string, temperature float64, maxTokens int) (map[string]any, error) {
	userMessage := BuildReviewRequest(promptText)

	return runWithRetries(ctx, o.maxAttempts, o.retryDelay, func(ctx context.Context) (map[string]any, error) {
		raw, err := o.complete(ctx, systemPrompt, userMessage, temperature, maxTokens)
		if err != nil {
			return nil, err
		}
		return parseReviewReply(raw)
	})
}

func (o *OpenAI) complete(ctx context.Context, systemPrompt, userMessage string, temperature float64, maxTokens int) (string, error) {
	reqBody := openaiRequest{
		Model: o.model,
		Messages: []openaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	reqBody.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openaiError
		detail := string(respBody)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			detail = errResp.Error.Message
		}
		return "", classifyStatus(resp.StatusCode, detail)
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal response envelope: %v", ErrParse, err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrParse)
	}

	return apiResp.Choices[0].Message.Content, nil
}

// CountTokens is a cheap local approximation.
func (o *OpenAI) CountTokens(text string) int {
	return countTokens(text)
}

// EstimateCost looks the active model up in the pricing table; unknown models
// fall back to the default model's pricing.
func (o *OpenAI) EstimateCost(inputTokens, outputTokens int) float64 {
	return estimateCost(openaiPricing, o.model, openaiDefaultModel, inputTokens, outputTokens)
}

func classifyStatus(status int, detail string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: api error %d: %s", ErrRateLimited, status, detail)
	case status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: api error %d: %s", ErrTimeout, status, detail)
	case status >= 500:
		return fmt.Errorf("%w: api error %d: %s", ErrServer, status, detail)
	}
	return fmt.Errorf("api error %d: %s", status, detail)
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("api call: %w", err)
}
