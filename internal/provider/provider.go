package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client is the capability set every review provider implements. A
// GenerateReview call owns its retry budget: transient provider failures and
// malformed replies are retried internally up to the attempt ceiling.
type Client interface {
	Name() string
	Model() string
	GenerateReview(ctx context.Context, promptText, systemPrompt string, temperature float64, maxTokens int) (map[string]any, error)
	CountTokens(text string) int
	EstimateCost(inputTokens, outputTokens int) float64
}

// Settings configures a provider client at construction.
type Settings struct {
	APIKey string
	Model  string // empty selects the provider's default
}

// Failure taxonomy. ErrAPIKey is a configuration error surfaced at client
// construction and never retried; the other three classes are retried up to
// the attempt ceiling. Anything unclassified is fatal on the first attempt.
var (
	ErrAPIKey      = errors.New("invalid api key")
	ErrRateLimited = errors.New("rate limited")
	ErrTimeout     = errors.New("request timeout")
	ErrServer      = errors.New("provider server error")
	ErrParse       = errors.New("response parse failure")
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 2 * time.Second
)

// builders maps provider ids to constructors. New is the single entry point;
// the map is fixed at compile time.
var builders = map[string]func(Settings) (Client, error){
	"openai":    func(s Settings) (Client, error) { return NewOpenAI(s) },
	"anthropic": func(s Settings) (Client, error) { return NewAnthropic(s) },
}

// New constructs the named provider client.
func New(name string, settings Settings) (Client, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q", name)
	}
	return build(settings)
}

// Names lists the supported provider ids.
func Names() []string {
	return []string{"openai", "anthropic"}
}

// runWithRetries drives one attempt function through the retry policy:
// rate limits back off linearly with the attempt number, timeouts, server
// faults and parse failures retry on a fixed delay, anything else fails
// immediately.
func runWithRetries(ctx context.Context, maxAttempts int, delay time.Duration, attempt func(context.Context) (map[string]any, error)) (map[string]any, error) {
	for n := 1; n <= maxAttempts; n++ {
		result, err := attempt(ctx)
		if err == nil {
			return result, nil
		}

		last := n == maxAttempts
		switch {
		case errors.Is(err, ErrRateLimited):
			if last {
				return nil, err
			}
			if serr := sleep(ctx, delay*time.Duration(n)); serr != nil {
				return nil, serr
			}
		case errors.Is(err, ErrTimeout), errors.Is(err, ErrServer), errors.Is(err, ErrParse):
			if last {
				return nil, err
			}
			if serr := sleep(ctx, delay); serr != nil {
				return nil, serr
			}
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", ErrTimeout)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// countTokens is the shared local approximation: one token per four
// characters. It never calls the remote service.
func countTokens(text string) int {
	return len(text) / 4
}

// modelPricing is per-million-token USD pricing for one model.
type modelPricing struct {
	input  float64
	output float64
}

func estimateCost(pricing map[string]modelPricing, model, fallback string, inputTokens, outputTokens int) float64 {
	p, ok := pricing[model]
	if !ok {
		p = pricing[fallback]
	}
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}
