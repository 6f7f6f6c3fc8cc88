// Package ranker calls an external text-completion service to re-rank task
// batches. Every failure mode degrades to the engine's deterministic
// fallback; this package never blocks beyond its configured timeout.
package ranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/services"
	"github.com/sony/gobreaker/v2"
)

// Config configures the completion ranker.
type Config struct {
	// Endpoint is the chat-completions URL.
	Endpoint string

	// Model is the completion model identifier.
	Model string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout bounds the single HTTP attempt.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that opens the
	// circuit breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig(endpoint, model, apiKey string) Config {
	return Config{
		Endpoint:         endpoint,
		Model:            model,
		APIKey:           apiKey,
		Timeout:          10 * time.Second,
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// CompletionRanker implements services.TaskRanker over an OpenAI-style
// chat-completions endpoint, guarded by a circuit breaker. Exactly one
// attempt per call; no retries.
type CompletionRanker struct {
	config  Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewCompletionRanker creates a ranker client.
func NewCompletionRanker(cfg Config, logger *slog.Logger) *CompletionRanker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "external-ranker",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("ranker circuit breaker state changed",
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &CompletionRanker{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete submits the ranking prompt and returns the raw completion text.
func (r *CompletionRanker) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := r.breaker.Execute(func() (string, error) {
		return r.complete(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", services.ErrRankerUnavailable, err)
	}
	return completion, nil
}

func (r *CompletionRanker) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a task prioritization assistant. Respond only with a comma-separated list of task IDs."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ranker request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ranker returned status %d: %s", resp.StatusCode, string(limited))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}

	return parsed.Choices[0].Message.Content, nil
}
