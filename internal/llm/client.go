// Package llm wraps the Anthropic Messages API behind the small Completer
// interface the newsroom consumes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Completer issues one structured-text request and returns the raw response.
// All structure is imposed downstream by the extractor; the service itself
// guarantees nothing about the shape of the text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config holds the generation service settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxAttempts is the total number of calls allowed per request,
	// including the first. 2 means one retry.
	MaxAttempts int
	// RetryDelayBase is the backoff before the second attempt; it doubles
	// per subsequent attempt.
	RetryDelayBase time.Duration
}

// Client is an Anthropic-backed Completer with bounded retries.
type Client struct {
	client         *anthropic.Client
	model          anthropic.Model
	temperature    float64
	maxTokens      int
	maxAttempts    int
	retryDelayBase time.Duration
}

// NewClient creates the generation client. A missing API key is a
// configuration error and fails immediately rather than at first use.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		client:         &client,
		model:          anthropic.Model(cfg.Model),
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		maxAttempts:    cfg.MaxAttempts,
		retryDelayBase: cfg.RetryDelayBase,
	}, nil
}

// Complete sends one prompt and returns the concatenated text blocks of the
// response, retrying transient failures with exponential backoff up to the
// configured attempt budget.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	return withRetry(ctx, c.maxAttempts, c.retryDelayBase, func() (string, error) {
		return c.complete(ctx, system, prompt)
	})
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty response from generation service")
	}
	return b.String(), nil
}
