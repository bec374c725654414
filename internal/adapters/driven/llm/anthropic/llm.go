// Package anthropic provides a GenerationClient using the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.GenerationClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultModel         = "claude-3-5-haiku-latest"
	DefaultMaxTokens     = 1024
	DefaultTimeout       = 120 * time.Second
	DefaultStreamTimeout = 300 * time.Second
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("anthropic: API key is required")

// Config holds configuration for the Anthropic client.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string

	// Model is the model to use (default: claude-3-5-haiku-latest).
	Model string

	// MaxTokens is used when a request does not set one (default: 1024).
	// The Messages API requires a limit on every call.
	MaxTokens int

	// Timeout bounds a non-streaming call (default: 120s).
	Timeout time.Duration

	// StreamTimeout bounds a whole streaming call (default: 300s).
	StreamTimeout time.Duration
}

// Client provides chat completion using the Anthropic SDK.
type Client struct {
	messages      *anthropic.MessageService
	models        *anthropic.ModelService
	model         string
	maxTokens     int
	timeout       time.Duration
	streamTimeout time.Duration
}

// New creates an Anthropic generation client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StreamTimeout == 0 {
		cfg.StreamTimeout = DefaultStreamTimeout
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &Client{
		messages:      &client.Messages,
		models:        &client.Models,
		model:         cfg.Model,
		maxTokens:     cfg.MaxTokens,
		timeout:       cfg.Timeout,
		streamTimeout: cfg.StreamTimeout,
	}, nil
}

// params converts conversation turns to a Messages request. System turns
// are lifted into the system parameter since the API has no system role.
func (c *Client) params(messages []domain.ConversationTurn, opts driven.GenerateOptions) anthropic.MessageNewParams {
	var system []string
	msgs := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Messages:    msgs,
		Temperature: anthropic.Float(opts.Temperature),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	return params
}

// Complete sends the messages and returns the concatenated text blocks.
func (c *Client) Complete(
	ctx context.Context,
	messages []domain.ConversationTurn,
	opts driven.GenerateOptions,
) (string, error) {
	resp, err := c.messages.New(ctx, c.params(messages, opts), option.WithRequestTimeout(c.timeout))
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %w", domain.ErrGenerationBackend, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Stream yields text deltas from the event stream.
func (c *Client) Stream(
	ctx context.Context,
	messages []domain.ConversationTurn,
	opts driven.GenerateOptions,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := c.messages.NewStreaming(ctx, c.params(messages, opts), option.WithRequestTimeout(c.streamTimeout))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || text.Text == "" {
				continue
			}
			if !yield(text.Text, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("%w: anthropic stream: %w", domain.ErrGenerationBackend, err))
		}
	}
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return c.model
}

// Ping lists models to validate the API key.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.models.List(ctx, anthropic.ModelListParams{}, option.WithRequestTimeout(c.timeout)); err != nil {
		return fmt.Errorf("%w: anthropic ping: %w", domain.ErrGenerationBackend, err)
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	return nil
}
