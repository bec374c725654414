// Package gemini provides a GenerationClient backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.GenerationClient = (*Client)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// generateAPI is the subset of genai.Models the client calls.
type generateAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)

	GenerateContentStream(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) iter.Seq2[*genai.GenerateContentResponse, error]

	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Config holds configuration for the Gemini client.
type Config struct {
	APIKey string
	Model  string
}

// Client generates replies with Gemini.
type Client struct {
	models generateAPI
	model  string
}

// New creates a Gemini generation client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newWithAPI(client.Models, cfg), nil
}

func newWithAPI(models generateAPI, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{models: models, model: cfg.Model}
}

// request converts turns to Gemini contents. System turns become the
// system instruction; assistant turns use the model role.
func request(messages []domain.ConversationTurn, opts driven.GenerateOptions) ([]*genai.Content, *genai.GenerateContentConfig) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, config
}

// Complete sends the messages and returns the reply text.
func (c *Client) Complete(
	ctx context.Context,
	messages []domain.ConversationTurn,
	opts driven.GenerateOptions,
) (string, error) {
	contents, config := request(messages, opts)
	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", domain.ErrGenerationBackend, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini: response has no candidates", domain.ErrGenerationBackend)
	}
	return resp.Text(), nil
}

// Stream yields the text of each streamed response.
func (c *Client) Stream(
	ctx context.Context,
	messages []domain.ConversationTurn,
	opts driven.GenerateOptions,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents, config := request(messages, opts)
		for resp, err := range c.models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				yield("", fmt.Errorf("%w: gemini stream: %w", domain.ErrGenerationBackend, err))
				return
			}
			if resp == nil {
				continue
			}
			if text := resp.Text(); text != "" && !yield(text, nil) {
				return
			}
		}
	}
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return c.model
}

// Ping fetches the model metadata to validate the key and model name.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("%w: gemini ping: %w", domain.ErrGenerationBackend, err)
	}
	return nil
}

// Close releases resources. The genai client holds none.
func (c *Client) Close() error {
	return nil
}
