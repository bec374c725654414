// Package openai provides a GenerationClient for OpenAI-compatible
// /chat/completions endpoints such as LM Studio, vLLM and OpenAI.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.GenerationClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = domain.DefaultGenerationBaseURL
	DefaultModel         = domain.DefaultGenerationModel
	DefaultTimeout       = domain.DefaultTimeout
	DefaultStreamTimeout = domain.DefaultStreamTimeout
)

// SSE framing of streamed completions.
const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// Config holds configuration for the client.
type Config struct {
	// APIKey is sent as a bearer token when set. Local servers need none.
	APIKey string

	// BaseURL is the API base URL including the version segment
	// (default: http://localhost:1234/v1).
	BaseURL string

	// Model is sent with every request (default: local-model).
	Model string

	// Timeout bounds a non-streaming call (default: 30s).
	Timeout time.Duration

	// StreamTimeout bounds a whole streaming call (default: 60s).
	StreamTimeout time.Duration
}

// Client talks to an OpenAI-compatible chat completion API.
type Client struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	model        string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// New creates an OpenAI-compatible generation client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StreamTimeout == 0 {
		cfg.StreamTimeout = DefaultStreamTimeout
	}

	return &Client{
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{Timeout: cfg.StreamTimeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
	}
}

// Complete sends the messages and returns choices[0].message.content.
func (c *Client) Complete(
	ctx context.Context,
	messages []domain.ConversationTurn,
	opts driven.GenerateOptions,
) (string, error) {
	resp, err := c.post(ctx, c.client, c.request(messages, opts, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrGenerationBackend, err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrGenerationBackend, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrGenerationBackend, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", domain.ErrGenerationBackend)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Stream sends the messages with stream=true and yields each
// choices[0].delta.content until "data: [DONE]" or end of body.
// Lines that are not data lines or do not decode are skipped.
func (c *Client) Stream(
	ctx context.Context,
	messages []domain.ConversationTurn,
	opts driven.GenerateOptions,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, c.streamClient, c.request(messages, opts, true))
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}
			payload := strings.TrimPrefix(line, dataPrefix)
			if payload == doneMarker {
				return
			}

			var chunk chatChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil || len(chunk.Choices) == 0 {
				continue
			}
			token := chunk.Choices[0].Delta.Content
			if token == "" {
				continue
			}
			if !yield(token, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("%w: read stream: %w", domain.ErrGenerationBackend, err))
		}
	}
}

func (c *Client) request(messages []domain.ConversationTurn, opts driven.GenerateOptions, stream bool) chatRequest {
	msgs := make([]chatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = chatMessage{Role: m.Role.String(), Content: m.Content}
	}
	return chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
}

// post sends a chat request and returns the response if the status is 200.
func (c *Client) post(ctx context.Context, client *http.Client, body chatRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrGenerationBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrGenerationBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationBackend, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrGenerationBackend, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// ModelName returns the model identifier sent with each request.
func (c *Client) ModelName() string {
	return c.model
}

// Ping lists models to check the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: create ping request: %w", domain.ErrGenerationBackend, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrGenerationBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ping returned status %d", domain.ErrGenerationBackend, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	c.streamClient.CloseIdleConnections()
	return nil
}
