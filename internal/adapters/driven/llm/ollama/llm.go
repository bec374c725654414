// Package ollama provides a GenerationClient using Ollama's /api/chat.
package ollama

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
	DefaultBaseURL       = "http://localhost:11434"
	DefaultModel         = "llama3.2"
	DefaultTimeout       = 120 * time.Second
	DefaultStreamTimeout = 300 * time.Second
)

// Config holds configuration for the Ollama client.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model to use (default: llama3.2).
	Model string

	// Timeout bounds a non-streaming call (default: 120s).
	Timeout time.Duration

	// StreamTimeout bounds a whole streaming call (default: 300s).
	StreamTimeout time.Duration
}

// Client provides chat completion using Ollama.
type Client struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	model        string
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is one /api/chat response object. Streaming responses
// are a sequence of these, one per line.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// New creates a new Ollama generation client.
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
		model:        cfg.Model,
	}
}

// Complete sends the messages and returns the assistant message.
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

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrGenerationBackend, err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", domain.ErrGenerationBackend, chatResp.Error)
	}
	return chatResp.Message.Content, nil
}

// Stream yields message fragments from the newline-delimited JSON stream
// until an object with done=true arrives.
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
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk chatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				yield("", fmt.Errorf("%w: ollama: %s", domain.ErrGenerationBackend, chunk.Error))
				return
			}
			if chunk.Message.Content != "" && !yield(chunk.Message.Content, nil) {
				return
			}
			if chunk.Done {
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
		Model:    c.model,
		Messages: msgs,
		Stream:   stream,
		Options: options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	}
}

func (c *Client) post(ctx context.Context, client *http.Client, body chatRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrGenerationBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrGenerationBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", domain.ErrGenerationBackend, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama error (status %d): %s",
			domain.ErrGenerationBackend, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return c.model
}

// Ping checks the Ollama server responds.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: create ping request: %w", domain.ErrGenerationBackend, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ollama not reachable: %w", domain.ErrGenerationBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama ping failed with status %d", domain.ErrGenerationBackend, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	c.streamClient.CloseIdleConnections()
	return nil
}
