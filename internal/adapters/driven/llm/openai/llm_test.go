package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

var testMessages = []domain.ConversationTurn{
	{Role: domain.RoleSystem, Content: "You are helpful."},
	{Role: domain.RoleUser, Content: "ctx\n\nQ: why?"},
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Replace the fan."}}]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/v1"})
	reply, err := c.Complete(context.Background(), testMessages, driven.GenerateOptions{Temperature: 0.7})

	require.NoError(t, err)
	assert.Equal(t, "Replace the fan.", reply)
	assert.Equal(t, DefaultModel, got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "ctx\n\nQ: why?", got.Messages[1].Content)
}

func TestClient_CompleteSendsZeroTemperature(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL, APIKey: "k"}).Complete(context.Background(), testMessages, driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Contains(t, raw, "temperature")
	assert.NotContains(t, raw, "max_tokens")
}

func TestClient_CompleteMalformed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"not json", http.StatusOK, `<html>`, "decode response"},
		{"api error", http.StatusOK, `{"error":{"message":"model not loaded"}}`, "model not loaded"},
		{"http error", http.StatusServiceUnavailable, `busy`, "status 503: busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(Config{BaseURL: server.URL}).Complete(context.Background(), testMessages, driven.GenerateOptions{})

			assert.ErrorIs(t, err, domain.ErrGenerationBackend)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestClient_CompleteUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	_, err := New(Config{BaseURL: server.URL}).Complete(context.Background(), testMessages, driven.GenerateOptions{})

	assert.ErrorIs(t, err, domain.ErrGenerationBackend)
}

func TestClient_CompleteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Complete(context.Background(), testMessages, driven.GenerateOptions{})

	assert.ErrorIs(t, err, domain.ErrGenerationBackend)
}

func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, l := range lines {
			_, _ = fmt.Fprintf(w, "%s\n\n", l)
			w.(http.Flusher).Flush()
		}
	}))
}

func delta(s string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": s}}},
	})
	return "data: " + string(b)
}

func TestClient_Stream(t *testing.T) {
	server := sseServer(t,
		": keep-alive",
		`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
		delta("Check "),
		"data: not-json",
		delta("the fan."),
		"data: [DONE]",
		delta("ignored"),
	)
	defer server.Close()

	var tokens []string
	for tok, err := range New(Config{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.GenerateOptions{}) {
		require.NoError(t, err)
		tokens = append(tokens, tok)
	}

	assert.Equal(t, []string{"Check ", "the fan."}, tokens)
}

func TestClient_StreamWithoutDoneMarker(t *testing.T) {
	server := sseServer(t, delta("a"), delta("b"))
	defer server.Close()

	var out strings.Builder
	for tok, err := range New(Config{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.GenerateOptions{}) {
		require.NoError(t, err)
		out.WriteString(tok)
	}

	assert.Equal(t, "ab", out.String())
}

func TestClient_StreamHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no model", http.StatusBadRequest)
	}))
	defer server.Close()

	var errs []error
	for _, err := range New(Config{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.GenerateOptions{}) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrGenerationBackend)
	assert.ErrorContains(t, errs[0], "status 400")
}

func TestClient_StreamConsumerStops(t *testing.T) {
	server := sseServer(t, delta("a"), delta("b"), delta("c"))
	defer server.Close()

	var tokens []string
	for tok := range New(Config{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.GenerateOptions{}) {
		tokens = append(tokens, tok)
		break
	}

	assert.Equal(t, []string{"a"}, tokens)
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "qwen2.5"})

	assert.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "qwen2.5", c.ModelName())
	assert.NoError(t, c.Close())
}
