package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

var testMessages = []domain.ConversationTurn{
	{Role: domain.RoleSystem, Content: "You troubleshoot."},
	{Role: domain.RoleUser, Content: "first"},
	{Role: domain.RoleAssistant, Content: "reply"},
	{Role: domain.RoleUser, Content: "ctx\n\nQ: why?"},
}

const messageJSON = `{
  "id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
  "content": [{"type": "text", "text": "Check the "}, {"type": "text", "text": "thermal fuse."}],
  "stop_reason": "end_turn", "stop_sequence": null,
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, c.ModelName())
	assert.Equal(t, DefaultMaxTokens, c.maxTokens)
	assert.NoError(t, c.Close())
}

func TestClient_Params(t *testing.T) {
	c, err := New(Config{APIKey: "k", MaxTokens: 256})
	require.NoError(t, err)

	p := c.params(testMessages, driven.GenerateOptions{Temperature: 0.7})

	assert.Equal(t, int64(256), p.MaxTokens)
	require.Len(t, p.System, 1)
	assert.Equal(t, "You troubleshoot.", p.System[0].Text)
	require.Len(t, p.Messages, 3)
	assert.Equal(t, "user", string(p.Messages[0].Role))
	assert.Equal(t, "assistant", string(p.Messages[1].Role))

	p = c.params(testMessages[1:2], driven.GenerateOptions{MaxTokens: 32})
	assert.Equal(t, int64(32), p.MaxTokens)
	assert.Empty(t, p.System)
}

func TestClient_Complete(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageJSON))
	})

	reply, err := c.Complete(context.Background(), testMessages, driven.GenerateOptions{Temperature: 0.7})

	require.NoError(t, err)
	assert.Equal(t, "Check the thermal fuse.", reply)
	assert.Equal(t, DefaultModel, body["model"])
	assert.NotNil(t, body["system"])
}

func TestClient_CompleteError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	})

	_, err := c.Complete(context.Background(), testMessages, driven.GenerateOptions{})

	assert.ErrorIs(t, err, domain.ErrGenerationBackend)
}

func writeEvent(w http.ResponseWriter, event, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	w.(http.Flusher).Flush()
}

func TestClient_Stream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":0}}}`)
		writeEvent(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Bleed "}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"the pump."}}`)
		writeEvent(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":4}}`)
		writeEvent(w, "message_stop", `{"type":"message_stop"}`)
	})

	var tokens []string
	for tok, err := range c.Stream(context.Background(), testMessages, driven.GenerateOptions{}) {
		require.NoError(t, err)
		tokens = append(tokens, tok)
	}

	assert.Equal(t, []string{"Bleed ", "the pump."}, tokens)
}

func TestClient_StreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	var errs []error
	for _, err := range c.Stream(context.Background(), testMessages, driven.GenerateOptions{}) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrGenerationBackend)
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[],"has_more":false,"first_id":null,"last_id":null}`))
	})

	assert.NoError(t, c.Ping(context.Background()))
}
