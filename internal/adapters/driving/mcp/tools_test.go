package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

func newTestServer(t *testing.T, assistant *mockAssistant, ingest *mockIngest) *Server {
	t.Helper()
	ports := &Ports{Assistant: assistant}
	if ingest != nil {
		ports.Ingest = ingest
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns snippets", func(t *testing.T) {
		assistant := &mockAssistant{snippets: []domain.Snippet{
			{Kind: domain.SnippetChunk, Source: "pump.pdf", Text: "reset the relay", Distance: 0.5},
			{Kind: domain.SnippetRow, Source: "codes.csv", Text: "code: E101 | desc: motor overheat"},
		}}
		server := newTestServer(t, assistant, nil)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "E101", TopK: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "pump.pdf", output.Snippets[0].Source)
		assert.Equal(t, 2, assistant.lastTopK)
	})

	t.Run("omitted top k defers to settings", func(t *testing.T) {
		assistant := &mockAssistant{}
		server := newTestServer(t, assistant, nil)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "x"})

		require.NoError(t, err)
		assert.Zero(t, assistant.lastTopK)
		assert.NotNil(t, output.Snippets)
		assert.Zero(t, output.Count)
	})

	t.Run("invalid top k is an error", func(t *testing.T) {
		assistant := &mockAssistant{err: domain.ErrInvalidArgument}
		server := newTestServer(t, assistant, nil)

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "x", TopK: -1})

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("normal mode", func(t *testing.T) {
		assistant := &mockAssistant{reply: "Check the thermal relay."}
		server := newTestServer(t, assistant, nil)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "E101?", TopK: 4})

		require.NoError(t, err)
		assert.Equal(t, "Check the thermal relay.", output.Answer)
		assert.Equal(t, domain.ModeNormal, assistant.lastReq.Mode)
		assert.Equal(t, 4, assistant.lastReq.TopK)
		assert.Equal(t, "E101?", assistant.lastReq.Query)
	})

	t.Run("summarize mode", func(t *testing.T) {
		assistant := &mockAssistant{reply: "Summary."}
		server := newTestServer(t, assistant, nil)

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "pump", Summarize: true})

		require.NoError(t, err)
		assert.Equal(t, domain.ModeSummarize, assistant.lastReq.Mode)
	})

	t.Run("backend failure is returned as text", func(t *testing.T) {
		assistant := &mockAssistant{reply: "Error: connection refused"}
		server := newTestServer(t, assistant, nil)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "x"})

		require.NoError(t, err)
		assert.Equal(t, "Error: connection refused", output.Answer)
	})
}

func TestServer_handleSearchTables(t *testing.T) {
	server := newTestServer(t, &mockAssistant{rows: []string{"code: E101 | desc: motor overheat"}}, nil)

	_, output, err := server.handleSearchTables(context.Background(), nil, SearchTablesInput{Query: "overheat"})

	require.NoError(t, err)
	assert.Equal(t, []string{"code: E101 | desc: motor overheat"}, output.Rows)

	server = newTestServer(t, &mockAssistant{}, nil)
	_, output, err = server.handleSearchTables(context.Background(), nil, SearchTablesInput{Query: "none"})
	require.NoError(t, err)
	assert.NotNil(t, output.Rows)
	assert.Empty(t, output.Rows)
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents and rows", func(t *testing.T) {
		ingest := &mockIngest{
			docs: []driving.DocumentSummary{{Name: "pump.pdf", Chunks: 3}},
			rows: 12,
		}
		server := newTestServer(t, &mockAssistant{}, ingest)

		_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.NoError(t, err)
		require.Len(t, output.Documents, 1)
		assert.Equal(t, "pump.pdf", output.Documents[0].Name)
		assert.Equal(t, 12, output.TableRows)
	})

	t.Run("without ingest service", func(t *testing.T) {
		server := newTestServer(t, &mockAssistant{}, nil)

		_, _, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		assert.ErrorIs(t, err, ErrIngestUnavailable)
	})
}

func TestServer_handleIngestFile(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests path", func(t *testing.T) {
		ingest := &mockIngest{report: &driving.IngestReport{Name: "pump.pdf", Chunks: 4}}
		server := newTestServer(t, &mockAssistant{}, ingest)

		_, report, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: "/tmp/pump.pdf"})

		require.NoError(t, err)
		assert.Equal(t, "pump.pdf", report.Name)
		assert.Equal(t, 4, report.Chunks)
		assert.Equal(t, "/tmp/pump.pdf", ingest.lastPath)
	})

	t.Run("empty path", func(t *testing.T) {
		server := newTestServer(t, &mockAssistant{}, &mockIngest{})

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("ingest failure", func(t *testing.T) {
		ingest := &mockIngest{err: errors.New("unsupported file type")}
		server := newTestServer(t, &mockAssistant{}, ingest)

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: "a.bin"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported file type")
	})

	t.Run("without ingest service", func(t *testing.T) {
		server := newTestServer(t, &mockAssistant{}, nil)

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: "a.pdf"})

		assert.ErrorIs(t, err, ErrIngestUnavailable)
	})
}
