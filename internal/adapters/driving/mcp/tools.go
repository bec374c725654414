package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the symptom, error code or question to look up"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"chunks per document (default: retrieval.top_k)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Snippets []domain.Snippet `json:"snippets"`
	Count    int              `json:"count"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the troubleshooting question"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"chunks per document (default: retrieval.top_k)"`
	Summarize bool   `json:"summarize,omitempty" jsonschema:"summarise the retrieved context instead of answering"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string `json:"answer"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []driving.DocumentSummary `json:"documents"`
	TableRows int                       `json:"table_rows"`
}

// IngestFileInput is the input schema for the ingest_file tool.
type IngestFileInput struct {
	Path string `json:"path" jsonschema:"local path of a pdf, csv, xlsx, txt, md or log file"`
}

// SearchTablesInput is the input schema for the search_tables tool.
type SearchTablesInput struct {
	Query string `json:"query" jsonschema:"words to match against fault table rows"`
}

// SearchTablesOutput is the output schema for the search_tables tool.
type SearchTablesOutput struct {
	Rows []string `json:"rows"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve manual excerpts and fault table rows relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask the troubleshooting assistant a question grounded in the ingested manuals",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_tables",
		Description: "Find fault table rows containing any of the query words",
	}, s.handleSearchTables)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List ingested manuals and the pooled table row count",
		}, s.handleListDocuments)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_file",
			Description: "Ingest a local manual or fault table",
		}, s.handleIngestFile)
	}
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	snippets, err := s.ports.Assistant.Snippets(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	if snippets == nil {
		snippets = []domain.Snippet{}
	}

	return nil, RetrieveOutput{Snippets: snippets, Count: len(snippets)}, nil
}

// handleAsk never fails on a backend error; the error is part of the answer.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	req := driving.AskRequest{Query: input.Question, TopK: input.TopK}
	if input.Summarize {
		req.Mode = domain.ModeSummarize
	}
	return nil, AskOutput{Answer: s.ports.Assistant.Reply(ctx, req)}, nil
}

func (s *Server) handleSearchTables(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchTablesInput,
) (*mcp.CallToolResult, SearchTablesOutput, error) {
	rows := s.ports.Assistant.SearchTables(input.Query)
	if rows == nil {
		rows = []string{}
	}
	return nil, SearchTablesOutput{Rows: rows}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Ingest == nil {
		return nil, ListDocumentsOutput{}, ErrIngestUnavailable
	}

	docs := s.ports.Ingest.Documents(ctx)
	if docs == nil {
		docs = []driving.DocumentSummary{}
	}
	return nil, ListDocumentsOutput{
		Documents: docs,
		TableRows: s.ports.Ingest.TableRowCount(),
	}, nil
}

func (s *Server) handleIngestFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFileInput,
) (*mcp.CallToolResult, driving.IngestReport, error) {
	if s.ports.Ingest == nil {
		return nil, driving.IngestReport{}, ErrIngestUnavailable
	}
	if input.Path == "" {
		return nil, driving.IngestReport{}, fmt.Errorf("%w: path is required", domain.ErrInvalidArgument)
	}

	report, err := s.ports.Ingest.IngestFile(ctx, input.Path)
	if err != nil {
		return nil, driving.IngestReport{}, err
	}
	return nil, *report, nil
}
