package mcp

import (
	"context"
	"iter"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// mockAssistant is a mock implementation of driving.AssistantService.
type mockAssistant struct {
	snippets []domain.Snippet
	rows     []string
	reply    string
	err      error

	lastReq  driving.AskRequest
	lastTopK int
}

func (m *mockAssistant) Retrieve(_ context.Context, _ string, topK int) (string, error) {
	m.lastTopK = topK
	return "", m.err
}

func (m *mockAssistant) Snippets(_ context.Context, _ string, topK int) ([]domain.Snippet, error) {
	m.lastTopK = topK
	return m.snippets, m.err
}

func (m *mockAssistant) SearchTables(_ string) []string {
	return m.rows
}

func (m *mockAssistant) Ask(_ context.Context, req driving.AskRequest) (string, error) {
	m.lastReq = req
	return m.reply, m.err
}

func (m *mockAssistant) Stream(_ context.Context, req driving.AskRequest) iter.Seq2[string, error] {
	m.lastReq = req
	return func(yield func(string, error) bool) {
		yield(m.reply, m.err)
	}
}

func (m *mockAssistant) Reply(_ context.Context, req driving.AskRequest) string {
	m.lastReq = req
	return m.reply
}

func (m *mockAssistant) StreamReply(_ context.Context, req driving.AskRequest) iter.Seq[string] {
	m.lastReq = req
	return func(yield func(string) bool) {
		yield(m.reply)
	}
}

func (m *mockAssistant) Respond(_ context.Context, _ *domain.Session, _ string) iter.Seq[string] {
	return func(yield func(string) bool) {
		yield(m.reply)
	}
}

// mockIngest is a mock implementation of driving.IngestService.
type mockIngest struct {
	docs     []driving.DocumentSummary
	rows     int
	report   *driving.IngestReport
	err      error
	lastPath string
}

func (m *mockIngest) IngestFile(_ context.Context, path string) (*driving.IngestReport, error) {
	m.lastPath = path
	return m.report, m.err
}

func (m *mockIngest) IngestUpload(_ context.Context, _ string, _ []byte) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngest) IngestText(_ context.Context, _, _ string) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngest) IngestRows(_ context.Context, _ string, _ []domain.Row) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngest) Documents(_ context.Context) []driving.DocumentSummary {
	return m.docs
}

func (m *mockIngest) RemoveDocument(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIngest) TableRowCount() int {
	return m.rows
}
