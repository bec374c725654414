package httpapi

import (
	"context"
	"iter"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

type mockAssistant struct {
	snippets []domain.Snippet
	rows     []string
	answer   string
	tokens   []string
	err      error

	lastReq  driving.AskRequest
	lastTopK int
}

func (m *mockAssistant) Retrieve(_ context.Context, _ string, topK int) (string, error) {
	m.lastTopK = topK
	return domain.JoinSnippets(m.snippets), m.err
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
	return m.answer, m.err
}

func (m *mockAssistant) Stream(_ context.Context, req driving.AskRequest) iter.Seq2[string, error] {
	m.lastReq = req
	return func(yield func(string, error) bool) {
		for _, t := range m.tokens {
			if !yield(t, nil) {
				return
			}
		}
		if m.err != nil {
			yield("", m.err)
		}
	}
}

func (m *mockAssistant) Reply(_ context.Context, req driving.AskRequest) string {
	m.lastReq = req
	return m.answer
}

func (m *mockAssistant) StreamReply(_ context.Context, req driving.AskRequest) iter.Seq[string] {
	m.lastReq = req
	return func(yield func(string) bool) {
		yield(m.answer)
	}
}

func (m *mockAssistant) Respond(_ context.Context, _ *domain.Session, _ string) iter.Seq[string] {
	return func(yield func(string) bool) {
		yield(m.answer)
	}
}

type mockIngest struct {
	docs    []driving.DocumentSummary
	rows    int
	report  *driving.IngestReport
	err     error
	removed string

	uploadName    string
	uploadContent []byte
}

func (m *mockIngest) IngestFile(_ context.Context, _ string) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngest) IngestUpload(_ context.Context, name string, content []byte) (*driving.IngestReport, error) {
	m.uploadName = name
	m.uploadContent = content
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

func (m *mockIngest) RemoveDocument(_ context.Context, name string) error {
	m.removed = name
	return m.err
}

func (m *mockIngest) TableRowCount() int {
	return m.rows
}
