package cli

import (
	"bytes"
	"context"
	"iter"
	"strings"
	"testing"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/watch"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// mockAssistant is a mock implementation of driving.AssistantService.
type mockAssistant struct {
	snippets []domain.Snippet
	rows     []string
	tokens   []string
	reply    string
	err      error

	lastReq    driving.AskRequest
	lastQuery  string
	lastTopK   int
	streamed   bool
	prompts    []string
	summarized []bool
}

func (m *mockAssistant) Retrieve(_ context.Context, query string, topK int) (string, error) {
	m.lastQuery, m.lastTopK = query, topK
	return domain.JoinSnippets(m.snippets), m.err
}

func (m *mockAssistant) Snippets(_ context.Context, query string, topK int) ([]domain.Snippet, error) {
	m.lastQuery, m.lastTopK = query, topK
	return m.snippets, m.err
}

func (m *mockAssistant) SearchTables(query string) []string {
	m.lastQuery = query
	return m.rows
}

func (m *mockAssistant) Ask(_ context.Context, req driving.AskRequest) (string, error) {
	m.lastReq = req
	return m.reply, m.err
}

func (m *mockAssistant) Stream(_ context.Context, req driving.AskRequest) iter.Seq2[string, error] {
	m.lastReq = req
	return func(yield func(string, error) bool) {
		for _, t := range m.tokens {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (m *mockAssistant) Reply(_ context.Context, req driving.AskRequest) string {
	m.lastReq = req
	return m.reply
}

func (m *mockAssistant) StreamReply(_ context.Context, req driving.AskRequest) iter.Seq[string] {
	m.lastReq = req
	m.streamed = true
	return func(yield func(string) bool) {
		for _, t := range m.tokens {
			if !yield(t) {
				return
			}
		}
	}
}

func (m *mockAssistant) Respond(_ context.Context, session *domain.Session, prompt string) iter.Seq[string] {
	m.prompts = append(m.prompts, prompt)
	m.summarized = append(m.summarized, session.Summarize)
	return func(yield func(string) bool) {
		yield(m.reply)
		session.Add(domain.RoleUser, prompt)
		session.Add(domain.RoleAssistant, m.reply)
	}
}

// mockIngest is a mock implementation of driving.IngestService.
type mockIngest struct {
	docs    []driving.DocumentSummary
	rows    int
	failOn  map[string]error
	removed []string
	files   []string

	textName    string
	textContent string
	removeErr   error
}

func (m *mockIngest) IngestFile(_ context.Context, path string) (*driving.IngestReport, error) {
	m.files = append(m.files, path)
	for suffix, err := range m.failOn {
		if strings.HasSuffix(path, suffix) {
			return nil, err
		}
	}
	if strings.HasSuffix(path, ".csv") {
		return &driving.IngestReport{Name: path, Kind: domain.ExtractionTable, Rows: 4}, nil
	}
	return &driving.IngestReport{Name: path, Kind: domain.ExtractionText, Chunks: 2}, nil
}

func (m *mockIngest) IngestUpload(_ context.Context, name string, _ []byte) (*driving.IngestReport, error) {
	return &driving.IngestReport{Name: name}, nil
}

func (m *mockIngest) IngestText(_ context.Context, name, text string) (*driving.IngestReport, error) {
	m.textName, m.textContent = name, text
	return &driving.IngestReport{Name: name, Kind: domain.ExtractionText, Chunks: 1}, nil
}

func (m *mockIngest) IngestRows(_ context.Context, source string, rows []domain.Row) (*driving.IngestReport, error) {
	return &driving.IngestReport{Name: source, Kind: domain.ExtractionTable, Rows: len(rows)}, nil
}

func (m *mockIngest) Documents(_ context.Context) []driving.DocumentSummary {
	return m.docs
}

func (m *mockIngest) RemoveDocument(_ context.Context, name string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, name)
	return nil
}

func (m *mockIngest) TableRowCount() int {
	return m.rows
}

// mockSettings is a mock implementation of driving.SettingsService.
type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	saved       *domain.AppSettings
	setKey      string
	setValue    string
	embedPing   error
	genPing     error
}

func newMockSettings() *mockSettings {
	s := domain.DefaultAppSettings()
	s.Storage.DataDir = "/tmp/troubleshoot"
	return &mockSettings{settings: s}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(settings *domain.AppSettings) error {
	m.saved = settings
	return nil
}

func (m *mockSettings) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.setErr
}

func (m *mockSettings) Validate(_ *domain.AppSettings) error {
	return m.validateErr
}

func (m *mockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettings) ValidateEmbeddingConfig(_ context.Context) error {
	return m.embedPing
}

func (m *mockSettings) ValidateGenerationConfig(_ context.Context) error {
	return m.genPing
}

// resetFlags restores package flag variables between runs; cobra keeps
// parsed values on the shared command tree.
func resetFlags() {
	ingestRecursive, ingestJSON, ingestStdinName = false, false, ""
	askTopK, askNoStream = 0, false
	retrieveTopK, retrieveJSON = 0, false
	tablesLimit = 20
	documentsJSON = false
	chatPlain, chatSummarize = false, false
	serveAddr, serveWatchDir = "", ""
	mcpHTTPAddr = ""
	watchScan, watchSettle = true, watch.DefaultSettle
}

// runCommand executes the root command with the given services and returns
// stdout and stderr.
func runCommand(t *testing.T, svc *Services, stdin string, args ...string) (string, string, error) {
	t.Helper()

	resetFlags()
	SetServices(svc)
	t.Cleanup(func() {
		SetServices(nil)
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
