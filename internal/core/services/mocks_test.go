package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/postprocessors/chunker"
)

var errBackendDown = errors.New("connection refused")

// mockEmbedder is a bag-of-words embedder: each lowercased word adds one
// to a hashed bucket, so texts sharing words are close.
type mockEmbedder struct {
	dim      int
	err      error
	queryErr error
	calls    atomic.Int32
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dim: 16}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	vecs, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(m.dim)]++
	}
	return v
}

func (m *mockEmbedder) Dimensions() int              { return m.dim }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                 { return nil }

// mockGenerator records the messages it is sent.
type mockGenerator struct {
	mu        sync.Mutex
	reply     string
	tokens    []string
	err       error
	streamErr error
	requests  [][]domain.ConversationTurn
}

func (m *mockGenerator) record(messages []domain.ConversationTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]domain.ConversationTurn, len(messages))
	copy(cp, messages)
	m.requests = append(m.requests, cp)
}

func (m *mockGenerator) last() []domain.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockGenerator) Complete(
	_ context.Context,
	messages []domain.ConversationTurn,
	_ driven.GenerateOptions,
) (string, error) {
	m.record(messages)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenerator) Stream(
	_ context.Context,
	messages []domain.ConversationTurn,
	_ driven.GenerateOptions,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.record(messages)
		for _, tok := range m.tokens {
			if !yield(tok, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield("", m.streamErr)
		}
	}
}

func (m *mockGenerator) ModelName() string            { return "mock-model" }
func (m *mockGenerator) Ping(_ context.Context) error { return m.err }
func (m *mockGenerator) Close() error                 { return nil }

// mockPrompts serves fixed prompt templates.
type mockPrompts map[string]string

func (m mockPrompts) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m mockPrompts) Reload() {}

// failingSnapshots rejects every write.
type failingSnapshots struct{}

func (failingSnapshots) SaveDocument(context.Context, *domain.Document) error { return errBackendDown }
func (failingSnapshots) LoadDocuments(context.Context) ([]domain.Document, error) {
	return nil, errBackendDown
}
func (failingSnapshots) DeleteDocument(context.Context, string) error            { return errBackendDown }
func (failingSnapshots) AppendTableRows(context.Context, []domain.TableRow) error { return errBackendDown }
func (failingSnapshots) LoadTableRows(context.Context) ([]domain.TableRow, error) {
	return nil, errBackendDown
}
func (failingSnapshots) Close() error { return nil }

// mockNormaliser returns a fixed extraction for its extensions.
type mockNormaliser struct {
	exts       []string
	mimes      []string
	extraction *domain.Extraction
	err        error
}

func (m *mockNormaliser) SupportedMIMETypes() []string  { return m.mimes }
func (m *mockNormaliser) SupportedExtensions() []string { return m.exts }

func (m *mockNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Extraction, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.extraction != nil {
		return m.extraction, nil
	}
	return &domain.Extraction{Kind: domain.ExtractionText, Text: string(raw.Content)}, nil
}

// mockUploads records saved uploads.
type mockUploads struct {
	saved map[string][]byte
	err   error
}

func (m *mockUploads) Save(kind domain.ExtractionKind, name string, content []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	path := "/uploads/" + kind.String() + "/" + name
	m.saved[path] = content
	return path, nil
}

// newTestDocumentStore wires a document store with the default chunk size.
func newTestDocumentStore(embedder driven.Embedder, snapshots driven.SnapshotStore) *DocumentStore {
	return NewDocumentStore(chunker.New(), embedder, flat.Factory, snapshots)
}

// testStack is a fully wired core with fakes at the edges.
type testStack struct {
	embedder  *mockEmbedder
	generator *mockGenerator
	docs      *DocumentStore
	tables    *TableStore
	retriever *Retriever
	assembler *ContextAssembler
	assistant *Assistant
}

func newTestStack() *testStack {
	s := &testStack{
		embedder:  newMockEmbedder(),
		generator: &mockGenerator{reply: "Check the fan.", tokens: []string{"Check ", "the ", "fan."}},
		tables:    NewTableStore(nil),
	}
	s.docs = newTestDocumentStore(s.embedder, nil)
	s.retriever = NewRetriever(s.docs, s.tables, s.embedder)
	s.assembler = NewContextAssembler(s.retriever, nil, domain.DefaultTopK)
	s.assistant = NewAssistant(s.retriever, s.tables, s.assembler, s.generator,
		driven.GenerateOptions{Temperature: domain.DefaultTemperature})
	return s
}

// fixedChunker returns the same chunks for any text.
type fixedChunker []string

func (f fixedChunker) Chunks(documentName, _ string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(f))
	for i, c := range f {
		chunks[i] = domain.Chunk{ID: fmt.Sprintf("%s-%d", documentName, i), DocumentName: documentName, Content: c, Position: i}
	}
	return chunks
}

var flatFactory driven.IndexFactory = flat.Factory
