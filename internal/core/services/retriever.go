package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// documentSearcher is the part of DocumentStore the retriever needs.
type documentSearcher interface {
	ListDocuments() []string
	Search(ctx context.Context, name string, vec []float32, k int) ([]domain.ChunkMatch, error)
}

// tableSearcher is the part of TableStore the retriever needs.
type tableSearcher interface {
	Matches(query string) []domain.TableRow
}

// Retriever merges per-document vector search with lexical table search
// into a bounded context.
type Retriever struct {
	docs     documentSearcher
	tables   tableSearcher
	embedder driven.Embedder
}

// NewRetriever creates a retriever. The tables parameter is optional.
func NewRetriever(docs documentSearcher, tables tableSearcher, embedder driven.Embedder) *Retriever {
	return &Retriever{
		docs:     docs,
		tables:   tables,
		embedder: embedder,
	}
}

// Retrieve returns at most 2*topK snippets joined by a blank line.
// An empty store yields an empty string.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (string, error) {
	snippets, err := r.Snippets(ctx, query, topK)
	if err != nil {
		return "", err
	}

	return domain.JoinSnippets(snippets), nil
}

// Snippets returns the retrieval result unjoined: chunks per document in
// ascending distance, then table rows in storage order, truncated to
// 2*topK entries. The cap is shared, so either kind can crowd out the other.
func (r *Retriever) Snippets(ctx context.Context, query string, topK int) ([]domain.Snippet, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be at least 1, got %d", domain.ErrInvalidArgument, topK)
	}

	logger.Section("Retrieve")
	logger.Debug("Query: %q, top_k: %d", query, topK)

	var snippets []domain.Snippet

	chunks, err := r.chunkSnippets(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	snippets = append(snippets, chunks...)

	if r.tables != nil {
		for _, row := range r.tables.Matches(query) {
			snippets = append(snippets, domain.Snippet{
				Kind:   domain.SnippetRow,
				Source: row.Source,
				Text:   row.Text,
			})
		}
	}

	limit := 2 * topK
	if len(snippets) > limit {
		logger.Debug("Truncating %d snippets to %d", len(snippets), limit)
		snippets = snippets[:limit]
	}
	if snippets == nil {
		snippets = []domain.Snippet{}
	}
	return snippets, nil
}

// chunkSnippets embeds the query once and fans out over every document.
// If the embedder fails the vector part is skipped so table matches
// still reach the caller.
func (r *Retriever) chunkSnippets(ctx context.Context, query string, topK int) ([]domain.Snippet, error) {
	names := r.docs.ListDocuments()
	if len(names) == 0 || r.embedder == nil {
		return nil, nil
	}

	vec, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailure, ctxErr)
		}
		logger.Warn("Query embedding failed, using table matches only: %v", err)
		return nil, nil
	}

	var snippets []domain.Snippet
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailure, err)
		}

		matches, err := r.docs.Search(ctx, name, vec, topK)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailure, err)
			}
			logger.Warn("Search of %q skipped: %v", name, err)
			continue
		}
		logger.Debug("Document %q: %d matches", name, len(matches))

		for _, m := range matches {
			snippets = append(snippets, domain.Snippet{
				Kind:     domain.SnippetChunk,
				Source:   name,
				Text:     m.Chunk.Content,
				Distance: m.Distance,
			})
		}
	}
	return snippets, nil
}
