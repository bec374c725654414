package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// AssistantService answers questions against the ingested material.
type AssistantService interface {
	// Retrieve returns the joined context string for a query.
	Retrieve(ctx context.Context, query string, topK int) (string, error)

	// Snippets returns the same entries as Retrieve, unjoined.
	Snippets(ctx context.Context, query string, topK int) ([]domain.Snippet, error)

	// SearchTables returns pooled table rows matching any query token.
	SearchTables(query string) []string

	// Ask returns the full reply, or an error wrapping domain.ErrGenerationBackend.
	Ask(ctx context.Context, req AskRequest) (string, error)

	// Stream yields reply fragments. A non-nil error ends the sequence.
	Stream(ctx context.Context, req AskRequest) iter.Seq2[string, error]

	// Reply is Ask with backend failures rendered as "Error: ..." text.
	Reply(ctx context.Context, req AskRequest) string

	// StreamReply is Stream with a failure rendered as a final
	// "\n[Stream error: ...]" fragment.
	StreamReply(ctx context.Context, req AskRequest) iter.Seq[string]

	// Respond routes a chat prompt for a session (summarize toggle or
	// "summarize" prefix), yields the reply and records both turns.
	Respond(ctx context.Context, session *domain.Session, prompt string) iter.Seq[string]
}

// AskRequest is a single question.
type AskRequest struct {
	Query   string
	History []domain.ConversationTurn
	Mode    domain.PromptMode

	// TopK is the per-document chunk count. Zero uses the configured default.
	TopK int
}
