package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// Ensure Assistant implements the interface.
var _ driving.AssistantService = (*Assistant)(nil)

// summarizePrefix routes a chat prompt to summarize mode.
const summarizePrefix = "summarize"

// Assistant answers questions by assembling retrieved context and calling
// the generation backend.
type Assistant struct {
	retriever *Retriever
	tables    *TableStore
	assembler *ContextAssembler
	generator driven.GenerationClient
	opts      driven.GenerateOptions
}

// NewAssistant creates an assistant. The tables parameter is optional.
func NewAssistant(
	retriever *Retriever,
	tables *TableStore,
	assembler *ContextAssembler,
	generator driven.GenerationClient,
	opts driven.GenerateOptions,
) *Assistant {
	return &Assistant{
		retriever: retriever,
		tables:    tables,
		assembler: assembler,
		generator: generator,
		opts:      opts,
	}
}

// Retrieve returns the joined context string for a query.
func (a *Assistant) Retrieve(ctx context.Context, query string, topK int) (string, error) {
	return a.retriever.Retrieve(ctx, query, a.topK(topK))
}

// Snippets returns the retrieval result unjoined.
func (a *Assistant) Snippets(ctx context.Context, query string, topK int) ([]domain.Snippet, error) {
	return a.retriever.Snippets(ctx, query, a.topK(topK))
}

// SearchTables returns pooled rows matching any token of query.
func (a *Assistant) SearchTables(query string) []string {
	if a.tables == nil {
		return []string{}
	}
	return a.tables.Search(query)
}

// Ask builds the messages for req and returns the full reply.
func (a *Assistant) Ask(ctx context.Context, req driving.AskRequest) (string, error) {
	messages, err := a.assembler.BuildMessages(ctx, req.Query, req.History, req.Mode, WithTopK(req.TopK))
	if err != nil {
		return "", err
	}
	if a.generator == nil {
		return "", fmt.Errorf("%w: no generation backend configured", domain.ErrGenerationBackend)
	}

	logger.Debug("Generating with %s (%d messages)", a.generator.ModelName(), len(messages))
	reply, err := a.generator.Complete(ctx, messages, a.opts)
	if err != nil {
		return "", asGenerationError(err)
	}
	return reply, nil
}

// Stream builds the messages for req and yields reply fragments.
// A non-nil error is yielded once and ends the sequence.
func (a *Assistant) Stream(ctx context.Context, req driving.AskRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		messages, err := a.assembler.BuildMessages(ctx, req.Query, req.History, req.Mode, WithTopK(req.TopK))
		if err != nil {
			yield("", err)
			return
		}
		if a.generator == nil {
			yield("", fmt.Errorf("%w: no generation backend configured", domain.ErrGenerationBackend))
			return
		}

		logger.Debug("Streaming with %s (%d messages)", a.generator.ModelName(), len(messages))
		for token, err := range a.generator.Stream(ctx, messages, a.opts) {
			if err != nil {
				yield("", asGenerationError(err))
				return
			}
			if !yield(token, nil) {
				return
			}
		}
	}
}

// Reply is Ask with failures rendered as "Error: ..." so chat surfaces
// always have something to show. A cancelled request yields "".
func (a *Assistant) Reply(ctx context.Context, req driving.AskRequest) string {
	reply, err := a.Ask(ctx, req)
	if err != nil {
		if cancelled(ctx, err) {
			logger.Debug("Reply cancelled")
			return ""
		}
		logger.Warn("Reply failed: %v", err)
		return ErrorText(err)
	}
	return reply
}

// StreamReply is Stream with a failure rendered as a final
// "\n[Stream error: ...]" fragment. Cancellation ends the stream quietly.
func (a *Assistant) StreamReply(ctx context.Context, req driving.AskRequest) iter.Seq[string] {
	return func(yield func(string) bool) {
		for token, err := range a.Stream(ctx, req) {
			if err != nil {
				if cancelled(ctx, err) {
					logger.Debug("Stream cancelled")
					return
				}
				logger.Warn("Stream failed: %v", err)
				yield(StreamErrorText(err))
				return
			}
			if !yield(token) {
				return
			}
		}
	}
}

// Summarize asks for a summary of the context retrieved for query.
func (a *Assistant) Summarize(ctx context.Context, query string, topK int) (string, error) {
	return a.Ask(ctx, driving.AskRequest{Query: query, Mode: domain.ModeSummarize, TopK: topK})
}

// Respond answers a chat prompt for a session. The prompt is summarized
// when the session toggle is on or it starts with "summarize"; otherwise
// the reply is streamed with the prior history. Both turns are recorded
// once the reply ends. A Session is not safe for concurrent use.
func (a *Assistant) Respond(ctx context.Context, session *domain.Session, prompt string) iter.Seq[string] {
	return func(yield func(string) bool) {
		history := slices.Clone(session.History)
		var reply strings.Builder

		defer func() {
			session.Add(domain.RoleUser, prompt)
			session.Add(domain.RoleAssistant, reply.String())
		}()

		if IsSummarizeRequest(session, prompt) {
			text := a.Reply(ctx, driving.AskRequest{Query: prompt, Mode: domain.ModeSummarize})
			reply.WriteString(text)
			yield(text)
			return
		}

		for token := range a.StreamReply(ctx, driving.AskRequest{Query: prompt, History: history}) {
			reply.WriteString(token)
			if !yield(token) {
				return
			}
		}
	}
}

// IsSummarizeRequest reports whether a chat prompt goes to summarize mode.
func IsSummarizeRequest(session *domain.Session, prompt string) bool {
	if session != nil && session.Summarize {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(prompt)), summarizePrefix)
}

// ErrorText renders a non-streaming failure for display.
func ErrorText(err error) string {
	return "Error: " + err.Error()
}

// StreamErrorText renders a streaming failure for display.
func StreamErrorText(err error) string {
	return "\n[Stream error: " + err.Error() + "]"
}

// cancelled reports whether err comes from the caller cancelling ctx.
func cancelled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}

func (a *Assistant) topK(k int) int {
	if k == 0 {
		return a.assembler.topK
	}
	return k
}

// asGenerationError tags backend errors with the generation error kind.
func asGenerationError(err error) error {
	if errors.Is(err, domain.ErrGenerationBackend) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationBackend, err)
}
