package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// contextRetriever is the part of Retriever the assembler needs.
type contextRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) (string, error)
}

// ContextAssembler builds the message payload for the generation backend.
type ContextAssembler struct {
	retriever contextRetriever
	prompts   driven.PromptStore
	topK      int
}

// NewContextAssembler creates an assembler. The prompts parameter is
// optional (can be nil); built-in prompts are used without it.
func NewContextAssembler(retriever contextRetriever, prompts driven.PromptStore, topK int) *ContextAssembler {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &ContextAssembler{
		retriever: retriever,
		prompts:   prompts,
		topK:      topK,
	}
}

// AssembleOption adjusts a single BuildMessages call.
type AssembleOption func(*assembleConfig)

type assembleConfig struct {
	topK int
}

// WithTopK overrides the per-document chunk count for one call.
// Zero keeps the assembler default.
func WithTopK(k int) AssembleOption {
	return func(c *assembleConfig) {
		if k != 0 {
			c.topK = k
		}
	}
}

// BuildMessages returns the ordered role/content pairs for a query.
//
// Normal mode: system prompt, every history turn verbatim, then a user
// turn "{context}\n\nQ: {query}".
//
// Summarize mode: history is ignored and no system turn is sent; the only
// turn is "Summarize the following text:\n\n{context}".
func (a *ContextAssembler) BuildMessages(
	ctx context.Context,
	query string,
	history []domain.ConversationTurn,
	mode domain.PromptMode,
	opts ...AssembleOption,
) ([]domain.ConversationTurn, error) {
	cfg := assembleConfig{topK: a.topK}
	for _, opt := range opts {
		opt(&cfg)
	}

	retrieved, err := a.retriever.Retrieve(ctx, query, cfg.topK)
	if err != nil {
		return nil, err
	}
	logger.Debug("Context: %d characters, mode: %s", len(retrieved), mode)

	switch mode {
	case domain.ModeSummarize:
		return []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: a.summarizePrompt(retrieved)},
		}, nil

	case domain.ModeNormal:
		messages := make([]domain.ConversationTurn, 0, len(history)+2)
		messages = append(messages, domain.ConversationTurn{Role: domain.RoleSystem, Content: a.systemPrompt()})
		messages = append(messages, history...)
		messages = append(messages, domain.ConversationTurn{
			Role:    domain.RoleUser,
			Content: retrieved + "\n\nQ: " + query,
		})
		return messages, nil

	default:
		return nil, fmt.Errorf("%w: unknown prompt mode %d", domain.ErrInvalidArgument, mode)
	}
}

func (a *ContextAssembler) systemPrompt() string {
	return a.loadPrompt(driven.PromptSystem, domain.DefaultSystemPrompt)
}

func (a *ContextAssembler) summarizePrompt(retrieved string) string {
	tmpl := a.loadPrompt(driven.PromptSummarize, domain.DefaultSummarizePrompt)
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, retrieved)
	}
	return tmpl + retrieved
}

// loadPrompt loads a prompt from the store, falling back to def.
func (a *ContextAssembler) loadPrompt(name, def string) string {
	if a.prompts == nil {
		return def
	}
	p, err := a.prompts.Load(name)
	if err != nil || p == "" {
		return def
	}
	return p
}
