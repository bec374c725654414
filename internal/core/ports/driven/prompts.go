package driven

// PromptStore provides access to prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; known names fall back to defaults.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptSystem is the troubleshooting instruction prepended to every
	// normal-mode request. No placeholders.
	PromptSystem = "system"

	// PromptSummarize wraps retrieved context in summarize mode.
	// The template expects one %s placeholder for the context.
	PromptSummarize = "summarize"
)
