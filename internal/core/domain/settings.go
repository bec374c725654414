package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a backend for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is any OpenAI-compatible server (LM Studio, vLLM, OpenAI).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderAnthropic is the Anthropic Messages API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderLocal is the in-process hashing embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama, AIProviderAnthropic, AIProviderGemini, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider refuses requests without a key.
// OpenAI-compatible local servers accept any key, so openai is not listed.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if the provider can embed text.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOpenAI || p == AIProviderOllama || p == AIProviderGemini || p == AIProviderLocal
}

// SupportsGeneration returns true if the provider can generate chat replies.
func (p AIProvider) SupportsGeneration() bool {
	return p == AIProviderOpenAI || p == AIProviderOllama || p == AIProviderAnthropic || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI-compatible (LM Studio, vLLM, OpenAI)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderLocal:
		return "Local hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// SnapshotBackend identifies where document snapshots are persisted.
type SnapshotBackend string

// Available snapshot backends.
const (
	SnapshotSQLite   SnapshotBackend = "sqlite"
	SnapshotBadger   SnapshotBackend = "badger"
	SnapshotPostgres SnapshotBackend = "postgres"
	SnapshotMemory   SnapshotBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b SnapshotBackend) IsValid() bool {
	switch b {
	case SnapshotSQLite, SnapshotBadger, SnapshotPostgres, SnapshotMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b SnapshotBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider `validate:"required,oneof=openai ollama gemini local"`
	Model    string     `validate:"required"`

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string `validate:"omitempty,url"`

	APIKey string

	// Dimensions overrides the model's known dimensionality.
	Dimensions int `validate:"gte=0"`

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds generation backend configuration.
type GenerationSettings struct {
	Provider AIProvider `validate:"required,oneof=openai ollama anthropic gemini"`
	Model    string     `validate:"required"`
	BaseURL  string     `validate:"omitempty,url"`
	APIKey   string

	Temperature float64 `validate:"gte=0,lte=2"`

	// MaxTokens caps reply length. Zero lets the backend decide.
	MaxTokens int `validate:"gte=0"`

	// Timeout bounds non-streaming calls.
	Timeout time.Duration `validate:"gt=0"`

	// StreamTimeout bounds streaming calls.
	StreamTimeout time.Duration `validate:"gt=0"`
}

// IsConfigured returns true if the generation provider is set up.
func (g GenerationSettings) IsConfigured() bool {
	if !g.Provider.IsValid() || !g.Provider.SupportsGeneration() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds chunking and retrieval parameters.
type RetrievalSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `validate:"gt=0"`

	// TopK is the default number of nearest chunks per document.
	TopK int `validate:"gt=0"`
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	Backend SnapshotBackend `validate:"required,oneof=sqlite badger postgres memory"`

	// DataDir holds the sqlite/badger files and uploaded sources.
	DataDir string `validate:"required"`

	// DatabaseURL is the postgres connection string.
	DatabaseURL string `validate:"required_if=Backend postgres"`
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Addr string `validate:"required"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	Generation GenerationSettings
	Retrieval  RetrievalSettings
	Storage    StorageSettings
	Server     ServerSettings
}

// Defaults mirrored from the LM Studio setup the assistant targets.
const (
	DefaultGenerationBaseURL = "http://localhost:1234/v1"
	DefaultGenerationModel   = "local-model"
	DefaultTemperature       = 0.7
	DefaultChunkSize         = 500
	DefaultTimeout           = 30 * time.Second
	DefaultStreamTimeout     = 60 * time.Second
	DefaultServerAddr        = ":8080"
)

// DefaultAppSettings returns settings that work against a local
// OpenAI-compatible server with the offline embedder.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
			Model:    "hashing-384",
		},
		Generation: GenerationSettings{
			Provider:      AIProviderOpenAI,
			Model:         DefaultGenerationModel,
			BaseURL:       DefaultGenerationBaseURL,
			Temperature:   DefaultTemperature,
			Timeout:       DefaultTimeout,
			StreamTimeout: DefaultStreamTimeout,
		},
		Retrieval: RetrievalSettings{
			ChunkSize: DefaultChunkSize,
			TopK:      DefaultTopK,
		},
		Storage: StorageSettings{
			Backend: SnapshotSQLite,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "text-embedding-all-minilm-l6-v2",
		AIProviderOllama: "all-minilm",
		AIProviderGemini: "text-embedding-004",
		AIProviderLocal:  "hashing-384",
	}
}

// DefaultGenerationModels returns default models for each generation provider.
func DefaultGenerationModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    DefaultGenerationModel,
		AIProviderOllama:    "llama3.2",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"all-minilm":                      384,
		"text-embedding-all-minilm-l6-v2": 384,
		"nomic-embed-text":                768,
		"mxbai-embed-large":               1024,
		"text-embedding-3-small":          1536,
		"text-embedding-3-large":          3072,
		"text-embedding-004":              768,
		"hashing-384":                     384,
	}
}
