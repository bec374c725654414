package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedRate      = "embedding.requests_per_second"
	keyGenProvider    = "generation.provider"
	keyGenModel       = "generation.model"
	keyGenBaseURL     = "generation.base_url"
	keyGenAPIKey      = "generation.api_key"
	keyGenTemperature = "generation.temperature"
	keyGenMaxTokens   = "generation.max_tokens"
	keyGenTimeout     = "generation.timeout"
	keyGenStreamTO    = "generation.stream_timeout"
	keyChunkSize      = "retrieval.chunk_size"
	keyTopK           = "retrieval.top_k"
	keyBackend        = "storage.backend"
	keyDataDir        = "storage.data_dir"
	keyDatabaseURL    = "storage.database_url"
	keyServerAddr     = "server.addr"
)

// valueKind is how a config value is parsed from text.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
)

// settingKinds lists every key accepted by Set.
var settingKinds = map[string]valueKind{
	keyEmbedProvider:  kindString,
	keyEmbedModel:     kindString,
	keyEmbedBaseURL:   kindString,
	keyEmbedAPIKey:    kindString,
	keyEmbedDims:      kindInt,
	keyEmbedRate:      kindFloat,
	keyGenProvider:    kindString,
	keyGenModel:       kindString,
	keyGenBaseURL:     kindString,
	keyGenAPIKey:      kindString,
	keyGenTemperature: kindFloat,
	keyGenMaxTokens:   kindInt,
	keyGenTimeout:     kindDuration,
	keyGenStreamTO:    kindDuration,
	keyChunkSize:      kindInt,
	keyTopK:           kindInt,
	keyBackend:        kindString,
	keyDataDir:        kindString,
	keyDatabaseURL:    kindString,
	keyServerAddr:     kindString,
}

// SettingKeys returns the keys accepted by Set.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	return keys
}

// Environment variables that override the config file.
const (
	EnvGenerationURL      = "LM_API_URL"
	EnvGenerationModel    = "MODEL_NAME"
	EnvGenerationProvider = "GENERATION_PROVIDER"
	EnvEmbeddingProvider  = "EMBEDDING_PROVIDER"
	EnvEmbeddingModel     = "EMBEDDING_MODEL"
	EnvEmbeddingURL       = "EMBEDDING_API_URL"
	EnvSnapshotBackend    = "SNAPSHOT_BACKEND"
	EnvDatabaseURL        = "DATABASE_URL"
	EnvOpenAIKey          = "OPENAI_API_KEY"
	EnvAnthropicKey       = "ANTHROPIC_API_KEY"
	EnvGeminiKey          = "GEMINI_API_KEY"
)

// SettingsService layers defaults, the config file and the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
	getenv      func(string) string
	dataDir     string
}

// NewSettingsService creates a new settings service. dataDir is the
// default storage directory when the config file does not name one.
// aiValidator may be nil, in which case connectivity checks always pass.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, dataDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(),
		getenv:      os.Getenv,
		dataDir:     dataDir,
	}
}

// SetEnvLookup replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, ""),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, d.Embedding.Dimensions),
			RequestsPerSecond: s.getFloat(keyEmbedRate, d.Embedding.RequestsPerSecond),
		},
		Generation: domain.GenerationSettings{
			Provider:      s.getProvider(keyGenProvider, d.Generation.Provider),
			Model:         s.getString(keyGenModel, ""),
			BaseURL:       s.configStore.GetString(keyGenBaseURL),
			APIKey:        s.configStore.GetString(keyGenAPIKey),
			Temperature:   s.getFloat(keyGenTemperature, d.Generation.Temperature),
			MaxTokens:     s.getInt(keyGenMaxTokens, d.Generation.MaxTokens),
			Timeout:       s.getDuration(keyGenTimeout, d.Generation.Timeout),
			StreamTimeout: s.getDuration(keyGenStreamTO, d.Generation.StreamTimeout),
		},
		Retrieval: domain.RetrievalSettings{
			ChunkSize: s.getInt(keyChunkSize, d.Retrieval.ChunkSize),
			TopK:      s.getInt(keyTopK, d.Retrieval.TopK),
		},
		Storage: domain.StorageSettings{
			Backend:     domain.SnapshotBackend(s.getString(keyBackend, d.Storage.Backend.String())),
			DataDir:     s.getString(keyDataDir, s.dataDir),
			DatabaseURL: s.configStore.GetString(keyDatabaseURL),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
	}

	s.applyEnv(settings)
	applyProviderDefaults(settings)
	return settings, nil
}

// applyEnv overlays environment variables on the file settings.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v := s.getenv(EnvGenerationProvider); v != "" {
		settings.Generation.Provider = domain.AIProvider(v)
	}
	if v := s.getenv(EnvGenerationURL); v != "" {
		settings.Generation.BaseURL = v
	}
	if v := s.getenv(EnvGenerationModel); v != "" {
		settings.Generation.Model = v
	}
	if v := s.getenv(EnvEmbeddingProvider); v != "" {
		settings.Embedding.Provider = domain.AIProvider(v)
	}
	if v := s.getenv(EnvEmbeddingModel); v != "" {
		settings.Embedding.Model = v
	}
	if v := s.getenv(EnvEmbeddingURL); v != "" {
		settings.Embedding.BaseURL = v
	}
	if v := s.getenv(EnvSnapshotBackend); v != "" {
		settings.Storage.Backend = domain.SnapshotBackend(v)
	}
	if v := s.getenv(EnvDatabaseURL); v != "" {
		settings.Storage.DatabaseURL = v
	}

	if settings.Generation.APIKey == "" {
		settings.Generation.APIKey = s.providerKey(settings.Generation.Provider)
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
}

func (s *SettingsService) providerKey(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicKey)
	case domain.AIProviderGemini:
		return s.getenv(EnvGeminiKey)
	default:
		return ""
	}
}

// applyProviderDefaults fills models and URLs the user left empty.
func applyProviderDefaults(settings *domain.AppSettings) {
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Generation.Model == "" {
		settings.Generation.Model = domain.DefaultGenerationModels()[settings.Generation.Provider]
	}
	if settings.Generation.BaseURL == "" && settings.Generation.Provider == domain.AIProviderOpenAI {
		settings.Generation.BaseURL = domain.DefaultGenerationBaseURL
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRate, settings.Embedding.RequestsPerSecond},
		{keyGenProvider, settings.Generation.Provider.String()},
		{keyGenModel, settings.Generation.Model},
		{keyGenBaseURL, settings.Generation.BaseURL},
		{keyGenTemperature, settings.Generation.Temperature},
		{keyGenMaxTokens, settings.Generation.MaxTokens},
		{keyGenTimeout, settings.Generation.Timeout.String()},
		{keyGenStreamTO, settings.Generation.StreamTimeout.String()},
		{keyChunkSize, settings.Retrieval.ChunkSize},
		{keyTopK, settings.Retrieval.TopK},
		{keyBackend, settings.Storage.Backend.String()},
		{keyDataDir, settings.Storage.DataDir},
		{keyDatabaseURL, settings.Storage.DatabaseURL},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when present so env-provided keys stay out of the file.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.Generation.APIKey != "" {
		if err := s.configStore.Set(keyGenAPIKey, settings.Generation.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyGenAPIKey, err)
		}
	}
	return nil
}

// Set parses value for key, persists it, and rolls back if the resulting
// settings do not validate.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, key)
	}

	parsed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidArgument, key, err)
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	settings, err := s.Get()
	if err == nil {
		err = s.Validate(settings)
	}
	if err != nil {
		if existed {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Delete(key)
		}
		return err
	}
	return nil
}

func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	default:
		return value, nil
	}
}

// Validate checks settings against their struct tags and provider rules.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s needs an API key",
			domain.ErrInvalidArgument, settings.Embedding.Provider)
	}
	if !settings.Generation.IsConfigured() {
		return fmt.Errorf("%w: generation provider %s needs an API key",
			domain.ErrInvalidArgument, settings.Generation.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	d := domain.DefaultAppSettings()
	d.Storage.DataDir = s.dataDir
	return d
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateGenerationConfig pings the configured generation provider.
func (s *SettingsService) ValidateGenerationConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateGeneration(ctx, &settings.Generation)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	// TOML floats decode as float64, whole numbers as int64
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return defaultVal
	}
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(s.configStore.GetString(key))
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}
