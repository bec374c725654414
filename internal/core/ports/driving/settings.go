package driving

import (
	"context"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings: defaults, then config file, then environment.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates one dot-notation key (e.g. "generation.model") and persists it.
	Set(key, value string) error

	// Validate checks settings for consistency.
	Validate(settings *domain.AppSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateGenerationConfig pings the configured generation provider.
	ValidateGenerationConfig(ctx context.Context) error
}
