// Package app wires the adapters and services into a running assistant.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/ai"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/storage"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/core/services"
	"github.com/custodia-labs/troubleshoot/internal/logger"
	"github.com/custodia-labs/troubleshoot/internal/normalisers/pdf"
	"github.com/custodia-labs/troubleshoot/internal/normalisers/plaintext"
	"github.com/custodia-labs/troubleshoot/internal/normalisers/table"
	"github.com/custodia-labs/troubleshoot/internal/postprocessors/chunker"
)

// Options control where the application keeps its files.
type Options struct {
	// ConfigDir holds config.toml and prompts/. Empty uses ~/.troubleshoot.
	ConfigDir string

	// DataDir overrides storage.data_dir when set.
	DataDir string
}

// App holds all application components and dependencies.
type App struct {
	Settings *domain.AppSettings

	SettingsService *services.SettingsService
	Assistant       *services.Assistant
	Ingest          *services.IngestService
	Documents       *services.DocumentStore
	Tables          *services.TableStore

	configStore *file.ConfigStore
	snapshots   driven.SnapshotStore
	embedder    driven.Embedder
	generator   driven.GenerationClient
}

// New builds the application and restores persisted state.
func New(ctx context.Context, opts Options) (*App, error) {
	a := &App{}

	if err := a.initSettings(opts); err != nil {
		return nil, err
	}
	if err := a.initBackends(ctx); err != nil {
		a.Close() //nolint:errcheck
		return nil, err
	}
	a.initServices()

	if err := a.restore(ctx); err != nil {
		a.Close() //nolint:errcheck
		return nil, err
	}
	return a, nil
}

// NewSettingsOnly loads configuration without touching storage or backends.
func NewSettingsOnly(opts Options) (*App, error) {
	a := &App{}
	if err := a.initSettings(opts); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) initSettings(opts Options) error {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return err
		}
		configDir = dir
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	a.configStore = store
	a.SettingsService = services.NewSettingsService(store, ai.NewConfigValidator(), filepath.Join(configDir, "data"))

	settings, err := a.SettingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if opts.DataDir != "" {
		settings.Storage.DataDir = opts.DataDir
	}
	a.Settings = settings

	logger.Debug("Config: %s", store.Path())
	logger.Debug("Data dir: %s", settings.Storage.DataDir)
	return nil
}

// initBackends opens the snapshot store and the AI clients. A missing or
// broken backend is not fatal; ingestion and replies will carry the error.
func (a *App) initBackends(ctx context.Context) error {
	snapshots, err := storage.Open(ctx, a.Settings.Storage)
	if err != nil {
		return err
	}
	a.snapshots = snapshots

	// An unusable embedder is kept as one that fails every call: ingestion
	// then aborts, and retrieval still serves table rows.
	embedder, err := ai.OpenEmbedder(ctx, &a.Settings.Embedding)
	if err != nil {
		logger.Warn("Embedding provider %s unavailable: %v", a.Settings.Embedding.Provider, err)
	}
	a.embedder = embedder

	generator, err := ai.CreateGenerationClient(ctx, &a.Settings.Generation)
	if err != nil {
		logger.Warn("Generation provider %s unavailable: %v", a.Settings.Generation.Provider, err)
		generator = nil
	}
	a.generator = generator
	return nil
}

func (a *App) initServices() {
	s := a.Settings

	a.Documents = services.NewDocumentStore(
		chunker.New(chunker.WithChunkSize(s.Retrieval.ChunkSize)),
		a.embedder,
		flat.Factory,
		a.snapshots,
	)
	a.Tables = services.NewTableStore(a.snapshots)

	retriever := services.NewRetriever(a.Documents, a.Tables, a.embedder)

	prompts, err := file.NewPromptStore(filepath.Join(filepath.Dir(a.configStore.Path()), "prompts"))
	var promptStore driven.PromptStore
	if err != nil {
		logger.Warn("Prompt files unavailable, using built-in prompts: %v", err)
	} else {
		promptStore = prompts
	}

	assembler := services.NewContextAssembler(retriever, promptStore, s.Retrieval.TopK)
	a.Assistant = services.NewAssistant(retriever, a.Tables, assembler, a.generator, driven.GenerateOptions{
		Temperature: s.Generation.Temperature,
		MaxTokens:   s.Generation.MaxTokens,
	})

	a.Ingest = services.NewIngestService(
		a.Documents,
		a.Tables,
		file.NewUploadStore(s.Storage.DataDir),
		plaintext.New(),
		table.New(),
		pdf.New(),
	)
}

func (a *App) restore(ctx context.Context) error {
	if _, err := a.Documents.Restore(ctx); err != nil {
		return fmt.Errorf("restore documents: %w", err)
	}
	if _, err := a.Tables.Restore(ctx); err != nil {
		return fmt.Errorf("restore tables: %w", err)
	}
	return nil
}

// Generator returns the generation client, or nil when none is configured.
func (a *App) Generator() driven.GenerationClient {
	return a.generator
}

// Close releases backend connections and the snapshot store.
func (a *App) Close() error {
	var errs []error
	if a.generator != nil {
		errs = append(errs, a.generator.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if a.snapshots != nil {
		errs = append(errs, a.snapshots.Close())
	}
	return errors.Join(errs...)
}
